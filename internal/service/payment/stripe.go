package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	defaultStripeBaseURL = "https://api.stripe.com"
	defaultHTTPTimeout   = 10 * time.Second

	// Сессия считается оплаченной, когда Stripe вернул этот payment_status.
	paymentStatusPaid = "paid"
)

// StripeGateway реализует PaymentGateway поверх Stripe Checkout Sessions API.
type StripeGateway struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *log.Entry
}

// StripeOption настраивает StripeGateway.
type StripeOption func(*StripeGateway)

// WithBaseURL переопределяет адрес Stripe API (для тестов).
func WithBaseURL(baseURL string) StripeOption {
	return func(g *StripeGateway) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient переопределяет HTTP-клиент.
func WithHTTPClient(client *http.Client) StripeOption {
	return func(g *StripeGateway) {
		g.client = client
	}
}

// NewStripeGateway создает клиент Stripe с указанным секретным ключом.
func NewStripeGateway(apiKey string, opts ...StripeOption) *StripeGateway {
	gateway := &StripeGateway{
		apiKey:  apiKey,
		baseURL: defaultStripeBaseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:  log.WithField("component", "stripe-gateway"),
	}
	for _, opt := range opts {
		opt(gateway)
	}
	return gateway
}

type stripeSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateSession создает Checkout Session в режиме payment.
func (g *StripeGateway) CreateSession(ctx context.Context, lines []domain.CheckoutLine, successURL, cancelURL string) (domain.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	for i, line := range lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", line.Currency)
		form.Set(prefix+"[price_data][product_data][name]", line.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(line.UnitAmountMinor, 10))
		form.Set(prefix+"[quantity]", strconv.FormatInt(int64(line.Qty), 10))
	}

	var session stripeSession
	if err := g.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return domain.CheckoutSession{}, err
	}

	g.logger.WithFields(log.Fields{
		"session_id": session.ID,
		"lines":      len(lines),
	}).Debug("stripe checkout session created")

	return domain.CheckoutSession{
		ID:          session.ID,
		RedirectURL: session.URL,
	}, nil
}

// ConfirmSession запрашивает сессию у Stripe и проверяет payment_status.
func (g *StripeGateway) ConfirmSession(ctx context.Context, sessionID string) (bool, error) {
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)

	var session stripeSession
	if err := g.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return false, err
	}

	return session.PaymentStatus == paymentStatusPaid, nil
}

func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read stripe response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr stripeError
		if jsonErr := json.Unmarshal(data, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			g.logger.WithFields(log.Fields{
				"status": resp.StatusCode,
				"type":   apiErr.Error.Type,
			}).Error("stripe api error")
			return fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: unexpected status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode stripe response: %w", err)
		}
	}
	return nil
}

var _ domain.PaymentGateway = (*StripeGateway)(nil)
