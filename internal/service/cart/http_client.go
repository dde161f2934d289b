package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const defaultHTTPTimeout = 5 * time.Second

// HTTPClient очищает корзину пользователя через внешний cart-сервис.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *log.Entry
}

// NewHTTPClient создает клиент cart-сервиса по его базовому адресу.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:  log.WithField("component", "cart-client"),
	}
}

// Clear сбрасывает содержимое корзины владельца заказа.
func (c *HTTPClient) Clear(ctx context.Context, ownerID string) error {
	body, err := json.Marshal(struct {
		UserID string `json:"userId"`
	}{UserID: ownerID})
	if err != nil {
		return fmt.Errorf("failed to marshal cart clear request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/cart/clear", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build cart clear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cart service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(log.Fields{
			"owner_id": ownerID,
			"status":   resp.StatusCode,
		}).Warn("cart clear returned unexpected status")
		return fmt.Errorf("cart clear failed with status %d", resp.StatusCode)
	}

	return nil
}

var _ domain.CartService = (*HTTPClient)(nil)
