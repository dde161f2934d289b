package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestStripeGateway_CreateSession(t *testing.T) {
	var gotForm map[string][]string
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_42","url":"https://checkout.stripe.com/pay/cs_test_42"}`))
	}))
	defer server.Close()

	gateway := NewStripeGateway("sk_test_key", WithBaseURL(server.URL))

	lines := []domain.CheckoutLine{
		{Name: "Pizza", UnitAmountMinor: 80000, Qty: 2, Currency: "inr"},
		{Name: "Delivery Charges", UnitAmountMinor: 16000, Qty: 1, Currency: "inr"},
	}
	session, err := gateway.CreateSession(context.Background(), lines, "https://front/verify?success=true&orderId=o-1", "https://front/verify?success=false&orderId=o-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.ID != "cs_test_42" {
		t.Fatalf("unexpected session id: %s", session.ID)
	}
	if session.RedirectURL != "https://checkout.stripe.com/pay/cs_test_42" {
		t.Fatalf("unexpected redirect url: %s", session.RedirectURL)
	}
	if gotAuth != "Bearer sk_test_key" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if got := gotForm["line_items[0][price_data][product_data][name]"]; len(got) != 1 || got[0] != "Pizza" {
		t.Fatalf("unexpected first line name: %v", got)
	}
	if got := gotForm["line_items[1][price_data][unit_amount]"]; len(got) != 1 || got[0] != "16000" {
		t.Fatalf("unexpected delivery unit amount: %v", got)
	}
	if got := gotForm["mode"]; len(got) != 1 || got[0] != "payment" {
		t.Fatalf("unexpected mode: %v", got)
	}
}

func TestStripeGateway_ConfirmSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/checkout/sessions/cs_paid":
			w.Write([]byte(`{"id":"cs_paid","payment_status":"paid"}`))
		case "/v1/checkout/sessions/cs_open":
			w.Write([]byte(`{"id":"cs_open","payment_status":"unpaid"}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	gateway := NewStripeGateway("sk_test_key", WithBaseURL(server.URL))

	confirmed, err := gateway.ConfirmSession(context.Background(), "cs_paid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed {
		t.Fatal("expected paid session to be confirmed")
	}

	confirmed, err = gateway.ConfirmSession(context.Background(), "cs_open")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed {
		t.Fatal("expected unpaid session to not be confirmed")
	}
}

func TestStripeGateway_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	gateway := NewStripeGateway("sk_test_key", WithBaseURL(server.URL))

	_, err := gateway.CreateSession(context.Background(), nil, "s", "c")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestStripeGateway_Unreachable(t *testing.T) {
	gateway := NewStripeGateway("sk_test_key", WithBaseURL("http://127.0.0.1:1"))

	_, err := gateway.ConfirmSession(context.Background(), "cs_any")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}
