package payment

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockGateway — конфигурируемая заглушка PaymentGateway для тестов.
type MockGateway struct {
	Session          domain.CheckoutSession
	CreateSessionErr error
	ConfirmResult    bool
	ConfirmErr       error

	CreateCalls  int
	ConfirmCalls int

	// LastLines хранит строки последней созданной сессии.
	LastLines      []domain.CheckoutLine
	LastSuccessURL string
	LastCancelURL  string
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Session: domain.CheckoutSession{
			ID:          "cs_test_mock",
			RedirectURL: "https://checkout.example/cs_test_mock",
		},
		ConfirmResult: true,
	}
}

// CreateSession возвращает заранее настроенную сессию и считает вызовы.
func (m *MockGateway) CreateSession(ctx context.Context, lines []domain.CheckoutLine, successURL, cancelURL string) (domain.CheckoutSession, error) {
	m.CreateCalls++
	m.LastLines = append([]domain.CheckoutLine(nil), lines...)
	m.LastSuccessURL = successURL
	m.LastCancelURL = cancelURL

	if m.CreateSessionErr != nil {
		return domain.CheckoutSession{}, m.CreateSessionErr
	}

	session := m.Session
	if session.ID == "" {
		session.ID = fmt.Sprintf("cs_test_%d", m.CreateCalls)
	}
	return session, nil
}

// ConfirmSession возвращает настроенный результат подтверждения.
func (m *MockGateway) ConfirmSession(ctx context.Context, sessionID string) (bool, error) {
	m.ConfirmCalls++
	return m.ConfirmResult, m.ConfirmErr
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
