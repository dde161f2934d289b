package cart

import (
	"context"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockService — конфигурируемая заглушка CartService для тестов.
type MockService struct {
	ClearErr error

	ClearCalls int
	LastOwner  string
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{}
}

// Clear возвращает настроенный результат и считает вызовы.
func (m *MockService) Clear(ctx context.Context, ownerID string) error {
	m.ClearCalls++
	m.LastOwner = ownerID
	return m.ClearErr
}

var _ domain.CartService = (*MockService)(nil)
