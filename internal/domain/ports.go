package domain

import (
	"context"
	"time"
)

// CheckoutLine — одна позиция прайс-листа, уходящего в платёжный шлюз.
type CheckoutLine struct {
	// Name — название позиции, как его увидит покупатель на странице оплаты.
	Name string
	// UnitAmountMinor — цена за единицу в минимальных единицах валюты шлюза.
	UnitAmountMinor int64
	// Qty — количество единиц.
	Qty int32
	// Currency — код валюты, в которой выставляется сессия.
	Currency string
}

// CheckoutSession — непрозрачный хэндл платёжной сессии, выданный шлюзом.
type CheckoutSession struct {
	// ID сессии; по нему впоследствии подтверждается исход оплаты.
	ID string
	// RedirectURL — адрес страницы оплаты, на которую уводится покупатель.
	RedirectURL string
}

// PaymentGateway описывает взаимодействие с внешним платёжным шлюзом.
// Шлюз не хранит локального состояния; вся сверка идёт по ID сессии.
type PaymentGateway interface {
	// CreateSession открывает платёжную сессию для прайс-листа и возвращает
	// redirect-адрес. successURL/cancelURL встраивают идентификатор заказа
	// и флаг исхода, чтобы Verify получил корректные аргументы.
	CreateSession(ctx context.Context, lines []CheckoutLine, successURL, cancelURL string) (CheckoutSession, error)
	// ConfirmSession спрашивает у шлюза фактический исход сессии.
	// Заявленный клиентом успех без подтверждения шлюза не принимается.
	ConfirmSession(ctx context.Context, sessionID string) (bool, error)
}

// CartService очищает активную корзину покупателя после оформления заказа.
type CartService interface {
	Clear(ctx context.Context, ownerID string) error
}

// IdentityResolver восстанавливает идентификатор вызывающего из учётных данных.
type IdentityResolver interface {
	// Resolve возвращает ownerID или ErrUnauthenticated.
	Resolve(credential string) (string, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
