package kafka

import "time"

// EventType определяет тип события жизненного цикла заказа.
type EventType string

const (
	// Переходы заказа
	EventTypeOrderPlaced           EventType = "order.placed"
	EventTypeOrderPaymentConfirmed EventType = "order.payment_confirmed"
	EventTypeOrderPaymentFailed    EventType = "order.payment_failed"
	EventTypeOrderAbandoned        EventType = "order.abandoned"

	// События воркера сверки
	EventTypeOrderReconciled EventType = "order.reconciled"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "checkout.order.events"
	TopicDeadLetterQueue = "checkout.dlq" // Dead Letter Queue для failed messages
)

// OrderEvent представляет событие заказа.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	OwnerID   string                 `json:"owner_id"`
	Paid      bool                   `json:"paid"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, ownerID string, paid bool, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		OwnerID:   ownerID,
		Paid:      paid,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
