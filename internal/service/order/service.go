package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

const (
	// Валюта платёжных сессий.
	Currency = "inr"

	// Перевод цены витрины в минимальные единицы валюты шлюза.
	unitAmountFactor = 100 * 80

	// Фиксированная строка доставки, добавляемая к каждой сессии.
	deliveryLineName  = "Delivery Charges"
	deliveryLinePrice = 2
)

// VerifyOutcome описывает исход сверки платежа.
type VerifyOutcome string

const (
	// VerifyOutcomePaid — оплата подтверждена, заказ помечен оплаченным.
	VerifyOutcomePaid VerifyOutcome = "paid"
	// VerifyOutcomeDeleted — оплата не состоялась, заказ удалён.
	VerifyOutcomeDeleted VerifyOutcome = "deleted"
	// VerifyOutcomeNotFound — заказ не найден.
	VerifyOutcomeNotFound VerifyOutcome = "not_found"
)

// PlaceRequest — данные оформления заказа.
type PlaceRequest struct {
	OwnerID string
	Items   []domain.OrderItem
	Amount  int64
	Address domain.Address
}

// PlaceResult возвращает сохранённый заказ и адрес страницы оплаты.
type PlaceResult struct {
	Order       domain.Order
	RedirectURL string
}

// VerifyResult возвращает исход сверки и актуальное состояние заказа.
type VerifyResult struct {
	Outcome VerifyOutcome
	Order   domain.Order
}

// Service реализует оформление заказа, сверку платежа и выборку истории.
type Service struct {
	orders      domain.OrderRepository
	outbox      domain.OutboxRepository
	timeline    domain.TimelineRepository
	gateway     domain.PaymentGateway
	carts       domain.CartService
	frontendURL string
	logger      *log.Entry
	metrics     *metrics.OrderMetrics
}

// New создаёт рабочий экземпляр сервиса заказов.
func New(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	gateway domain.PaymentGateway,
	carts domain.CartService,
	frontendURL string,
	logger *log.Entry,
) *Service {
	service := newService(orders, outbox, timeline, gateway, carts, frontendURL, logger)
	service.metrics = metrics.NewOrderMetrics()
	return service
}

// NewWithoutMetrics создаёт сервис без метрик (для тестов).
func NewWithoutMetrics(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	gateway domain.PaymentGateway,
	carts domain.CartService,
	frontendURL string,
	logger *log.Entry,
) *Service {
	return newService(orders, outbox, timeline, gateway, carts, frontendURL, logger)
}

func newService(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	gateway domain.PaymentGateway,
	carts domain.CartService,
	frontendURL string,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:      orders,
		outbox:      outbox,
		timeline:    timeline,
		gateway:     gateway,
		carts:       carts,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// BuildCheckoutLines переводит позиции заказа в прайс-лист платёжного шлюза
// и добавляет строку доставки. Всегда возвращает len(items)+1 строк.
func BuildCheckoutLines(items []domain.OrderItem) []domain.CheckoutLine {
	lines := make([]domain.CheckoutLine, 0, len(items)+1)
	for _, item := range items {
		lines = append(lines, domain.CheckoutLine{
			Name:            item.Name,
			UnitAmountMinor: item.Price * unitAmountFactor,
			Qty:             item.Qty,
			Currency:        Currency,
		})
	}
	lines = append(lines, domain.CheckoutLine{
		Name:            deliveryLineName,
		UnitAmountMinor: deliveryLinePrice * unitAmountFactor,
		Qty:             1,
		Currency:        Currency,
	})
	return lines
}

// Place сохраняет заказ, очищает корзину и открывает платёжную сессию.
//
// Заказ сохраняется до обращения к шлюзу: если сессию открыть не удалось,
// запись остаётся неоплаченной, а воркер сверки позже добивает её.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (PlaceResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration("place", time.Since(start))
	}()

	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Items:     req.Items,
		Amount:    req.Amount,
		Address:   req.Address,
		Status:    domain.OrderStatusProcessing,
		Paid:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
		if order.Items[i].CreatedAt.IsZero() {
			order.Items[i].CreatedAt = now
		}
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.metrics.RecordPlaceFailure("validate")
		return PlaceResult{}, errors.Join(errs...)
	}

	// Сумма списания принимается как есть; расхождение с позициями
	// только логируется.
	if total := order.ItemsTotal(); total != order.Amount {
		s.logger.WithFields(log.Fields{
			"order_id":    order.ID,
			"amount":      order.Amount,
			"items_total": total,
		}).Warn("declared amount does not match items total")
	}

	if err := s.orders.Create(order); err != nil {
		s.metrics.RecordPlaceFailure("persist")
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order")
		return PlaceResult{}, fmt.Errorf("failed to persist order: %w", err)
	}
	s.metrics.RecordOrderPlaced()
	s.emitEvent(&order, string(kafka.EventTypeOrderPlaced), map[string]interface{}{
		"owner_id": order.OwnerID,
		"amount":   order.Amount,
	})

	// Очистка корзины best-effort: её сбой не отменяет оформление.
	if err := s.carts.Clear(ctx, order.OwnerID); err != nil {
		s.metrics.RecordCartClearFailure()
		s.logger.WithError(err).WithField("owner_id", order.OwnerID).Warn("cart clear failed")
	}

	successURL := fmt.Sprintf("%s/verify?success=true&orderId=%s", s.frontendURL, order.ID)
	cancelURL := fmt.Sprintf("%s/verify?success=false&orderId=%s", s.frontendURL, order.ID)

	session, err := s.gateway.CreateSession(ctx, BuildCheckoutLines(order.Items), successURL, cancelURL)
	if err != nil {
		s.metrics.RecordPlaceFailure("gateway")
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to create checkout session")
		// Заказ остаётся осиротевшим; воркер сверки удалит его позже.
		s.emitEvent(&order, string(kafka.EventTypeOrderPaymentFailed), map[string]interface{}{
			"reason": err.Error(),
		})
		return PlaceResult{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	order.CheckoutSessionID = session.ID
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Save(order); err != nil {
		// Потеря ID сессии не фатальна для клиента, но сверка по такому
		// заказу будет невозможна.
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to store checkout session id")
	} else {
		order.Version++
	}

	return PlaceResult{Order: order, RedirectURL: session.RedirectURL}, nil
}

// Verify завершает платёжный поток по исходу, заявленному клиентом.
//
// Заявленный успех принимается только после подтверждения шлюзом.
// Неуспех удаляет заказ целиком.
func (s *Service) Verify(ctx context.Context, orderID string, succeeded bool) (VerifyResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration("verify", time.Since(start))
	}()

	if orderID == "" {
		return VerifyResult{}, domain.ErrOrderIDRequired
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			s.metrics.RecordVerifyNotFound()
			return VerifyResult{Outcome: VerifyOutcomeNotFound}, nil
		}
		return VerifyResult{}, fmt.Errorf("failed to load order: %w", err)
	}

	if succeeded {
		return s.verifySuccess(ctx, order)
	}
	return s.verifyFailure(order)
}

func (s *Service) verifySuccess(ctx context.Context, order domain.Order) (VerifyResult, error) {
	// Повторная сверка уже оплаченного заказа идемпотентна.
	if order.Paid {
		return VerifyResult{Outcome: VerifyOutcomePaid, Order: order}, nil
	}

	if order.CheckoutSessionID == "" {
		s.logger.WithField("order_id", order.ID).Warn("verify success without checkout session")
		return VerifyResult{}, domain.ErrPaymentUnconfirmed
	}

	confirmed, err := s.gateway.ConfirmSession(ctx, order.CheckoutSessionID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to confirm session")
		return VerifyResult{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if !confirmed {
		s.logger.WithFields(log.Fields{
			"order_id":   order.ID,
			"session_id": order.CheckoutSessionID,
		}).Warn("claimed success rejected by gateway")
		return VerifyResult{}, domain.ErrPaymentUnconfirmed
	}

	order.Paid = true
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Save(order); err != nil {
		if domain.IsVersionConflict(err) {
			fresh, loadErr := s.orders.Get(order.ID)
			if loadErr != nil {
				if errors.Is(loadErr, domain.ErrOrderNotFound) {
					return VerifyResult{Outcome: VerifyOutcomeNotFound}, nil
				}
				return VerifyResult{}, fmt.Errorf("failed to reload order after conflict: %w", loadErr)
			}
			if fresh.Paid {
				return VerifyResult{Outcome: VerifyOutcomePaid, Order: fresh}, nil
			}
			fresh.Paid = true
			fresh.UpdatedAt = time.Now().UTC()
			if err := s.orders.Save(fresh); err != nil {
				return VerifyResult{}, fmt.Errorf("failed to mark order paid: %w", err)
			}
			order = fresh
		} else if errors.Is(err, domain.ErrOrderNotFound) {
			// Заказ удалён конкурентной неуспешной сверкой.
			return VerifyResult{Outcome: VerifyOutcomeNotFound}, nil
		} else {
			return VerifyResult{}, fmt.Errorf("failed to mark order paid: %w", err)
		}
	}
	order.Version++

	s.metrics.RecordOrderPaid()
	s.emitEvent(&order, string(kafka.EventTypeOrderPaymentConfirmed), map[string]interface{}{
		"session_id": order.CheckoutSessionID,
	})

	return VerifyResult{Outcome: VerifyOutcomePaid, Order: order}, nil
}

func (s *Service) verifyFailure(order domain.Order) (VerifyResult, error) {
	if err := s.orders.Delete(order.ID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return VerifyResult{Outcome: VerifyOutcomeNotFound}, nil
		}
		return VerifyResult{}, fmt.Errorf("failed to delete order: %w", err)
	}

	s.metrics.RecordOrderAbandoned()
	s.emitEvent(&order, string(kafka.EventTypeOrderAbandoned), map[string]interface{}{
		"reason": "payment not completed",
	})

	return VerifyResult{Outcome: VerifyOutcomeDeleted, Order: order}, nil
}

// ListByOwner возвращает заказы покупателя, новые первыми.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Order, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	orders, err := s.orders.ListByOwner(ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Timeline возвращает события жизненного цикла заказа.
func (s *Service) Timeline(orderID string) ([]domain.TimelineEvent, error) {
	if s.timeline == nil {
		return nil, nil
	}
	return s.timeline.List(orderID)
}

func (s *Service) emitEvent(order *domain.Order, eventType string, payload map[string]interface{}) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["order_id"] = order.ID
	payload["ts"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	if s.outbox != nil {
		msg := domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   order.ID,
			EventType:     eventType,
			Payload:       data,
		}
		if _, err := s.outbox.Enqueue(msg); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    eventType,
			}).Error("enqueue event failed")
		}
	}

	if s.timeline != nil {
		var reason string
		if r, ok := payload["reason"].(string); ok {
			reason = r
		}
		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     eventType,
			Reason:   reason,
			Occurred: time.Now().UTC(),
		}
		if err := s.timeline.Append(event); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    eventType,
			}).Warn("append timeline event failed")
		}
	}
}
