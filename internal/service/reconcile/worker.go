package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	defaultSweepInterval = 1 * time.Minute
	defaultMaxAge        = 30 * time.Minute
	defaultBatchSize     = 100
)

var sweepResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "checkout_reconcile_results_total",
	Help: "Total number of reconciled unpaid orders grouped by result.",
}, []string{"result"})

// WorkerOptions задаёт параметры воркера сверки.
type WorkerOptions struct {
	Logger        *log.Entry
	SweepInterval time.Duration
	MaxAge        time.Duration
	BatchSize     int
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithSweepInterval задаёт частоту обхода неоплаченных заказов.
func WithSweepInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.SweepInterval = interval
	}
}

// WithMaxAge задаёт возраст, после которого неоплаченный заказ сверяется.
func WithMaxAge(maxAge time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.MaxAge = maxAge
	}
}

// WithBatchSize задаёт размер выборки за один обход.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// Worker добивает осиротевшие неоплаченные заказы: сверяет исход сессии
// со шлюзом и либо помечает заказ оплаченным, либо удаляет его.
//
// Сюда попадают заказы, для которых redirect до Verify так и не дошёл,
// и заказы, оставшиеся без платёжной сессии после сбоя шлюза.
type Worker struct {
	orders        domain.OrderRepository
	gateway       domain.PaymentGateway
	outbox        domain.OutboxRepository
	timeline      domain.TimelineRepository
	logger        *log.Entry
	sweepInterval time.Duration
	maxAge        time.Duration
	batchSize     int
}

// NewWorker создаёт воркер сверки.
func NewWorker(
	orders domain.OrderRepository,
	gateway domain.PaymentGateway,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	options ...Option,
) *Worker {
	opts := WorkerOptions{
		SweepInterval: defaultSweepInterval,
		MaxAge:        defaultMaxAge,
		BatchSize:     defaultBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reconcile-worker")
	}

	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	return &Worker{
		orders:        orders,
		gateway:       gateway,
		outbox:        outbox,
		timeline:      timeline,
		logger:        logger,
		sweepInterval: opts.SweepInterval,
		maxAge:        opts.MaxAge,
		batchSize:     opts.BatchSize,
	}
}

// Run запускает периодическую сверку до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.orders == nil || w.gateway == nil {
		w.logger.Warn("reconcile worker is disabled: orders or gateway is nil")
		return
	}

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce выполняет один обход неоплаченных заказов.
func (w *Worker) SweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.maxAge)
	orders, err := w.orders.ListUnpaidBefore(cutoff, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to list unpaid orders")
		return
	}

	for _, order := range orders {
		if ctx.Err() != nil {
			return
		}
		w.reconcile(ctx, order)
	}
}

func (w *Worker) reconcile(ctx context.Context, order domain.Order) {
	logger := w.logger.WithField("order_id", order.ID)

	// Заказ без платёжной сессии оплачен быть не может.
	if order.CheckoutSessionID == "" {
		w.abandon(order, "no checkout session")
		return
	}

	confirmed, err := w.gateway.ConfirmSession(ctx, order.CheckoutSessionID)
	if err != nil {
		logger.WithError(err).Warn("gateway lookup failed, will retry on next sweep")
		sweepResults.WithLabelValues("gateway_error").Inc()
		return
	}

	if !confirmed {
		w.abandon(order, "payment not completed before deadline")
		return
	}

	order.Paid = true
	order.UpdatedAt = time.Now().UTC()
	if err := w.orders.Save(order); err != nil {
		// Конфликт или конкурентное удаление разрешится на следующем обходе.
		logger.WithError(err).Warn("failed to mark reconciled order paid")
		sweepResults.WithLabelValues("save_error").Inc()
		return
	}

	logger.Info("unpaid order reconciled as paid")
	sweepResults.WithLabelValues("paid").Inc()
	w.emitEvent(order, "order.reconciled", "confirmed by gateway after deadline")
}

func (w *Worker) abandon(order domain.Order, reason string) {
	logger := w.logger.WithField("order_id", order.ID)

	if err := w.orders.Delete(order.ID); err != nil {
		logger.WithError(err).Warn("failed to delete abandoned order")
		sweepResults.WithLabelValues("delete_error").Inc()
		return
	}

	logger.WithField("reason", reason).Info("abandoned order deleted")
	sweepResults.WithLabelValues("abandoned").Inc()
	w.emitEvent(order, "order.abandoned", reason)
}

func (w *Worker) emitEvent(order domain.Order, eventType, reason string) {
	now := time.Now().UTC()

	if w.outbox != nil {
		payload, err := json.Marshal(map[string]interface{}{
			"order_id": order.ID,
			"reason":   reason,
			"ts":       now.Format(time.RFC3339Nano),
		})
		if err == nil {
			msg := domain.OutboxMessage{
				AggregateType: "order",
				AggregateID:   order.ID,
				EventType:     eventType,
				Payload:       payload,
			}
			if _, err := w.outbox.Enqueue(msg); err != nil {
				w.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue event failed")
			}
		}
	}

	if w.timeline != nil {
		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     eventType,
			Reason:   reason,
			Occurred: now,
		}
		if err := w.timeline.Append(event); err != nil {
			w.logger.WithError(err).WithField("order_id", order.ID).Warn("append timeline event failed")
		}
	}
}
