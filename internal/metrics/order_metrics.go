package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Счётчики переходов
	ordersPlaced    prometheus.Counter
	ordersPaid      prometheus.Counter
	ordersAbandoned prometheus.Counter

	// Счётчики сбоев по этапам
	placeFailures  *prometheus.CounterVec
	verifyNotFound prometheus.Counter
	cartClearFails prometheus.Counter

	// Гистограмма времени выполнения операций
	operationDuration *prometheus.HistogramVec
}

// NewOrderMetrics создаёт метрики в default-регистраторе.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_placed_total",
			Help: "Total number of orders persisted by Place",
		}),
		ordersPaid: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_paid_total",
			Help: "Total number of orders marked paid",
		}),
		ordersAbandoned: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_abandoned_total",
			Help: "Total number of orders deleted after an unsuccessful payment",
		}),
		placeFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_place_failures_total",
			Help: "Total number of failed Place calls grouped by stage",
		}, []string{"stage"}),
		verifyNotFound: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_verify_not_found_total",
			Help: "Total number of Verify calls referencing a missing order",
		}),
		cartClearFails: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_cart_clear_failures_total",
			Help: "Total number of best-effort cart clears that failed",
		}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "checkout_operation_duration_seconds",
			Help:    "Duration of order lifecycle operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// RecordOrderPlaced фиксирует успешно сохранённый заказ.
func (m *OrderMetrics) RecordOrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// RecordOrderPaid фиксирует переход paid=false → true.
func (m *OrderMetrics) RecordOrderPaid() {
	if m == nil {
		return
	}
	m.ordersPaid.Inc()
}

// RecordOrderAbandoned фиксирует удаление заказа после неуспешной оплаты.
func (m *OrderMetrics) RecordOrderAbandoned() {
	if m == nil {
		return
	}
	m.ordersAbandoned.Inc()
}

// RecordPlaceFailure фиксирует сбой Place на конкретном этапе
// (validate, persist, gateway).
func (m *OrderMetrics) RecordPlaceFailure(stage string) {
	if m == nil {
		return
	}
	m.placeFailures.WithLabelValues(stage).Inc()
}

// RecordVerifyNotFound фиксирует Verify по несуществующему заказу.
func (m *OrderMetrics) RecordVerifyNotFound() {
	if m == nil {
		return
	}
	m.verifyNotFound.Inc()
}

// RecordCartClearFailure фиксирует неуспешную best-effort очистку корзины.
func (m *OrderMetrics) RecordCartClearFailure() {
	if m == nil {
		return
	}
	m.cartClearFails.Inc()
}

// RecordOperationDuration фиксирует длительность операции.
func (m *OrderMetrics) RecordOperationDuration(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
