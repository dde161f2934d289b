package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewOrderMetrics(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newOrderMetricsWithRegisterer should not return nil")
	}
	if metrics.ordersPlaced == nil {
		t.Error("ordersPlaced counter should not be nil")
	}
	if metrics.ordersPaid == nil {
		t.Error("ordersPaid counter should not be nil")
	}
	if metrics.ordersAbandoned == nil {
		t.Error("ordersAbandoned counter should not be nil")
	}
	if metrics.placeFailures == nil {
		t.Error("placeFailures counter vec should not be nil")
	}
	if metrics.operationDuration == nil {
		t.Error("operationDuration histogram vec should not be nil")
	}
}

func TestNewOrderMetrics_ReRegister(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(reg)
	second := newOrderMetricsWithRegisterer(reg)

	// Повторная регистрация должна переиспользовать существующие коллекторы.
	first.RecordOrderPlaced()
	second.RecordOrderPlaced()

	metric := &dto.Metric{}
	if err := first.ordersPlaced.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordTransitions(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOrderPaid()
	metrics.RecordOrderPaid()
	metrics.RecordOrderAbandoned()
	metrics.RecordVerifyNotFound()
	metrics.RecordCartClearFailure()
	metrics.RecordPlaceFailure("gateway")
	metrics.RecordOperationDuration("place", 25*time.Millisecond)

	metric := &dto.Metric{}
	if err := metrics.ordersPaid.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected ordersPaid 2.0, got %f", metric.Counter.GetValue())
	}

	metric = &dto.Metric{}
	if err := metrics.placeFailures.WithLabelValues("gateway").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected gateway failures 1.0, got %f", metric.Counter.GetValue())
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *OrderMetrics

	// Отключённые метрики не должны приводить к панике.
	metrics.RecordOrderPlaced()
	metrics.RecordOrderPaid()
	metrics.RecordOrderAbandoned()
	metrics.RecordPlaceFailure("persist")
	metrics.RecordVerifyNotFound()
	metrics.RecordCartClearFailure()
	metrics.RecordOperationDuration("verify", time.Millisecond)
}
