package app

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected memory storage driver, got %s", cfg.StorageDriver)
	}
	if cfg.PaymentMode != PaymentModeMock {
		t.Errorf("expected mock payment mode, got %s", cfg.PaymentMode)
	}
	if !cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate enabled by default")
	}
	if cfg.FrontendURL == "" {
		t.Error("FrontendURL should not be empty")
	}
}
