package app

import (
	"context"
	"os"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/service/cart"
	"github.com/vladislavdragonenkov/checkout/internal/service/payment"
)

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "deps"))
	if err != nil {
		t.Fatalf("init memory dependencies: %v", err)
	}

	if deps.orders == nil || deps.outbox == nil || deps.timeline == nil || deps.idempotency == nil {
		t.Fatalf("memory dependencies must be initialized: %+v", deps)
	}
	if _, ok := deps.gateway.(*payment.MockGateway); !ok {
		t.Fatalf("expected mock gateway, got %T", deps.gateway)
	}
	if _, ok := deps.carts.(*cart.MockService); !ok {
		t.Fatalf("expected mock cart service, got %T", deps.carts)
	}
	if deps.storageChecker != nil {
		t.Error("memory storage must not register a checker")
	}
	if deps.closeFn != nil {
		t.Error("memory storage must not require close")
	}
}

func TestInitRuntimeDependencies_InvalidDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "invalid-driver"

	_, err := initRuntimeDependencies(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported storage driver") {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestInitRuntimeDependencies_RemoteCart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CartServiceURL = "http://cart.internal"

	deps, err := initRuntimeDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("init dependencies: %v", err)
	}
	if _, ok := deps.carts.(*cart.HTTPClient); !ok {
		t.Fatalf("expected http cart client, got %T", deps.carts)
	}
}

func TestInitPaymentGateway(t *testing.T) {
	logger := log.WithField("test", "gateway")

	stripeCfg := DefaultConfig()
	stripeCfg.PaymentMode = PaymentModeStripe
	stripeCfg.StripeAPIKey = "sk_test_123"

	gateway, err := initPaymentGateway(stripeCfg, logger)
	if err != nil {
		t.Fatalf("init stripe gateway: %v", err)
	}
	if _, ok := gateway.(*payment.StripeGateway); !ok {
		t.Fatalf("expected stripe gateway, got %T", gateway)
	}

	missingKey := DefaultConfig()
	missingKey.PaymentMode = PaymentModeStripe
	if _, err := initPaymentGateway(missingKey, logger); err == nil {
		t.Fatal("expected error for stripe mode without api key")
	}

	invalid := DefaultConfig()
	invalid.PaymentMode = "invalid-mode"
	if _, err := initPaymentGateway(invalid, logger); err == nil {
		t.Fatal("expected error for unsupported payment mode")
	}
}

func TestInitRuntimeDependencies_PostgresSuccess(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("CHECKOUT_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("postgres dsn is not available")
	}

	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres
	cfg.PostgresDSN = dsn
	cfg.PostgresAutoMigrate = true

	deps, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "postgres-init"))
	if err != nil {
		t.Skipf("postgres is not available for app integration test: %v", err)
	}
	if deps.closeFn != nil {
		defer func() { _ = deps.closeFn() }()
	}

	if deps.orders == nil || deps.outbox == nil || deps.timeline == nil || deps.idempotency == nil {
		t.Fatalf("postgres dependencies must be initialized: %+v", deps)
	}
	if deps.storageChecker == nil {
		t.Fatal("expected non-nil storage checker for postgres")
	}
	check := deps.storageChecker.Check()
	if check.Status != healthcheck.StatusHealthy {
		t.Fatalf("expected healthy storage checker, got %+v", check)
	}
}
