package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/service/cart"
	"github.com/vladislavdragonenkov/checkout/internal/service/payment"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

const pingTimeout = 2 * time.Second

// runtimeDependencies содержит собранные зависимости приложения.
type runtimeDependencies struct {
	orders      domain.OrderRepository
	outbox      domain.OutboxRepository
	timeline    domain.TimelineRepository
	idempotency domain.IdempotencyRepository

	gateway domain.PaymentGateway
	carts   domain.CartService

	storageChecker healthcheck.Checker
	closeFn        func() error
}

// initRuntimeDependencies выбирает хранилище, платёжный шлюз и клиент корзины
// согласно конфигурации.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := runtimeDependencies{}

	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		deps.orders = memory.NewOrderRepository()
		deps.outbox = memory.NewOutboxRepository()
		deps.timeline = memory.NewTimelineRepository()
		deps.idempotency = memory.NewIdempotencyRepository()
		logger.Info("using in-memory storage")
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return runtimeDependencies{}, fmt.Errorf("open postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		deps.orders = postgres.NewOrderRepository(store)
		deps.outbox = postgres.NewOutboxRepository(store)
		deps.timeline = postgres.NewTimelineRepository(store)
		deps.idempotency = postgres.NewIdempotencyRepository(store)
		deps.storageChecker = healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			defer cancel()
			return store.Ping(pingCtx)
		})
		deps.closeFn = store.Close
		logger.Info("using postgres storage")
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}

	gateway, err := initPaymentGateway(cfg, logger)
	if err != nil {
		if deps.closeFn != nil {
			_ = deps.closeFn()
		}
		return runtimeDependencies{}, err
	}
	deps.gateway = gateway

	if cfg.CartServiceURL != "" {
		deps.carts = cart.NewHTTPClient(cfg.CartServiceURL)
		logger.WithField("cart_url", cfg.CartServiceURL).Info("using remote cart service")
	} else {
		deps.carts = cart.NewMockService()
		logger.Info("using mock cart service")
	}

	return deps, nil
}

// initPaymentGateway выбирает mock- или Stripe-шлюз по конфигурации.
func initPaymentGateway(cfg Config, logger *log.Entry) (domain.PaymentGateway, error) {
	switch cfg.PaymentMode {
	case PaymentModeMock, "":
		logger.Info("using mock payment gateway")
		return payment.NewMockGateway(), nil
	case PaymentModeStripe:
		if cfg.StripeAPIKey == "" {
			return nil, fmt.Errorf("STRIPE_API_KEY is required for payment mode %q", PaymentModeStripe)
		}
		logger.Info("using stripe payment gateway")
		return payment.NewStripeGateway(cfg.StripeAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported payment mode: %s", cfg.PaymentMode)
	}
}
