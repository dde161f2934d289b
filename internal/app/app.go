package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/auth"
	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/service/httpapi"
	"github.com/vladislavdragonenkov/checkout/internal/service/idempotency"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
	"github.com/vladislavdragonenkov/checkout/internal/service/outbox"
	"github.com/vladislavdragonenkov/checkout/internal/service/reconcile"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

// Драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Режимы платёжного шлюза.
const (
	PaymentModeMock   = "mock"
	PaymentModeStripe = "stripe"
)

const devAuthSecret = "dev-secret"

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers string

	FrontendURL    string
	AuthSecret     string
	PaymentMode    string
	StripeAPIKey   string
	CartServiceURL string
}

// DefaultConfig возвращает конфигурацию для локального запуска:
// in-memory хранилище, mock-шлюз, без Kafka.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		FrontendURL:         "http://localhost:5173",
		PaymentMode:         PaymentModeMock,
	}
}

// FromEnv строит конфигурацию из переменных окружения поверх дефолтов.
// Наличие CHECKOUT_DB_DSN переключает хранилище на PostgreSQL.
func FromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("CHECKOUT_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CHECKOUT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("CHECKOUT_DB_DSN"); v != "" {
		cfg.StorageDriver = StorageDriverPostgres
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("CHECKOUT_FRONTEND_URL"); v != "" {
		cfg.FrontendURL = v
	}
	if v := os.Getenv("CHECKOUT_AUTH_SECRET"); v != "" {
		cfg.AuthSecret = v
	}
	if v := os.Getenv("CHECKOUT_PAYMENT_MODE"); v != "" {
		cfg.PaymentMode = v
	}
	if v := os.Getenv("STRIPE_API_KEY"); v != "" {
		cfg.StripeAPIKey = v
	}
	if v := os.Getenv("CHECKOUT_CART_URL"); v != "" {
		cfg.CartServiceURL = v
	}

	return cfg
}

// Run собирает зависимости и держит сервис до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if deps.closeFn != nil {
			if closeErr := deps.closeFn(); closeErr != nil {
				logger.WithError(closeErr).Warn("failed to close storage")
			}
		}
	}()

	kafkaProducer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		// Без Kafka outbox копится в хранилище до следующего запуска.
		logger.Warn("continuing without kafka, outbox publishing is disabled")
	}
	defer closeKafka(kafkaProducer, logger)

	secret := cfg.AuthSecret
	if secret == "" {
		logger.Warn("CHECKOUT_AUTH_SECRET is not set, using insecure development secret")
		secret = devAuthSecret
	}
	identity := auth.NewTokenResolver(secret)

	orderService := order.New(
		deps.orders,
		deps.outbox,
		deps.timeline,
		deps.gateway,
		deps.carts,
		cfg.FrontendURL,
		logger.WithField("layer", "order"),
	)

	apiServer := httpapi.NewServer(
		orderService,
		identity,
		deps.idempotency,
		logger.WithField("layer", "http"),
	)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	var workers sync.WaitGroup

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		outboxWorker := outbox.NewWorker(
			deps.outbox,
			publisher,
			outbox.WithLogger(logger.WithField("worker", "outbox")),
			outbox.WithDLQPublisher(dlqPublisher),
		)
		workers.Add(1)
		go func() {
			defer workers.Done()
			outboxWorker.Run(ctx)
		}()
	}

	reconcileWorker := reconcile.NewWorker(
		deps.orders,
		deps.gateway,
		deps.outbox,
		deps.timeline,
		reconcile.WithLogger(logger.WithField("worker", "reconcile")),
	)
	workers.Add(1)
	go func() {
		defer workers.Done()
		reconcileWorker.Run(ctx)
	}()

	cleanupWorker := idempotency.NewCleanupWorker(
		deps.idempotency,
		idempotency.WithLogger(logger.WithField("worker", "idempotency-cleanup")),
	)
	workers.Add(1)
	go func() {
		defer workers.Done()
		cleanupWorker.Run(ctx)
	}()

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http addr %s: %w", cfg.HTTPAddr, err)
	}

	apiSrv := &http.Server{Handler: apiServer.Routes()}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", lis.Addr())
		errCh <- apiSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		workers.Wait()
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		workers.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчики /metrics и health-проб.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
