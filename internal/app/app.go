package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/acme/orders/internal/health"
	"github.com/acme/orders/internal/messaging/kafka"
	"github.com/acme/orders/internal/service/lifecycle"
	"github.com/acme/orders/internal/service/reconcile"
	"github.com/acme/orders/internal/storage/postgres"
	"github.com/acme/orders/internal/transport/httpapi"
	"github.com/acme/orders/internal/version"
)

// Run собирает зависимости и запускает сервис до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	deps := NewDependencies(logger)

	healthHandler := healthcheck.NewHandler(version.String())

	// PostgreSQL подключается только при заданном DSN; иначе остаётся
	// in-memory хранилище для локальной разработки.
	var store *postgres.Store
	if cfg.DatabaseDSN != "" {
		var err error
		store, err = postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Journal = postgres.NewReconciliationJournal(store)
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			return store.Ping(context.Background())
		}))
		logger.Info("postgres storage initialized")
	}

	// Kafka producer опционален: без брокеров события не публикуются.
	var kafkaProducer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	var lifecycleSvc lifecycle.Service
	if kafkaProducer != nil {
		lifecycleSvc = lifecycle.NewServiceWithKafka(
			deps.Orders, deps.Customers, deps.Catalogue, deps.Payments, deps.Journal,
			kafkaProducer, logger.WithField("layer", "lifecycle"),
		)
	} else {
		lifecycleSvc = lifecycle.NewService(
			deps.Orders, deps.Customers, deps.Catalogue, deps.Payments, deps.Journal,
			logger.WithField("layer", "lifecycle"),
		)
	}

	reconcileWorker := reconcile.NewWorker(deps.Journal,
		reconcile.WithLogger(logger.WithField("layer", "reconcile")),
		reconcile.WithProducer(kafkaProducer),
	)
	go reconcileWorker.Run(ctx)

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiMux := http.NewServeMux()
	httpapi.NewHandler(lifecycleSvc, logger.WithField("layer", "httpapi")).Register(apiMux)
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: apiMux}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeProducer(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeProducer(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
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

func closeProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
