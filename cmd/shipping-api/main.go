// Command shipping-api serves the shipment lifecycle HTTP API and runs the
// webhook dispatcher, the carrier event workers and the scheduled jobs.
//
// @title                       Shipment Lifecycle API
// @version                     1.0
// @description                 Shipment state machine, tracking ledger, rates and webhook notifications.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/99minutos/shipment-lifecycle/docs"
	"github.com/99minutos/shipment-lifecycle/internal/api"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/core/service"
	"github.com/99minutos/shipment-lifecycle/internal/infrastructure/broker/kafka"
	"github.com/99minutos/shipment-lifecycle/internal/infrastructure/queue"
	"github.com/99minutos/shipment-lifecycle/internal/infrastructure/webhook"
	"github.com/99minutos/shipment-lifecycle/internal/jobs"
	"github.com/99minutos/shipment-lifecycle/internal/pkg/config"
	"github.com/99minutos/shipment-lifecycle/pkg/logger"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "shipping-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("shipping-api stopped")
	}
	log.Info().Msg("shipping-api stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close(log)

	if err := store.seedCatalog(ctx); err != nil {
		return err
	}

	// --- Transition stream (optional) ---
	var stream ports.TransitionStream
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TransitionsTopic)
		defer func() {
			if err := producer.Close(); err != nil {
				log.Warn().Err(err).Msg("closing kafka producer")
			}
		}()
		stream = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.TransitionsTopic).Msg("transition stream enabled")
	}

	// --- Webhook delivery ---
	planner := queue.NewRetryPlanner(queue.RetryPlannerConfig{MaxAttempts: cfg.Webhook.MaxAttempts}, nil)
	sender := webhook.NewSender(&http.Client{}, cfg.Webhook.Timeout)
	webhooks := queue.NewWebhookDispatcher(store.queue, store.subs, sender, planner, queue.WebhookDispatcherConfig{
		PollInterval:         cfg.Webhook.PollInterval,
		BatchSize:            cfg.Webhook.BatchSize,
		Concurrency:          cfg.Webhook.Concurrency,
		PerSubscriptionLimit: cfg.Webhook.PerSubscriptionLimit,
		Lease:                cfg.Webhook.Lease,
		ShutdownGrace:        cfg.Webhook.ShutdownGrace,
	}, logger.Component("webhook_dispatcher"))

	// --- Services ---
	engine := service.NewRateEngine(cfg.RateMaxWeightKg)
	bus := service.NewEventBus(store.subs, store.ledger, store.queue, stream, webhooks, logger.Component("event_bus"))
	lifecycle := service.NewLifecycleService(store.shipments, store.ledger, bus, logger.Component("lifecycle"))
	shipments := service.NewShipmentService(store.shipments, store.catalog, lifecycle, engine, logger.Component("shipments"))
	events := service.NewEventService(store.shipments, lifecycle, store.dedup, logger.Component("carrier_events"))

	ingest := queue.NewDispatcher(cfg.IngestWorkers, events, logger.Component("ingest"))

	jobManager := jobs.NewJobManager(lifecycle, store.queue, jobs.Config{
		RelaySchedule: cfg.Jobs.RelaySchedule,
		RelayBatch:    cfg.Jobs.RelayBatch,
		DepthSchedule: cfg.Jobs.DepthSchedule,
	}, logger.Component("jobs"))

	e := api.NewRouter(api.Deps{
		Log:        logger.Component("http"),
		JWTSecret:  cfg.JWTSecret,
		Shipments:  shipments,
		Rates:      service.NewRateService(store.catalog, engine),
		Events:     events,
		Dispatcher: ingest,
		Webhooks:   service.NewWebhookService(store.subs, store.queue, logger.Component("webhooks")),
		Lifecycle:  lifecycle,
		Readiness:  store.readiness,
	})

	// --- Background workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	ingest.Start(workerCtx)
	dispatcherDone := make(chan error, 1)
	go func() { dispatcherDone <- webhooks.Run(workerCtx) }()

	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	// --- HTTP server ---
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	// Workers stop after the server so no new batches arrive while they wind down.
	cancelWorkers()
	ingest.Wait()
	if err := <-dispatcherDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("webhook dispatcher stopped with error")
	}
	return nil
}
