package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/api/handler"
	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/core/service"
	"github.com/99minutos/shipment-lifecycle/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/shipment-lifecycle/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/shipment-lifecycle/internal/infrastructure/db/redis"
	"github.com/99minutos/shipment-lifecycle/internal/pkg/config"
)

// storage bundles the adapters selected by STORAGE_DRIVER.
type storage struct {
	shipments ports.ShipmentRepository
	ledger    ports.LedgerRepository
	subs      ports.SubscriptionRepository
	catalog   ports.ServiceTypeRepository
	queue     ports.TaskQueue
	dedup     service.DedupChecker

	readiness map[string]handler.PingFunc
	closers   []func(context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{
			shipments: memory.NewShipmentRepository(store),
			ledger:    memory.NewLedgerRepository(store),
			subs:      memory.NewSubscriptionRepository(store),
			catalog:   memory.NewServiceTypeRepository(store),
			queue:     memory.NewTaskQueue(),
			dedup:     memory.NewDedupChecker(cfg.DedupTTL),
			readiness: map[string]handler.PingFunc{},
		}, nil
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "shipping-api"})
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	return &storage{
		shipments: mongostore.NewShipmentRepository(db),
		ledger:    mongostore.NewLedgerRepository(db),
		subs:      mongostore.NewSubscriptionRepository(db),
		catalog:   mongostore.NewServiceTypeRepository(db),
		queue:     redisstore.NewTaskQueue(rdb),
		dedup:     redisstore.NewDedupChecker(rdb, cfg.DedupTTL),
		readiness: map[string]handler.PingFunc{
			"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return redisstore.Ping(ctx, rdb, 2*time.Second) },
		},
		closers: []func(context.Context) error{
			client.Disconnect,
			func(context.Context) error { return rdb.Close() },
		},
	}, nil
}

// seedCatalog inserts the default service types that are missing. Existing
// entries keep their pricing.
func (s *storage) seedCatalog(ctx context.Context) error {
	for _, st := range domain.DefaultCatalog() {
		_, err := s.catalog.FindByCode(ctx, st.Code)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, domain.ErrServiceTypeNotFound):
			return fmt.Errorf("seed catalog: %w", err)
		}
		if err := s.catalog.Upsert(ctx, st); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}
	return nil
}

func (s *storage) close(log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range s.closers {
		if err := c(ctx); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}
}
