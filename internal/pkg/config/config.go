package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	// StorageDriver selects mongo (with Redis for the queue) or an in-process memory store.
	StorageDriver string `env:"STORAGE_DRIVER, default=mongo"`

	RateMaxWeightKg float64       `env:"RATE_MAX_WEIGHT_KG, default=1000"`
	IngestWorkers   int           `env:"INGEST_WORKERS,     default=8"`
	DedupTTL        time.Duration `env:"DEDUP_TTL,          default=24h"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Webhook WebhookConfig
	Jobs    JobsConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=shipping_system"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE"`
}

// KafkaConfig enables the transition stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers          []string `env:"KAFKA_BROKERS"`
	TransitionsTopic string   `env:"KAFKA_TRANSITIONS_TOPIC, default=shipment.transitions"`
}

type WebhookConfig struct {
	Timeout              time.Duration `env:"WEBHOOK_TIMEOUT,                default=10s"`
	MaxAttempts          int           `env:"WEBHOOK_MAX_ATTEMPTS,           default=6"`
	Concurrency          int           `env:"WEBHOOK_CONCURRENCY,            default=32"`
	PerSubscriptionLimit int           `env:"WEBHOOK_PER_SUBSCRIPTION_LIMIT, default=4"`
	BatchSize            int           `env:"WEBHOOK_BATCH_SIZE,             default=100"`
	PollInterval         time.Duration `env:"WEBHOOK_POLL_INTERVAL,          default=1s"`
	Lease                time.Duration `env:"WEBHOOK_LEASE,                  default=60s"`
	ShutdownGrace        time.Duration `env:"WEBHOOK_SHUTDOWN_GRACE,         default=15s"`
}

type JobsConfig struct {
	RelaySchedule string `env:"RELAY_SCHEDULE,       default=*/5 * * * * *"`
	RelayBatch    int    `env:"RELAY_BATCH,          default=100"`
	DepthSchedule string `env:"QUEUE_DEPTH_SCHEDULE, default=*/15 * * * * *"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.RateMaxWeightKg <= 0 {
		return fmt.Errorf("config: RATE_MAX_WEIGHT_KG must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := Process(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Process reads and validates configuration from l.
func Process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
