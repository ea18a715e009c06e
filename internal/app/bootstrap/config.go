// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for KoloCollect.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, queue_backend, etc.
//   - Environment variables: KOLOCOLLECT_MONGO_URI, KOLOCOLLECT_QUEUE_BACKEND, etc.
//   - Command-line flags: --mongo_uri, --queue_backend, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kolocollect", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Payout job queue
	{Name: "queue_backend", Default: "mongo", Desc: "Job queue backend: 'mongo' (durable) or 'memory' (single process)"},
	{Name: "queue_workers", Default: 4, Desc: "Worker goroutines for the memory queue backend"},
	{Name: "queue_buffer", Default: 256, Desc: "Channel buffer size for the memory queue backend"},
	{Name: "queue_poll_interval", Default: "2s", Desc: "Claim poll interval for the mongo queue backend"},
	{Name: "queue_max_attempts", Default: 5, Desc: "Delivery attempts before a job is marked dead"},
	{Name: "queue_backoff", Default: "30s", Desc: "Base requeue backoff, scaled by attempt count"},

	// Payout scheduler
	{Name: "scheduler_interval", Default: "30s", Desc: "How often to scan for due payouts"},
	{Name: "scheduler_batch_size", Default: 100, Desc: "Max communities enqueued per scan"},

	// Readiness report cache
	{Name: "cache_ttl", Default: "10s", Desc: "Readiness report cache TTL"},
	{Name: "cache_max_entries", Default: 10000, Desc: "Readiness report cache max entries"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, KOLOCOLLECT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "KOLOCOLLECT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		QueueBackend:      appValues.String("queue_backend"),
		QueueWorkers:      appValues.Int("queue_workers"),
		QueueBuffer:       appValues.Int("queue_buffer"),
		QueuePollInterval: appValues.Duration("queue_poll_interval", 2*time.Second),
		QueueMaxAttempts:  appValues.Int("queue_max_attempts"),
		QueueBackoff:      appValues.Duration("queue_backoff", 30*time.Second),

		SchedulerInterval:  appValues.Duration("scheduler_interval", 30*time.Second),
		SchedulerBatchSize: int64(appValues.Int("scheduler_batch_size")),

		CacheTTL:        appValues.Duration("cache_ttl", 10*time.Second),
		CacheMaxEntries: appValues.Int("cache_max_entries"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format is checked early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.QueueBackend {
	case "mongo", "memory":
	default:
		return fmt.Errorf("queue_backend must be 'mongo' or 'memory', got %q", appCfg.QueueBackend)
	}
	if appCfg.QueueWorkers < 1 {
		return fmt.Errorf("queue_workers must be at least 1, got %d", appCfg.QueueWorkers)
	}
	if appCfg.QueueMaxAttempts < 1 {
		return fmt.Errorf("queue_max_attempts must be at least 1, got %d", appCfg.QueueMaxAttempts)
	}
	if appCfg.SchedulerBatchSize < 1 {
		return fmt.Errorf("scheduler_batch_size must be at least 1, got %d", appCfg.SchedulerBatchSize)
	}

	return nil
}
