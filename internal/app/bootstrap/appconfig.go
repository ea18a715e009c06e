// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging level, and request limits. AppConfig is everything
// specific to the rotation engine: the database, the payout job queue,
// the scheduler cadence, and the readiness cache.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Payout job queue configuration
	QueueBackend      string        // "mongo" (durable, multi-instance) or "memory" (single process)
	QueueWorkers      int           // Worker goroutines for the memory backend
	QueueBuffer       int           // Channel buffer for the memory backend
	QueuePollInterval time.Duration // Claim poll interval for the mongo backend
	QueueMaxAttempts  int           // Delivery attempts before a job is marked dead
	QueueBackoff      time.Duration // Base requeue backoff, scaled by attempt count

	// Payout scheduler configuration
	SchedulerInterval  time.Duration // How often to scan for due payouts
	SchedulerBatchSize int64         // Max communities enqueued per scan

	// Readiness report cache
	CacheTTL        time.Duration // How long a readiness report stays fresh
	CacheMaxEntries int           // Bounded entry count
}
