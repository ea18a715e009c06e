// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background services in reverse dependency order and
// tears down the MongoDB connection. The scheduler stops first so no new
// jobs are enqueued while the queue drains its in-flight work.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt.Scheduler != nil {
		rt.Scheduler.Stop()
	}
	if rt.Tasks != nil {
		rt.Tasks.Stop()
	}
	if rt.queueStop != nil {
		rt.queueStop()
	}
	if rt.Cache != nil {
		rt.Cache.Stop()
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
