// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/engine"
	communitystore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/communities"
	contributionstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/contributions"
	jobstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/jobs"
	payoutstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/payouts"
	walletstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/wallets"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/cache"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/notify"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/queue"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/tasks"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/txn"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/workers"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
)

// runtime holds the long-lived application services built during Startup,
// consumed by BuildHandler, and torn down in Shutdown. WAFFLE's hook
// signatures carry config and DB deps but not app services, so the
// bootstrap package keeps them here.
type runtimeDeps struct {
	Communities   *communitystore.Store
	Wallets       *walletstore.Store
	Contributions *contributionstore.Store
	Payouts       *payoutstore.Store

	Tx     *txn.Manager
	Engine *engine.Engine

	Queue     queue.Queue
	queueStop func()

	Scheduler *workers.PayoutScheduler
	Tasks     *tasks.Runner
	Cache     *cache.Cache
}

var rt runtimeDeps

// Startup builds the stores, transaction manager, rotation engine, job
// queue, payout scheduler, and background task runner, then starts the
// long-running pieces. Runs after ConnectDB and EnsureSchema, before
// BuildHandler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	rt.Communities = communitystore.New(db)
	rt.Wallets = walletstore.New(db)
	rt.Contributions = contributionstore.New(db)
	rt.Payouts = payoutstore.New(db)

	rt.Tx = txn.New(rt.Wallets, rt.Contributions, rt.Communities, deps.MongoClient, logger)
	rt.Engine = engine.New(rt.Communities, rt.Contributions, rt.Payouts,
		rt.Tx, notify.NewLogNotifier(logger), logger)

	switch appCfg.QueueBackend {
	case "memory":
		mem := queue.NewMemory(logger, appCfg.QueueWorkers, appCfg.QueueBuffer,
			appCfg.QueueMaxAttempts, appCfg.QueueBackoff)
		mem.RegisterProcessor(payoutProcessor(rt.Engine, logger))
		mem.Start()
		rt.Queue = mem
		rt.queueStop = mem.Stop
	default:
		durable := jobstore.New(db, logger, appCfg.QueuePollInterval,
			appCfg.QueueMaxAttempts, appCfg.QueueBackoff)
		durable.RegisterProcessor(payoutProcessor(rt.Engine, logger))
		durable.Start()
		rt.Queue = durable
		rt.queueStop = durable.Stop
	}

	rt.Scheduler = workers.NewPayoutScheduler(rt.Communities, rt.Queue, logger,
		appCfg.SchedulerInterval, appCfg.SchedulerBatchSize)
	rt.Scheduler.Start()

	rt.Tasks = tasks.NewRunner(logger)
	if err := rt.Tasks.Add(tasks.FixedFundMaturationJob(rt.Wallets, logger)); err != nil {
		return err
	}
	rt.Tasks.Start()

	rt.Cache = cache.New(appCfg.CacheTTL, appCfg.CacheMaxEntries)

	logger.Info("rotation services started",
		zap.String("queue_backend", appCfg.QueueBackend),
		zap.Duration("scheduler_interval", appCfg.SchedulerInterval))
	return nil
}

// payoutProcessor is the job queue processor for due payouts. It runs the
// full distribution pipeline: readiness check, backup-fund compensation
// when members are missing, then the payout itself.
//
// A community whose mid-cycle is already finished (or that no longer
// exists) acknowledges the job rather than erroring, so stale jobs drain
// instead of burning retries. A compensation shortfall is returned as an
// error so the queue retries after the backup fund has had time to grow.
func payoutProcessor(eng *engine.Engine, logger *zap.Logger) queue.Processor {
	return func(ctx context.Context, p queue.Payload) error {
		report, err := eng.ValidateMidCycleReadiness(ctx, p.CommunityID)
		if err != nil {
			if faults.HasCode(err, faults.CodeMidCycleNotReady) || faults.HasCode(err, faults.CodeNotFound) {
				logger.Info("payout job skipped: nothing to distribute",
					zap.String("community_id", p.CommunityID.Hex()),
					zap.Error(err))
				return nil
			}
			return err
		}

		if !report.IsReady {
			if err := eng.HandleUnreadyMidCycle(ctx, p.CommunityID); err != nil {
				return err
			}
		}

		result, err := eng.DistributePayouts(ctx, p.CommunityID)
		if err != nil {
			return err
		}
		if result.AlreadyComplete {
			logger.Info("payout job skipped: mid-cycle already complete",
				zap.String("community_id", p.CommunityID.Hex()))
		}
		return nil
	}
}
