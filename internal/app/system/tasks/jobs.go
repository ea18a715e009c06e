// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	walletstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/wallets"
)

// maturationBatch caps how many wallets one maturation run touches.
const maturationBatch = 200

// FixedFundMaturationJob creates a job that releases fixed funds whose
// end date has passed back to the available balance. CAS conflicts on
// individual wallets are logged and retried on the next run.
func FixedFundMaturationJob(wallets *walletstore.Store, logger *zap.Logger) Job {
	return Job{
		Name: "fixed-fund-maturation",
		Spec: "@every 1h",
		Run: func(ctx context.Context) error {
			now := time.Now().UTC()
			due, err := wallets.FindWithMaturedFunds(ctx, now, maturationBatch)
			if err != nil {
				return err
			}

			released := 0
			for _, w := range due {
				if n := w.MatureFixedFunds(now); n == 0 {
					continue
				}
				if _, err := wallets.Save(ctx, w); err != nil {
					logger.Warn("fixed fund maturation save failed",
						zap.String("user_id", w.UserID.Hex()),
						zap.Error(err))
					continue
				}
				released++
			}
			if released > 0 {
				logger.Info("fixed funds matured",
					zap.Int("wallets", released))
			}
			return nil
		},
	}
}
