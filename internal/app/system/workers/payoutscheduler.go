// internal/app/system/workers/payoutscheduler.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	communitystore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/communities"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/queue"
)

// PayoutScheduler is a background worker that scans for communities whose
// payout is due and enqueues a distribution job for each. Overlapping
// scans can enqueue the same community more than once (the durable queue
// collapses those, the in-process queue does not); double payouts are
// prevented by the distribution itself, which is a no-op on a completed
// mid-cycle.
type PayoutScheduler struct {
	communities *communitystore.Store
	queue       queue.Queue
	log         *zap.Logger
	interval    time.Duration
	batchSize   int64
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewPayoutScheduler creates a new payout scheduler worker.
//
// Parameters:
//   - communities: the communities store, scanned for due payouts
//   - q: the job queue distribution jobs land on
//   - logger: zap logger for logging
//   - interval: how often to scan (e.g., 30 seconds)
//   - batchSize: max communities enqueued per scan
func NewPayoutScheduler(communities *communitystore.Store, q queue.Queue, logger *zap.Logger, interval time.Duration, batchSize int64) *PayoutScheduler {
	return &PayoutScheduler{
		communities: communities,
		queue:       q,
		log:         logger,
		interval:    interval,
		batchSize:   batchSize,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background scan loop.
func (w *PayoutScheduler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("payout scheduler started",
		zap.Duration("interval", w.interval),
		zap.Int64("batch_size", w.batchSize))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *PayoutScheduler) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("payout scheduler stopped")
}

func (w *PayoutScheduler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *PayoutScheduler) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	due, err := w.communities.FindDuePayouts(ctx, now, w.batchSize)
	if err != nil {
		w.log.Error("due payout scan failed", zap.Error(err))
		return
	}

	for _, id := range due {
		jobID, err := w.queue.Enqueue(ctx, queue.Payload{
			CommunityID:   id,
			ScheduledTime: now,
		})
		if err != nil {
			w.log.Error("failed to enqueue payout job",
				zap.String("community_id", id.Hex()),
				zap.Error(err))
			continue
		}
		w.log.Info("payout job enqueued",
			zap.String("community_id", id.Hex()),
			zap.String("job_id", jobID))
	}
}
