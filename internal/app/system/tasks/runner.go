// internal/app/system/tasks/runner.go

// Package tasks runs periodic maintenance jobs on a cron schedule.
// Payout distribution does not live here; it goes through the scheduler
// worker and the job queue so it survives restarts and retries.
package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled maintenance task.
type Job struct {
	Name string
	// Spec is a cron expression ("@every 1h", "0 3 * * *", ...).
	Spec string
	Run  func(ctx context.Context) error
}

// Runner owns the cron scheduler. Jobs run with a bounded context and
// their failures are logged, never fatal.
type Runner struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		cron: cron.New(),
		log:  logger,
	}
}

// Add registers a job. Returns an error for an invalid cron spec.
func (r *Runner) Add(j Job) error {
	_, err := r.cron.AddFunc(j.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		start := time.Now()
		if err := j.Run(ctx); err != nil {
			r.log.Error("scheduled task failed",
				zap.String("task", j.Name),
				zap.Error(err))
			return
		}
		r.log.Debug("scheduled task completed",
			zap.String("task", j.Name),
			zap.Duration("took", time.Since(start)))
	})
	if err == nil {
		r.log.Info("scheduled task registered",
			zap.String("task", j.Name),
			zap.String("spec", j.Spec))
	}
	return err
}

// Start launches the scheduler in its own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("task runner stopped")
}
