// internal/app/store/jobs/jobstore.go

// Package jobstore is the durable Mongo-backed implementation of
// queue.Queue. Jobs survive restarts; workers claim one job at a time
// with a compare-and-swap on its status, so multiple processes can share
// the collection safely.
package jobstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/queue"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
)

const jobTypePayout = "payout"

// runningLease is how long a claimed job may sit in running before
// another worker treats its owner as crashed and reclaims it. It must
// comfortably exceed the processing deadline in claimAndProcess.
const runningLease = 2 * time.Minute

type Store struct {
	c   *mongo.Collection
	log *zap.Logger

	pollInterval time.Duration
	maxAttempts  int
	backoff      time.Duration

	mu        sync.RWMutex
	processor queue.Processor

	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// New creates the durable queue over the jobs collection.
func New(db *mongo.Database, logger *zap.Logger, pollInterval time.Duration, maxAttempts int, backoff time.Duration) *Store {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Store{
		c:            db.Collection("jobs"),
		log:          logger,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		backoff:      backoff,
		stopCh:       make(chan struct{}),
	}
}

func (s *Store) RegisterProcessor(fn queue.Processor) {
	s.mu.Lock()
	s.processor = fn
	s.mu.Unlock()
}

// Enqueue inserts a pending job. One pending payout job per community at a
// time: a duplicate enqueue while one is pending is a no-op returning the
// existing id, which keeps manual triggers idempotent at the queue level.
func (s *Store) Enqueue(ctx context.Context, p queue.Payload) (string, error) {
	var existing models.Job
	err := s.c.FindOne(ctx, bson.M{
		"type":         jobTypePayout,
		"community_id": p.CommunityID,
		"status":       bson.M{"$in": bson.A{models.JobPending, models.JobRunning}},
	}).Decode(&existing)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}

	now := time.Now().UTC()
	job := models.Job{
		ID:            uuid.NewString(),
		Type:          jobTypePayout,
		CommunityID:   p.CommunityID,
		ScheduledTime: p.ScheduledTime,
		Status:        models.JobPending,
		MaxAttempts:   s.maxAttempts,
		NextRunAt:     now,
		EnqueuedAt:    now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, job); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (s *Store) Stats(ctx context.Context) (queue.Stats, error) {
	var st queue.Stats
	counts := map[string]*int64{
		models.JobPending: &st.Pending,
		models.JobDone:    &st.Processed,
		models.JobDead:    &st.Dead,
	}
	for status, dst := range counts {
		n, err := s.c.CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			return queue.Stats{}, err
		}
		*dst = n
	}
	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return queue.Stats{}, err
	}
	st.Enqueued = total
	return st, nil
}

// Start launches the polling worker loop.
func (s *Store) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Info("durable job queue started",
		zap.Duration("poll_interval", s.pollInterval),
		zap.Int("max_attempts", s.maxAttempts))
}

// Stop signals the worker and waits for the in-flight job to finish.
func (s *Store) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.log.Info("durable job queue stopped")
}

func (s *Store) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			for s.claimAndProcess() {
				select {
				case <-s.stopCh:
					return
				default:
				}
			}
		}
	}
}

// claimAndProcess claims one due pending job and runs it. Returns true if
// a job was claimed, so the loop drains the backlog before sleeping again.
func (s *Store) claimAndProcess() bool {
	s.mu.RLock()
	fn := s.processor
	s.mu.RUnlock()
	if fn == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	// Besides due pending jobs, claim running jobs whose lease expired:
	// a process that died mid-job leaves the job in running forever
	// otherwise.
	now := time.Now().UTC()
	var job models.Job
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"$or": bson.A{
			bson.M{"status": models.JobPending, "next_run_at": bson.M{"$lte": now}},
			bson.M{"status": models.JobRunning, "updated_at": bson.M{"$lte": now.Add(-runningLease)}},
		}},
		bson.M{"$set": bson.M{"status": models.JobRunning, "updated_at": now},
			"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "next_run_at", Value: 1}}).
			SetReturnDocument(options.After),
	).Decode(&job)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Error("job claim failed", zap.Error(err))
		}
		return false
	}

	runErr := fn(ctx, queue.Payload{CommunityID: job.CommunityID, ScheduledTime: job.ScheduledTime})
	s.settle(ctx, job, runErr)
	return true
}

func (s *Store) settle(ctx context.Context, job models.Job, runErr error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}

	switch {
	case runErr == nil:
		set["status"] = models.JobDone
		set["last_error"] = ""
	case job.Attempts >= job.MaxAttempts:
		set["status"] = models.JobDead
		set["last_error"] = runErr.Error()
		s.log.Error("payout job dead after retries",
			zap.String("job_id", job.ID),
			zap.String("community_id", job.CommunityID.Hex()),
			zap.Int("attempts", job.Attempts),
			zap.Error(runErr))
	default:
		set["status"] = models.JobPending
		set["last_error"] = runErr.Error()
		set["next_run_at"] = now.Add(s.backoff * time.Duration(job.Attempts))
		s.log.Warn("payout job attempt failed, requeued",
			zap.String("job_id", job.ID),
			zap.String("community_id", job.CommunityID.Hex()),
			zap.Int("attempt", job.Attempts),
			zap.Error(runErr))
	}

	if _, err := s.c.UpdateByID(ctx, job.ID, bson.M{"$set": set}); err != nil {
		s.log.Error("job settle failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}
