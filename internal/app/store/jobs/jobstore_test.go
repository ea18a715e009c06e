package jobstore_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	jobstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/jobs"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/queue"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/testutil"
)

func newStore(t *testing.T, maxAttempts int) *jobstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return jobstore.New(db, zap.NewNop(), 20*time.Millisecond, maxAttempts, time.Millisecond)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEnqueue_OnePendingJobPerCommunity(t *testing.T) {
	s := newStore(t, 3)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	communityID := primitive.NewObjectID()
	first, err := s.Enqueue(ctx, queue.Payload{CommunityID: communityID, ScheduledTime: time.Now().UTC()})
	if err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	second, err := s.Enqueue(ctx, queue.Payload{CommunityID: communityID, ScheduledTime: time.Now().UTC()})
	if err != nil {
		t.Fatalf("second Enqueue: %v", err)
	}
	if second != first {
		t.Errorf("duplicate enqueue returned %s, want existing %s", second, first)
	}

	other, err := s.Enqueue(ctx, queue.Payload{CommunityID: primitive.NewObjectID(), ScheduledTime: time.Now().UTC()})
	if err != nil {
		t.Fatalf("other Enqueue: %v", err)
	}
	if other == first {
		t.Error("distinct communities must get distinct jobs")
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Pending != 2 || st.Enqueued != 2 {
		t.Errorf("stats = %+v, want 2 pending of 2", st)
	}
}

func TestProcessesClaimedJobs(t *testing.T) {
	s := newStore(t, 3)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var processed atomic.Int64
	s.RegisterProcessor(func(ctx context.Context, p queue.Payload) error {
		processed.Add(1)
		return nil
	})

	if _, err := s.Enqueue(ctx, queue.Payload{CommunityID: primitive.NewObjectID(), ScheduledTime: time.Now().UTC()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	s.Start()
	defer s.Stop()

	waitFor(t, func() bool { return processed.Load() == 1 })
	waitFor(t, func() bool {
		st, err := s.Stats(ctx)
		return err == nil && st.Processed == 1 && st.Pending == 0
	})
}

func TestRetriesThenSucceeds(t *testing.T) {
	s := newStore(t, 3)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var attempts atomic.Int64
	s.RegisterProcessor(func(ctx context.Context, p queue.Payload) error {
		if attempts.Add(1) < 3 {
			return errors.New("not ready yet")
		}
		return nil
	})

	if _, err := s.Enqueue(ctx, queue.Payload{CommunityID: primitive.NewObjectID(), ScheduledTime: time.Now().UTC()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	s.Start()
	defer s.Stop()

	waitFor(t, func() bool {
		st, err := s.Stats(ctx)
		return err == nil && st.Processed == 1
	})
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestReclaimsAbandonedRunningJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := jobstore.New(db, zap.NewNop(), 20*time.Millisecond, 3, time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A job claimed by a process that died stays in running with a stale
	// updated_at. Once the lease expires it must become claimable again
	// instead of blocking its community forever.
	stale := time.Now().UTC().Add(-10 * time.Minute)
	abandoned := models.Job{
		ID:            primitive.NewObjectID().Hex(),
		Type:          "payout",
		CommunityID:   primitive.NewObjectID(),
		ScheduledTime: stale,
		Status:        models.JobRunning,
		Attempts:      1,
		MaxAttempts:   3,
		NextRunAt:     stale,
		EnqueuedAt:    stale,
		UpdatedAt:     stale,
	}
	if _, err := db.Collection("jobs").InsertOne(ctx, abandoned); err != nil {
		t.Fatalf("seed running job: %v", err)
	}

	var processed atomic.Int64
	s.RegisterProcessor(func(ctx context.Context, p queue.Payload) error {
		processed.Add(1)
		return nil
	})

	s.Start()
	defer s.Stop()

	waitFor(t, func() bool {
		st, err := s.Stats(ctx)
		return err == nil && st.Processed == 1
	})
	if got := processed.Load(); got != 1 {
		t.Errorf("processed = %d, want 1", got)
	}
}

func TestDeadAfterMaxAttempts(t *testing.T) {
	s := newStore(t, 2)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var attempts atomic.Int64
	s.RegisterProcessor(func(ctx context.Context, p queue.Payload) error {
		attempts.Add(1)
		return errors.New("permanently broken")
	})

	if _, err := s.Enqueue(ctx, queue.Payload{CommunityID: primitive.NewObjectID(), ScheduledTime: time.Now().UTC()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	s.Start()
	defer s.Stop()

	waitFor(t, func() bool {
		st, err := s.Stats(ctx)
		return err == nil && st.Dead == 1
	})
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}
