// internal/app/system/queue/memory.go
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Memory is the in-process Queue: a buffered channel drained by a small
// worker pool. Jobs that keep failing past the attempt bound are counted
// dead and dropped; durability across restarts is the jobs store's job,
// not this one's.
type Memory struct {
	log         *zap.Logger
	ch          chan Payload
	workers     int
	maxAttempts int
	backoff     time.Duration

	mu        sync.RWMutex
	processor Processor

	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup

	enqueued  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	dead      atomic.Int64
}

// NewMemory creates the in-process queue. Start must be called before
// jobs are consumed.
func NewMemory(logger *zap.Logger, workers, buffer, maxAttempts int, backoff time.Duration) *Memory {
	if workers < 1 {
		workers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Memory{
		log:         logger,
		ch:          make(chan Payload, buffer),
		workers:     workers,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		stopCh:      make(chan struct{}),
	}
}

func (m *Memory) RegisterProcessor(fn Processor) {
	m.mu.Lock()
	m.processor = fn
	m.mu.Unlock()
}

func (m *Memory) Enqueue(ctx context.Context, p Payload) (string, error) {
	select {
	case m.ch <- p:
		m.enqueued.Add(1)
		return uuid.NewString(), nil
	case <-m.stopCh:
		return "", errors.New("queue stopped")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	return Stats{
		Enqueued:  m.enqueued.Load(),
		Processed: m.processed.Load(),
		Failed:    m.failed.Load(),
		Dead:      m.dead.Load(),
		Pending:   int64(len(m.ch)),
	}, nil
}

// Start launches the worker pool.
func (m *Memory) Start() {
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.run()
	}
	m.log.Info("in-process job queue started",
		zap.Int("workers", m.workers),
		zap.Int("max_attempts", m.maxAttempts))
}

// Stop drains nothing; it signals the workers and waits for in-flight
// jobs to finish.
func (m *Memory) Stop() {
	m.stopped.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	m.log.Info("in-process job queue stopped")
}

func (m *Memory) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case p := <-m.ch:
			m.process(p)
		}
	}
}

func (m *Memory) process(p Payload) {
	m.mu.RLock()
	fn := m.processor
	m.mu.RUnlock()
	if fn == nil {
		m.log.Warn("job dropped: no processor registered",
			zap.String("community_id", p.CommunityID.Hex()))
		m.dead.Add(1)
		return
	}

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := fn(ctx, p)
		cancel()
		if err == nil {
			m.processed.Add(1)
			return
		}

		m.failed.Add(1)
		m.log.Warn("payout job attempt failed",
			zap.String("community_id", p.CommunityID.Hex()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == m.maxAttempts {
			break
		}
		select {
		case <-m.stopCh:
			return
		case <-time.After(m.backoff * time.Duration(attempt)):
		}
	}

	m.dead.Add(1)
	m.log.Error("payout job dead after retries",
		zap.String("community_id", p.CommunityID.Hex()),
		zap.Int("attempts", m.maxAttempts))
}
