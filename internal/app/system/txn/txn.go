// internal/app/system/txn/txn.go

// Package txn is the transaction manager: every multi-document fund
// movement (wallet + contribution + community aggregate) runs through it.
//
// Each operation executes inside a bounded retry loop. An optimistic-
// concurrency conflict (faults.ErrStaleVersion from a repository save)
// backs off 100ms × attempt and re-runs the whole closure against freshly
// loaded state, up to 3 attempts, then surfaces ConcurrencyConflict. When
// the Mongo deployment supports multi-document transactions the closure
// additionally runs inside a session, so partial application cannot be
// observed even mid-operation; on standalone servers (detected via
// IsNotSupported) it falls back to plain execution with debit-first
// ordering.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
)

const (
	maxAttempts = 3
	baseBackoff = 100 * time.Millisecond
)

// IsNotSupported reports whether the error means the deployment cannot run
// multi-document transactions (standalone server, old wire version).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	pairs := [][2]string{
		{"transaction", "replica set"},
		{"session", "not supported"},
		{"transaction", "session"},
		{"illegal operation", "transaction"},
	}
	for _, p := range pairs {
		if strings.Contains(msg, p[0]) && strings.Contains(msg, p[1]) {
			return true
		}
	}
	return false
}

// Manager executes fund-moving closures with retry and (when available)
// session semantics. A nil client skips sessions entirely, which is what
// the in-memory test repositories use.
type Manager struct {
	wallets       WalletRepo
	contributions ContributionRepo
	communities   CommunityRepo

	client *mongo.Client
	log    *zap.Logger

	sessionsUnsupported atomic.Bool
}

// New builds a Manager over the given repositories. client may be nil.
func New(wallets WalletRepo, contributions ContributionRepo, communities CommunityRepo, client *mongo.Client, logger *zap.Logger) *Manager {
	return &Manager{
		wallets:       wallets,
		contributions: contributions,
		communities:   communities,
		client:        client,
		log:           logger,
	}
}

// Run executes fn with the retry-and-backoff discipline. fn must be safe
// to re-run from scratch: it reloads every aggregate it touches.
func (m *Manager) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := m.execute(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, faults.ErrStaleVersion) {
			return err
		}

		m.log.Debug("concurrency conflict, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseBackoff * time.Duration(attempt)):
		}
	}

	m.log.Warn("concurrency conflict not resolved within retry bound",
		zap.String("op", op),
		zap.Int("attempts", maxAttempts))
	return faults.Concurrency(op, maxAttempts)
}

func (m *Manager) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.client == nil || m.sessionsUnsupported.Load() {
		return fn(ctx)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			m.noteUnsupported(err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		m.noteUnsupported(err)
		return fn(ctx)
	}
	return err
}

func (m *Manager) noteUnsupported(err error) {
	if m.sessionsUnsupported.CompareAndSwap(false, true) {
		m.log.Warn("mongo transactions unsupported, falling back to ordered writes",
			zap.Error(err))
	}
}
