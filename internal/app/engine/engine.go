// internal/app/engine/engine.go

// Package engine is the cycle/payout core: the state machine over
// communities, cycles, and mid-cycles, the eligibility and compensation
// path, payout distribution, and the mid-cycle joiner flow.
//
// Every mutation of the community aggregate or a wallet runs through the
// transaction manager's Run loop, so all engine closures are written to
// be safely re-runnable: they reload state at the top and only use
// pre-generated ids for movements that must not double-apply.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	communitystore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/communities"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/notify"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/txn"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
)

// CommunityRepo is the aggregate persistence port.
type CommunityRepo interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error)
	Create(ctx context.Context, c models.Community) (models.Community, error)
	Save(ctx context.Context, c models.Community) (models.Community, error)
}

// ContributionRepo is the slice of the ledger the engine writes.
type ContributionRepo interface {
	Insert(ctx context.Context, con models.Contribution) (models.Contribution, error)
}

// PayoutRepo records completed distributions.
type PayoutRepo interface {
	Insert(ctx context.Context, p models.Payout) (models.Payout, error)
}

// Engine orchestrates the rotation. Construct once and share; it is safe
// for concurrent use.
type Engine struct {
	communities   CommunityRepo
	contributions ContributionRepo
	payouts       PayoutRepo
	tx            *txn.Manager
	notifier      notify.Notifier
	log           *zap.Logger

	now func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Option adjusts engine construction (clock and randomness, for tests).
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand overrides the shuffle source for random positioning.
func WithRand(rnd *rand.Rand) Option {
	return func(e *Engine) { e.rnd = rnd }
}

// New builds the engine.
func New(communities CommunityRepo, contributions ContributionRepo, payouts PayoutRepo,
	tx *txn.Manager, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Engine {

	e := &Engine{
		communities:   communities,
		contributions: contributions,
		payouts:       payouts,
		tx:            tx,
		notifier:      notifier,
		log:           logger,
		now:           func() time.Time { return time.Now().UTC() },
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) load(ctx context.Context, id primitive.ObjectID) (models.Community, error) {
	c, err := e.communities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, communitystore.ErrNotFound) {
			return models.Community{}, faults.NotFound("community", id.Hex())
		}
		return models.Community{}, err
	}
	return c, nil
}

// bestEffortNotify runs a notification hook; failures are logged as
// external-service errors and never surfaced to the financial caller.
func (e *Engine) bestEffortNotify(op string, fn func() error) {
	if err := fn(); err != nil {
		ext := faults.External(op, err)
		e.log.Warn("notification hook failed", zap.String("op", op), zap.Error(ext))
	}
}

func (e *Engine) shuffled(mode string, userIDs []primitive.ObjectID) map[primitive.ObjectID]int {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	return assignPositions(mode, userIDs, e.rnd)
}
