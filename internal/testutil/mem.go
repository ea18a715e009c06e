package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	communitystore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/communities"
	contributionstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/contributions"
	walletstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/wallets"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// In-memory repositories for engine and transaction-manager tests. They
// honor the same version CAS contract as the Mongo stores, and FailSaves
// can inject stale-version conflicts to exercise the retry loop.

// cloneCommunity hands out an independent snapshot via a BSON round-trip,
// matching the fresh-decode-per-load behavior of the Mongo store. Without
// it the stored aggregate shares slice backing arrays with the caller, and
// mutations made before a failed save leak into the "database."
func cloneCommunity(c models.Community) models.Community {
	raw, err := bson.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("cloneCommunity marshal: %v", err))
	}
	var out models.Community
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("cloneCommunity unmarshal: %v", err))
	}
	return out
}

// MemCommunityRepo is an in-memory community aggregate store.
type MemCommunityRepo struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Community

	// FailSaves makes the next N Save calls return a stale-version error.
	FailSaves int
	// SaveCalls counts Save invocations, successful or not.
	SaveCalls int
}

func NewMemCommunityRepo() *MemCommunityRepo {
	return &MemCommunityRepo{docs: map[primitive.ObjectID]models.Community{}}
}

// Put seeds the repo with an aggregate, assigning an id and version when
// missing.
func (r *MemCommunityRepo) Put(c models.Community) models.Community {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	r.docs[c.ID] = cloneCommunity(c)
	return c
}

func (r *MemCommunityRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.docs[id]
	if !ok {
		return models.Community{}, communitystore.ErrNotFound
	}
	return cloneCommunity(c), nil
}

func (r *MemCommunityRepo) Create(ctx context.Context, c models.Community) (models.Community, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.docs {
		if have.NameCI == text.Fold(c.Name) {
			return models.Community{}, communitystore.ErrDuplicateName
		}
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now
	r.docs[c.ID] = cloneCommunity(c)
	return c, nil
}

func (r *MemCommunityRepo) Save(ctx context.Context, c models.Community) (models.Community, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SaveCalls++

	have, ok := r.docs[c.ID]
	if !ok {
		return models.Community{}, communitystore.ErrNotFound
	}
	if r.FailSaves > 0 {
		r.FailSaves--
		return models.Community{}, fmt.Errorf("community %s at version %d: %w",
			c.ID.Hex(), c.Version, faults.ErrStaleVersion)
	}
	if have.Version != c.Version {
		return models.Community{}, fmt.Errorf("community %s at version %d: %w",
			c.ID.Hex(), c.Version, faults.ErrStaleVersion)
	}
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	r.docs[c.ID] = cloneCommunity(c)
	return c, nil
}

// MemWalletRepo is an in-memory wallet store.
type MemWalletRepo struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Wallet

	// FailSaves makes the next N matching Save calls conflict. When
	// FailSaveUser is set only that user's wallet saves conflict, which
	// lets a test fail the second save of a multi-wallet unit.
	FailSaves    int
	FailSaveUser primitive.ObjectID
	SaveCalls    int
}

func NewMemWalletRepo() *MemWalletRepo {
	return &MemWalletRepo{docs: map[primitive.ObjectID]models.Wallet{}}
}

// Put seeds a wallet keyed by user id.
func (r *MemWalletRepo) Put(w models.Wallet) models.Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	if w.Version == 0 {
		w.Version = 1
	}
	r.docs[w.UserID] = w
	return w
}

func (r *MemWalletRepo) GetByUser(ctx context.Context, userID primitive.ObjectID) (models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.docs[userID]
	if !ok {
		return models.Wallet{}, walletstore.ErrNotFound
	}
	return w, nil
}

func (r *MemWalletRepo) Create(ctx context.Context, userID primitive.ObjectID) (models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[userID]; ok {
		return models.Wallet{}, walletstore.ErrDuplicate
	}
	now := time.Now().UTC()
	w := models.Wallet{
		ID:               primitive.NewObjectID(),
		UserID:           userID,
		AvailableBalance: money.Zero,
		FixedBalance:     money.Zero,
		TotalBalance:     money.Zero,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.docs[userID] = w
	return w, nil
}

func (r *MemWalletRepo) Save(ctx context.Context, w models.Wallet) (models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SaveCalls++

	have, ok := r.docs[w.UserID]
	if !ok {
		return models.Wallet{}, walletstore.ErrNotFound
	}
	if r.FailSaves > 0 && (r.FailSaveUser.IsZero() || r.FailSaveUser == w.UserID) {
		r.FailSaves--
		return models.Wallet{}, fmt.Errorf("wallet %s at version %d: %w",
			w.ID.Hex(), w.Version, faults.ErrStaleVersion)
	}
	if have.Version != w.Version {
		return models.Wallet{}, fmt.Errorf("wallet %s at version %d: %w",
			w.ID.Hex(), w.Version, faults.ErrStaleVersion)
	}
	w.Version++
	w.UpdatedAt = time.Now().UTC()
	r.docs[w.UserID] = w
	return w, nil
}

// MemContributionRepo is an in-memory contribution ledger.
type MemContributionRepo struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Contribution
}

func NewMemContributionRepo() *MemContributionRepo {
	return &MemContributionRepo{docs: map[primitive.ObjectID]models.Contribution{}}
}

func (r *MemContributionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	con, ok := r.docs[id]
	if !ok {
		return models.Contribution{}, contributionstore.ErrNotFound
	}
	return con, nil
}

func (r *MemContributionRepo) Insert(ctx context.Context, con models.Contribution) (models.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if con.ID.IsZero() {
		con.ID = primitive.NewObjectID()
	}
	// Re-inserting the same id is the retried-closure case; return the
	// stored record like the Mongo store does on a duplicate key.
	if have, ok := r.docs[con.ID]; ok {
		return have, nil
	}
	r.docs[con.ID] = con
	return con, nil
}

func (r *MemContributionRepo) UpdateAmount(ctx context.Context, id primitive.ObjectID, amount money.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	con, ok := r.docs[id]
	if !ok {
		return contributionstore.ErrNotFound
	}
	con.Amount = amount
	r.docs[id] = con
	return nil
}

func (r *MemContributionRepo) MarkRefunded(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	con, ok := r.docs[id]
	if !ok {
		return contributionstore.ErrNotFound
	}
	con.Status = models.ContributionRefunded
	r.docs[id] = con
	return nil
}

// Len reports how many ledger records exist.
func (r *MemContributionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

// MemPayoutRepo is an in-memory payout record store.
type MemPayoutRepo struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Payout
}

func NewMemPayoutRepo() *MemPayoutRepo {
	return &MemPayoutRepo{docs: map[primitive.ObjectID]models.Payout{}}
}

func (r *MemPayoutRepo) Insert(ctx context.Context, p models.Payout) (models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if have, ok := r.docs[p.ID]; ok {
		return have, nil
	}
	r.docs[p.ID] = p
	return p, nil
}

// All returns every recorded payout.
func (r *MemPayoutRepo) All() []models.Payout {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Payout, 0, len(r.docs))
	for _, p := range r.docs {
		out = append(out, p)
	}
	return out
}
