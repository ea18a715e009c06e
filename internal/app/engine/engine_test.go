package engine_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/engine"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/notify"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/txn"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
	"github.com/spanexx/KolocollectV1-sub001/internal/testutil"
)

// world wires an engine over in-memory repositories with a fixed clock and
// a seeded shuffle source.
type world struct {
	communities   *testutil.MemCommunityRepo
	wallets       *testutil.MemWalletRepo
	contributions *testutil.MemContributionRepo
	payouts       *testutil.MemPayoutRepo
	tx            *txn.Manager
	eng           *engine.Engine
	now           time.Time
}

func newWorld(t *testing.T) *world {
	t.Helper()
	logger := zap.NewNop()
	w := &world{
		communities:   testutil.NewMemCommunityRepo(),
		wallets:       testutil.NewMemWalletRepo(),
		contributions: testutil.NewMemContributionRepo(),
		payouts:       testutil.NewMemPayoutRepo(),
		now:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	w.tx = txn.New(w.wallets, w.contributions, w.communities, nil, logger)
	w.eng = engine.New(w.communities, w.contributions, w.payouts, w.tx,
		notify.NewLogNotifier(logger), logger,
		engine.WithClock(func() time.Time { return w.now }),
		engine.WithRand(rand.New(rand.NewSource(1))))
	return w
}

func defaultSettings() models.CommunitySettings {
	return models.CommunitySettings{
		MinContribution:       money.MustParse("10"),
		MaxMembers:            10,
		BackupFundPercentage:  money.MustParse("0.1"),
		ContributionFrequency: models.FrequencyWeekly,
		Penalty:               money.MustParse("2"),
		NumMissContribution:   3,
		PositioningMode:       models.PositioningSequential,
	}
}

// newCommunity creates a community with memberCount members (admin
// included), each backed by a wallet holding walletBalance.
func (w *world) newCommunity(t *testing.T, memberCount int, walletBalance string) (models.Community, []primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()

	userIDs := make([]primitive.ObjectID, memberCount)
	for i := range userIDs {
		userIDs[i] = primitive.NewObjectID()
		w.wallets.Put(models.Wallet{
			UserID:           userIDs[i],
			AvailableBalance: money.MustParse(walletBalance),
			TotalBalance:     money.MustParse(walletBalance),
		})
	}

	c, err := w.eng.CreateCommunity(ctx, userIDs[0], "savings-circle", defaultSettings())
	if err != nil {
		t.Fatalf("CreateCommunity: %v", err)
	}
	for _, id := range userIDs[1:] {
		if _, err := w.eng.JoinCommunity(ctx, c.ID, id, nil); err != nil {
			t.Fatalf("JoinCommunity: %v", err)
		}
	}

	c, err = w.eng.GetCommunity(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCommunity: %v", err)
	}
	return c, userIDs
}

// startCycle starts a fresh cycle and returns the reloaded aggregate.
func (w *world) startCycle(t *testing.T, communityID primitive.ObjectID) models.Community {
	t.Helper()
	ctx := context.Background()
	if _, err := w.eng.StartNewCycle(ctx, communityID); err != nil {
		t.Fatalf("StartNewCycle: %v", err)
	}
	c, err := w.eng.GetCommunity(ctx, communityID)
	if err != nil {
		t.Fatalf("GetCommunity: %v", err)
	}
	return c
}

// contributeAll records the minimum contribution for every given user.
func (w *world) contributeAll(t *testing.T, communityID primitive.ObjectID, userIDs []primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()
	for _, id := range userIDs {
		if _, err := w.eng.RecordContribution(ctx, id, communityID, money.MustParse("10")); err != nil {
			t.Fatalf("RecordContribution for %s: %v", id.Hex(), err)
		}
	}
}

func (w *world) reload(t *testing.T, communityID primitive.ObjectID) models.Community {
	t.Helper()
	c, err := w.eng.GetCommunity(context.Background(), communityID)
	if err != nil {
		t.Fatalf("GetCommunity: %v", err)
	}
	return c
}

// setBackupFund rewrites the community's backup fund directly.
func (w *world) setBackupFund(t *testing.T, communityID primitive.ObjectID, amount string) {
	t.Helper()
	ctx := context.Background()
	c, err := w.communities.GetByID(ctx, communityID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	c.BackupFund = money.MustParse(amount)
	if _, err := w.communities.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// setPenalty rewrites one member's outstanding penalty directly.
func (w *world) setPenalty(t *testing.T, communityID, userID primitive.ObjectID, amount string) {
	t.Helper()
	ctx := context.Background()
	c, err := w.communities.GetByID(ctx, communityID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	m := c.MemberByUserID(userID)
	if m == nil {
		t.Fatalf("member %s not found", userID.Hex())
	}
	m.Penalty = money.MustParse(amount)
	if _, err := w.communities.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// newUserWithWallet seeds a wallet for a fresh user id.
func (w *world) newUserWithWallet(t *testing.T, balance string) primitive.ObjectID {
	t.Helper()
	userID := primitive.NewObjectID()
	w.wallets.Put(models.Wallet{
		UserID:           userID,
		AvailableBalance: money.MustParse(balance),
		TotalBalance:     money.MustParse(balance),
	})
	return userID
}

// runRotationToCompletion drives the active cycle to its end: every
// member contributes each mid-cycle, readiness is validated, and the
// payout is distributed, until the cycle closes.
func (w *world) runRotationToCompletion(t *testing.T, communityID primitive.ObjectID, userIDs []primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < len(userIDs)+1; i++ {
		w.contributeAll(t, communityID, userIDs)
		if _, err := w.eng.ValidateMidCycleReadiness(ctx, communityID); err != nil {
			t.Fatalf("ValidateMidCycleReadiness: %v", err)
		}
		result, err := w.eng.DistributePayouts(ctx, communityID)
		if err != nil {
			t.Fatalf("DistributePayouts: %v", err)
		}
		if result.CycleCompleted {
			return
		}
	}
	t.Fatal("rotation did not complete within the expected rounds")
}

func (w *world) walletOf(t *testing.T, userID primitive.ObjectID) models.Wallet {
	t.Helper()
	wallet, err := w.wallets.GetByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	return wallet
}
