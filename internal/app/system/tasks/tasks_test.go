package tasks_test

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	walletstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/wallets"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/tasks"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
	"github.com/spanexx/KolocollectV1-sub001/internal/testutil"
)

func TestRunner_RejectsInvalidSpec(t *testing.T) {
	r := tasks.NewRunner(zap.NewNop())
	err := r.Add(tasks.Job{
		Name: "broken",
		Spec: "not a cron spec",
		Run:  func(ctx context.Context) error { return nil },
	})
	if err == nil {
		t.Fatal("invalid cron spec must be rejected")
	}
}

func TestFixedFundMaturationJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := walletstore.New(db)
	now := time.Now().UTC()

	// One wallet with a fund past its end date, one still locked.
	seed := func(endDate time.Time) primitive.ObjectID {
		w, err := store.Create(ctx, primitive.NewObjectID())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := w.Credit(models.WalletTransaction{
			Type: models.TxDeposit, Amount: money.MustParse("100"),
			Date: now.Add(-48 * time.Hour), Description: "seed",
		}); err != nil {
			t.Fatalf("Credit: %v", err)
		}
		if err := w.Fix(money.MustParse("60"), now.Add(-48*time.Hour), endDate); err != nil {
			t.Fatalf("Fix: %v", err)
		}
		if _, err := store.Save(ctx, w); err != nil {
			t.Fatalf("Save: %v", err)
		}
		return w.UserID
	}
	maturedUser := seed(now.Add(-time.Hour))
	lockedUser := seed(now.Add(24 * time.Hour))

	job := tasks.FixedFundMaturationJob(store, zap.NewNop())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("maturation run: %v", err)
	}

	matured, err := store.GetByUser(ctx, maturedUser)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if !matured.AvailableBalance.Equal(money.MustParse("100")) {
		t.Errorf("available = %s, want 100 after release", matured.AvailableBalance)
	}
	if !matured.FixedBalance.IsZero() {
		t.Errorf("fixed = %s, want 0", matured.FixedBalance)
	}
	if len(matured.FixedFunds) != 1 || !matured.FixedFunds[0].IsMatured {
		t.Error("fund not flagged matured")
	}

	locked, err := store.GetByUser(ctx, lockedUser)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if !locked.FixedBalance.Equal(money.MustParse("60")) {
		t.Errorf("locked fixed = %s, want untouched 60", locked.FixedBalance)
	}

	// A second run is a no-op.
	if err := job.Run(ctx); err != nil {
		t.Fatalf("second maturation run: %v", err)
	}
	again, err := store.GetByUser(ctx, maturedUser)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if !again.AvailableBalance.Equal(money.MustParse("100")) {
		t.Errorf("available after second run = %s, want 100", again.AvailableBalance)
	}
}
