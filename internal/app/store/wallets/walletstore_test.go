package walletstore_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	walletstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/wallets"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/indexes"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
	"github.com/spanexx/KolocollectV1-sub001/internal/testutil"
)

func TestCreateAndGetByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := walletstore.New(db)
	userID := primitive.NewObjectID()

	created, err := store.Create(ctx, userID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Version != 1 {
		t.Errorf("version = %d, want 1", created.Version)
	}
	if !created.AvailableBalance.IsZero() || !created.TotalBalance.IsZero() {
		t.Error("new wallet must open empty")
	}

	got, err := store.GetByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("wallet id = %s, want %s", got.ID.Hex(), created.ID.Hex())
	}
}

func TestCreate_OneWalletPerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	store := walletstore.New(db)
	userID := primitive.NewObjectID()
	if _, err := store.Create(ctx, userID); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := store.Create(ctx, userID)
	if !errors.Is(err, walletstore.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestGetByUser_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := walletstore.New(db)
	_, err := store.GetByUser(ctx, primitive.NewObjectID())
	if !errors.Is(err, walletstore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSave_StaleVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := walletstore.New(db)
	w, err := store.Create(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w.AvailableBalance = money.MustParse("100")
	w.TotalBalance = money.MustParse("100")
	if _, err := store.Save(ctx, w); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	// Saving the stale copy again must lose the compare-and-swap.
	_, err = store.Save(ctx, w)
	if !errors.Is(err, faults.ErrStaleVersion) {
		t.Errorf("error = %v, want ErrStaleVersion", err)
	}

	got, err := store.GetByUser(ctx, w.UserID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("stored version = %d, want 2", got.Version)
	}
	if !got.AvailableBalance.Equal(money.MustParse("100")) {
		t.Errorf("balance = %s, want 100", got.AvailableBalance)
	}
}

func TestFindWithMaturedFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := walletstore.New(db)
	now := time.Now().UTC()

	fixWallet := func(endDate time.Time, matured bool) models.Wallet {
		w, err := store.Create(ctx, primitive.NewObjectID())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		w.FixedBalance = money.MustParse("40")
		w.TotalBalance = money.MustParse("40")
		w.FixedFunds = []models.FixedFund{{
			ID:        primitive.NewObjectID(),
			Amount:    money.MustParse("40"),
			EndDate:   endDate,
			IsMatured: matured,
		}}
		saved, err := store.Save(ctx, w)
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		return saved
	}

	due := fixWallet(now.Add(-time.Hour), false)
	fixWallet(now.Add(time.Hour), false) // still locked
	fixWallet(now.Add(-time.Hour), true) // already released

	wallets, err := store.FindWithMaturedFunds(ctx, now, 10)
	if err != nil {
		t.Fatalf("FindWithMaturedFunds: %v", err)
	}
	if len(wallets) != 1 || wallets[0].ID != due.ID {
		t.Errorf("matured wallets = %d, want only %s", len(wallets), due.ID.Hex())
	}
}
