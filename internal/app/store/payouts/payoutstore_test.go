package payoutstore_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	payoutstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/payouts"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
	"github.com/spanexx/KolocollectV1-sub001/internal/testutil"
)

func TestInsert_FillsDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := payoutstore.New(db)
	p, err := store.Insert(ctx, models.Payout{
		CommunityID:     primitive.NewObjectID(),
		RecipientUserID: primitive.NewObjectID(),
		Amount:          money.MustParse("30"),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if p.ID.IsZero() {
		t.Error("insert did not assign an id")
	}
	if p.Date.IsZero() {
		t.Error("insert did not stamp a date")
	}
}

func TestInsert_SameIDIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := payoutstore.New(db)
	p := models.Payout{
		ID:              primitive.NewObjectID(),
		CommunityID:     primitive.NewObjectID(),
		RecipientUserID: primitive.NewObjectID(),
		Amount:          money.MustParse("30"),
		Date:            time.Now().UTC(),
	}
	if _, err := store.Insert(ctx, p); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if _, err := store.Insert(ctx, p); err != nil {
		t.Fatalf("retried Insert: %v", err)
	}

	list, err := store.ListByCommunity(ctx, p.CommunityID, 10)
	if err != nil {
		t.Fatalf("ListByCommunity: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("stored records = %d, want 1", len(list))
	}
}

func TestListByCommunity_NewestFirstWithLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := payoutstore.New(db)
	communityID := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, models.Payout{
			CommunityID:     communityID,
			RecipientUserID: primitive.NewObjectID(),
			Amount:          money.FromInt(int64(10 + i)),
			Date:            base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}
	if _, err := store.Insert(ctx, models.Payout{
		CommunityID:     primitive.NewObjectID(),
		RecipientUserID: primitive.NewObjectID(),
		Amount:          money.MustParse("99"),
	}); err != nil {
		t.Fatalf("Insert other community: %v", err)
	}

	list, err := store.ListByCommunity(ctx, communityID, 2)
	if err != nil {
		t.Fatalf("ListByCommunity: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("listed = %d, want 2", len(list))
	}
	if !list[0].Amount.Equal(money.MustParse("12")) || !list[1].Amount.Equal(money.MustParse("11")) {
		t.Errorf("order = [%s %s], want newest first [12 11]", list[0].Amount, list[1].Amount)
	}
}
