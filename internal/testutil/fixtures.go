package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// DefaultSettings returns settings a test community can run a full
// rotation with: 10.00 minimum, weekly cadence, sequential positioning.
func DefaultSettings() models.CommunitySettings {
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

// CreateCommunity inserts a community with the admin as its only member.
func (f *Fixtures) CreateCommunity(ctx context.Context, name string, adminID primitive.ObjectID) models.Community {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Community{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		AdminID:    adminID,
		BackupFund: money.Zero,
		Settings:   DefaultSettings(),
		Members: []models.Member{{
			ID:       primitive.NewObjectID(),
			UserID:   adminID,
			Status:   models.MemberActive,
			Penalty:  money.Zero,
			JoinedAt: now,
		}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("communities").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}
	return c
}

// AddMember inserts an active member into an existing community document
// and returns the refreshed aggregate.
func (f *Fixtures) AddMember(ctx context.Context, communityID, userID primitive.ObjectID) models.Community {
	f.t.Helper()

	member := models.Member{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Status:   models.MemberActive,
		Penalty:  money.Zero,
		JoinedAt: time.Now().UTC(),
	}
	_, err := f.db.Collection("communities").UpdateByID(ctx, communityID,
		bson.M{"$push": bson.M{"members": member}})
	if err != nil {
		f.t.Fatalf("failed to add test member: %v", err)
	}

	var c models.Community
	if err := f.db.Collection("communities").FindOne(ctx, bson.M{"_id": communityID}).Decode(&c); err != nil {
		f.t.Fatalf("failed to reload test community: %v", err)
	}
	return c
}

// CreateWallet inserts a wallet holding the given available balance.
func (f *Fixtures) CreateWallet(ctx context.Context, userID primitive.ObjectID, available money.Amount) models.Wallet {
	f.t.Helper()

	now := time.Now().UTC()
	w := models.Wallet{
		ID:               primitive.NewObjectID(),
		UserID:           userID,
		AvailableBalance: available,
		FixedBalance:     money.Zero,
		TotalBalance:     available,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("wallets").InsertOne(ctx, w); err != nil {
		f.t.Fatalf("failed to create test wallet: %v", err)
	}
	return w
}

// CreateContribution inserts a settled contribution ledger record.
func (f *Fixtures) CreateContribution(ctx context.Context, userID, communityID, midCycleID primitive.ObjectID, amount money.Amount) models.Contribution {
	f.t.Helper()

	con := models.Contribution{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		CommunityID: communityID,
		MidCycleID:  midCycleID,
		CycleNumber: 1,
		Amount:      amount,
		Date:        time.Now().UTC(),
		Status:      models.ContributionSettled,
	}
	if _, err := f.db.Collection("contributions").InsertOne(ctx, con); err != nil {
		f.t.Fatalf("failed to create test contribution: %v", err)
	}
	return con
}
