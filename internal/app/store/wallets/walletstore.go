// internal/app/store/wallets/walletstore.go
package walletstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound  = errors.New("wallet not found")
	ErrDuplicate = errors.New("user already has a wallet")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("wallets")}
}

// Create opens an empty wallet for the user. One wallet per user is
// enforced by a unique index on user_id.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID) (models.Wallet, error) {
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
	if _, err := s.c.InsertOne(ctx, w); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Wallet{}, ErrDuplicate
		}
		return models.Wallet{}, err
	}
	return w, nil
}

func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID) (models.Wallet, error) {
	var w models.Wallet
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Wallet{}, ErrNotFound
		}
		return models.Wallet{}, err
	}
	return w, nil
}

// Save persists the wallet with a compare-and-swap on the version token.
func (s *Store) Save(ctx context.Context, w models.Wallet) (models.Wallet, error) {
	loaded := w.Version
	w.Version = loaded + 1
	w.UpdatedAt = time.Now().UTC()

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": w.ID, "version": loaded}, w)
	if err != nil {
		return models.Wallet{}, err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": w.ID})
		if err != nil {
			return models.Wallet{}, err
		}
		if n == 0 {
			return models.Wallet{}, ErrNotFound
		}
		return models.Wallet{}, fmt.Errorf("wallet %s at version %d: %w",
			w.ID.Hex(), loaded, faults.ErrStaleVersion)
	}
	return w, nil
}

// FindWithMaturedFunds returns wallets holding unmatured fixed funds whose
// end date has passed, for the maturation task.
func (s *Store) FindWithMaturedFunds(ctx context.Context, now time.Time, limit int64) ([]models.Wallet, error) {
	filter := bson.M{
		"fixed_funds": bson.M{"$elemMatch": bson.M{
			"is_matured": false,
			"end_date":   bson.M{"$lte": now},
		}},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var wallets []models.Wallet
	for cur.Next(ctx) {
		var w models.Wallet
		if err := cur.Decode(&w); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, cur.Err()
}
