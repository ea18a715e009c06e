// internal/app/store/contributions/contributionstore.go
package contributionstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("contribution not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contributions")}
}

func (s *Store) Insert(ctx context.Context, con models.Contribution) (models.Contribution, error) {
	if con.ID.IsZero() {
		con.ID = primitive.NewObjectID()
	}
	if con.Date.IsZero() {
		con.Date = time.Now().UTC()
	}
	if con.Status == "" {
		con.Status = models.ContributionSettled
	}
	if _, err := s.c.InsertOne(ctx, con); err != nil {
		// Retried units re-insert with the same pre-generated id.
		if wafflemongo.IsDup(err) {
			return s.GetByID(ctx, con.ID)
		}
		return models.Contribution{}, err
	}
	return con, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Contribution, error) {
	var con models.Contribution
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&con); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Contribution{}, ErrNotFound
		}
		return models.Contribution{}, err
	}
	return con, nil
}

// UpdateAmount rewrites the amount of a settled contribution. Only the
// transaction manager calls this, inside the same unit that adjusts the
// wallet and the mid-cycle totals.
func (s *Store) UpdateAmount(ctx context.Context, id primitive.ObjectID, amount money.Amount) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"amount": amount}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRefunded flips the contribution to refunded. The record itself is
// retained; the ledger is append-only from the reporting side.
func (s *Store) MarkRefunded(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": models.ContributionRefunded}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListByMidCycle(ctx context.Context, midCycleID primitive.ObjectID) ([]models.Contribution, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"mid_cycle_id": midCycleID, "status": models.ContributionSettled},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Contribution
	for cur.Next(ctx) {
		var con models.Contribution
		if err := cur.Decode(&con); err != nil {
			return nil, err
		}
		out = append(out, con)
	}
	return out, cur.Err()
}
