// internal/app/store/payouts/payoutstore.go
package payoutstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
)

// Store is the append-only payout record collection. Reporting
// collaborators read it; nothing updates or deletes.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("payouts")}
}

func (s *Store) Insert(ctx context.Context, p models.Payout) (models.Payout, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		// Retried units re-insert with the same pre-generated id.
		if wafflemongo.IsDup(err) {
			return p, nil
		}
		return models.Payout{}, err
	}
	return p, nil
}

func (s *Store) ListByCommunity(ctx context.Context, communityID primitive.ObjectID, limit int64) ([]models.Payout, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"community_id": communityID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Payout
	for cur.Next(ctx) {
		var p models.Payout
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, cur.Err()
}
