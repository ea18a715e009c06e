// internal/app/store/communities/communitystore.go
package communitystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateName = errors.New("a community with this name already exists")
	ErrNotFound      = errors.New("community not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communities")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error) {
	var c models.Community
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Community{}, ErrNotFound
		}
		return models.Community{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Community) (models.Community, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Community{}, ErrDuplicateName
		}
		return models.Community{}, err
	}
	return c, nil
}

// Save persists the aggregate with a compare-and-swap on the version token.
// A mismatch returns faults.ErrStaleVersion so the transaction manager's
// retry loop can reload and reapply.
func (s *Store) Save(ctx context.Context, c models.Community) (models.Community, error) {
	loaded := c.Version
	c.Version = loaded + 1
	c.UpdatedAt = time.Now().UTC()

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": c.ID, "version": loaded}, c)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Community{}, ErrDuplicateName
		}
		return models.Community{}, err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": c.ID})
		if err != nil {
			return models.Community{}, err
		}
		if n == 0 {
			return models.Community{}, ErrNotFound
		}
		return models.Community{}, fmt.Errorf("community %s at version %d: %w",
			c.ID.Hex(), loaded, faults.ErrStaleVersion)
	}
	return c, nil
}

// FindDuePayouts returns ids of communities whose mirrored next_payout has
// passed and which still have an open cycle. The scheduler scans with this.
func (s *Store) FindDuePayouts(ctx context.Context, now time.Time, limit int64) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"next_payout": bson.M{"$gt": time.Time{}, "$lte": now},
		"cycles":      bson.M{"$elemMatch": bson.M{"is_complete": false}},
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "next_payout", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// CountByAdmin returns how many communities a user administers.
func (s *Store) CountByAdmin(ctx context.Context, adminID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"admin_id": adminID})
}
