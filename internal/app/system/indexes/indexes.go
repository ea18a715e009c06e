// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureCommunities(ctx, db); err != nil {
		problems = append(problems, "communities: "+err.Error())
	}
	if err := ensureWallets(ctx, db); err != nil {
		problems = append(problems, "wallets: "+err.Error())
	}
	if err := ensureContributions(ctx, db); err != nil {
		problems = append(problems, "contributions: "+err.Error())
	}
	if err := ensurePayouts(ctx, db); err != nil {
		problems = append(problems, "payouts: "+err.Error())
	}
	if err := ensureJobs(ctx, db); err != nil {
		problems = append(problems, "jobs: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		// Load existing indexes so an equivalent one is reused instead of
		// recreated on every boot.
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureCommunities(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("communities")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Enforce global uniqueness of community names (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_communities_nameci"),
		},
		// Scheduler scan: communities with a payout coming due.
		{
			Keys:    bson.D{{Key: "next_payout", Value: 1}},
			Options: options.Index().SetName("idx_communities_next_payout"),
		},
		// Per-admin listings and counts.
		{
			Keys:    bson.D{{Key: "admin_id", Value: 1}},
			Options: options.Index().SetName("idx_communities_admin"),
		},
	})
}

func ensureWallets(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("wallets")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one wallet per user.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_wallets_user"),
		},
		// Maturation sweep: wallets holding unmatured fixed funds.
		{
			Keys:    bson.D{{Key: "fixed_funds.end_date", Value: 1}},
			Options: options.Index().SetName("idx_wallets_fixed_end"),
		},
	})
}

func ensureContributions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("contributions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Mid-cycle ledger reads (readiness, reconciliation), date-ordered.
		{
			Keys:    bson.D{{Key: "mid_cycle_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("idx_contrib_midcycle_date"),
		},
		// Per-user history within a community.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "community_id", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_contrib_user_community_date"),
		},
	})
}

func ensurePayouts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("payouts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Community payout history (latest-first).
		{
			Keys:    bson.D{{Key: "community_id", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_payouts_community_date"),
		},
		// Recipient history.
		{
			Keys:    bson.D{{Key: "recipient_user_id", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_payouts_recipient_date"),
		},
	})
}

func ensureJobs(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("jobs")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Claim scan: pending jobs ordered by due time.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "next_run_at", Value: 1}},
			Options: options.Index().SetName("idx_jobs_status_next_run"),
		},
		// Enqueue dedupe: at most one live job per community per type.
		{
			Keys:    bson.D{{Key: "community_id", Value: 1}, {Key: "type", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_jobs_community_type_status"),
		},
	})
}
