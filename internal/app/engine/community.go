// internal/app/engine/community.go
package engine

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// one is the fraction upper bound for backup_fund_percentage.
var one = money.FromInt(1)

// NormalizeSettings validates community settings and fills defaults.
//
// BackupFundPercentage must be a fraction in [0,1]; values above 1 are a
// misconfiguration (a whole percentage like 3 instead of 0.03) and are
// rejected here rather than coerced downstream.
func NormalizeSettings(s models.CommunitySettings) (models.CommunitySettings, error) {
	if !s.MinContribution.IsPositive() {
		return s, faults.Validation("min_contribution must be positive, got %s", s.MinContribution)
	}
	if s.MaxMembers < 2 {
		return s, faults.Validation("max_members must be at least 2, got %d", s.MaxMembers)
	}
	if s.BackupFundPercentage.IsNegative() || one.LessThan(s.BackupFundPercentage) {
		return s, faults.Validation(
			"backup_fund_percentage must be a fraction in [0,1], got %s", s.BackupFundPercentage)
	}
	if s.Penalty.IsNegative() {
		return s, faults.Validation("penalty cannot be negative, got %s", s.Penalty)
	}
	if s.NumMissContribution < 0 {
		return s, faults.Validation("num_miss_contribution cannot be negative, got %d", s.NumMissContribution)
	}

	switch s.PositioningMode {
	case "":
		s.PositioningMode = models.PositioningSequential
	case models.PositioningSequential, models.PositioningRandom:
	default:
		return s, faults.Validation("unknown positioning_mode %q", s.PositioningMode)
	}

	switch s.ContributionFrequency {
	case "":
		s.ContributionFrequency = models.FrequencyWeekly
	case models.FrequencyHourly, models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
	default:
		return s, faults.Validation("unknown contribution_frequency %q", s.ContributionFrequency)
	}

	return s, nil
}

// CreateCommunity creates a community with the admin as its first member.
// The admin id arrives validated from the auth collaborator.
func (e *Engine) CreateCommunity(ctx context.Context, adminID primitive.ObjectID, name string, settings models.CommunitySettings) (models.Community, error) {
	if name == "" {
		return models.Community{}, faults.Validation("community name is required")
	}
	settings, err := NormalizeSettings(settings)
	if err != nil {
		return models.Community{}, err
	}

	now := e.now()
	c := models.Community{
		Name:       name,
		AdminID:    adminID,
		BackupFund: money.Zero,
		Settings:   settings,
		Members: []models.Member{{
			ID:       primitive.NewObjectID(),
			UserID:   adminID,
			Status:   models.MemberActive,
			Penalty:  money.Zero,
			JoinedAt: now,
		}},
	}
	c.LogActivity("community created", adminID.Hex(), now)

	created, err := e.communities.Create(ctx, c)
	if err != nil {
		return models.Community{}, err
	}
	e.log.Info("community created",
		zap.String("community_id", created.ID.Hex()),
		zap.String("admin_id", adminID.Hex()),
		zap.String("name", name))
	return created, nil
}

// GetCommunity returns the full aggregate for read endpoints.
func (e *Engine) GetCommunity(ctx context.Context, communityID primitive.ObjectID) (models.Community, error) {
	return e.load(ctx, communityID)
}

// UpdateSettings replaces community settings under the same validation as
// creation. Min-contribution changes apply from the next mid-cycle on.
func (e *Engine) UpdateSettings(ctx context.Context, communityID primitive.ObjectID, settings models.CommunitySettings) error {
	settings, err := NormalizeSettings(settings)
	if err != nil {
		return err
	}
	return e.tx.Run(ctx, "update_settings", func(ctx context.Context) error {
		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}
		c.Settings = settings
		_, err = e.communities.Save(ctx, c)
		return err
	})
}

// JoinCommunity adds a user. Before the first cycle (or between cycles)
// this is a plain membership insert; while a cycle is running it routes to
// the mid-cycle joiner path and contribution must carry the first
// installment.
func (e *Engine) JoinCommunity(ctx context.Context, communityID, userID primitive.ObjectID, contribution *money.Amount) (models.Member, error) {
	var out models.Member
	joinTxID := newMovementID()

	err := e.tx.Run(ctx, "join_community", func(ctx context.Context) error {
		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}
		if c.MemberByUserID(userID) != nil {
			return faults.StateConflict(faults.CodeAlreadyMember,
				"user %s is already a member of %s", userID.Hex(), c.Name).
				WithContext(faults.Context{CommunityID: communityID.Hex(), UserID: userID.Hex()})
		}
		if len(c.Members) >= c.Settings.MaxMembers {
			return faults.Validation("community %s is full (%d members)", c.Name, c.Settings.MaxMembers)
		}

		now := e.now()
		member := models.Member{
			ID:       primitive.NewObjectID(),
			UserID:   userID,
			Status:   models.MemberActive,
			Penalty:  money.Zero,
			JoinedAt: now,
		}

		if cycle := c.ActiveCycle(); cycle != nil {
			if contribution == nil {
				return faults.Validation("joining mid-cycle requires an initial contribution")
			}
			member.Status = models.MemberWaiting
			if err := e.joinMidCycle(ctx, &c, cycle, member, *contribution, joinTxID); err != nil {
				return err
			}
		}

		c.Members = append(c.Members, member)
		c.LogActivity("member joined", userID.Hex(), now)
		if _, err := e.communities.Save(ctx, c); err != nil {
			return err
		}
		out = member
		return nil
	})
	if err != nil {
		return models.Member{}, err
	}

	e.log.Info("member joined community",
		zap.String("community_id", communityID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("status", out.Status))
	return out, nil
}

// newMovementID pre-generates a wallet transaction id so a retried
// closure cannot double-apply the movement.
func newMovementID() string {
	return uuid.NewString()
}
