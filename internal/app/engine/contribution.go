// internal/app/engine/contribution.go
package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// RecordContribution debits the member's wallet and records the ledger
// entry against the active mid-cycle, growing its payout amount. On
// success the notification hook fires; a hook failure never rolls the
// contribution back.
func (e *Engine) RecordContribution(ctx context.Context, userID, communityID primitive.ObjectID, amount money.Amount) (models.Contribution, error) {
	var out models.Contribution

	// Pre-generated ids keep the retried closure idempotent.
	contributionID := primitive.NewObjectID()
	movementID := newMovementID()

	err := e.tx.Run(ctx, "record_contribution", func(ctx context.Context) error {
		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}

		member := c.MemberByUserID(userID)
		if member == nil {
			return faults.NotFound("member", userID.Hex()).
				WithContext(faults.Context{CommunityID: communityID.Hex(), UserID: userID.Hex()})
		}
		if member.Status != models.MemberActive {
			return faults.Validation("member %s is %s and cannot contribute", userID.Hex(), member.Status)
		}
		if amount.LessThan(c.Settings.MinContribution) {
			return faults.Validation("amount %s below minimum contribution %s",
				amount, c.Settings.MinContribution)
		}

		mc := c.ActiveMidCycle()
		if mc == nil {
			return faults.StateConflict(faults.CodeMidCycleNotReady,
				"community %s has no active mid-cycle", c.Name).
				WithContext(faults.Context{CommunityID: communityID.Hex()})
		}

		if _, err := e.tx.DebitWallet(ctx, userID, models.WalletTransaction{
			ID: movementID, Type: models.TxContribution, Amount: amount,
			Description: "contribution to " + c.Name,
		}); err != nil {
			return err
		}

		con, err := e.contributions.Insert(ctx, models.Contribution{
			ID:          contributionID,
			UserID:      userID,
			CommunityID: communityID,
			MidCycleID:  mc.ID,
			CycleNumber: mc.CycleNumber,
			Amount:      amount,
			Date:        e.now(),
			Status:      models.ContributionSettled,
		})
		if err != nil {
			return err
		}

		applyContribution(mc, userID, con.ID, amount)
		c.LogActivity("contribution recorded", userID.Hex(), e.now())

		if _, err := e.communities.Save(ctx, c); err != nil {
			return err
		}
		out = con
		return nil
	})
	if err != nil {
		return models.Contribution{}, err
	}

	e.log.Info("contribution recorded",
		zap.String("community_id", communityID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("mid_cycle_id", out.MidCycleID.Hex()),
		zap.String("amount", amount.String()))

	e.bestEffortNotify("contribution_recorded", func() error {
		return e.notifier.ContributionRecorded(ctx, userID, communityID, amount)
	})
	return out, nil
}

// applyContribution merges a ledger entry into the mid-cycle, growing the
// payout pot. Duplicate contribution ids (from a retried unit) are
// ignored.
func applyContribution(mc *models.MidCycle, userID, contributionID primitive.ObjectID, amount money.Amount) {
	entry := mc.ContributionFor(userID)
	if entry == nil {
		mc.Contributions = append(mc.Contributions, models.MidCycleContribution{
			UserID:          userID,
			ContributionIDs: []primitive.ObjectID{contributionID},
			Total:           amount,
		})
		mc.PayoutAmount = mc.PayoutAmount.Add(amount)
		return
	}
	for _, id := range entry.ContributionIDs {
		if id == contributionID {
			return
		}
	}
	entry.ContributionIDs = append(entry.ContributionIDs, contributionID)
	entry.Total = entry.Total.Add(amount)
	mc.PayoutAmount = mc.PayoutAmount.Add(amount)
}
