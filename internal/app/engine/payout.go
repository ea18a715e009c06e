// internal/app/engine/payout.go
package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// PayoutResult reports what a distribution did.
type PayoutResult struct {
	RecipientUserID primitive.ObjectID `json:"recipient_user_id"`
	Amount          money.Amount       `json:"amount"`
	PenaltyDeducted money.Amount       `json:"penalty_deducted"`
	CycleCompleted  bool               `json:"cycle_completed"`
	AlreadyComplete bool               `json:"already_complete"`
}

// DistributePayouts pays the accumulated pot to the next-in-line member:
// outstanding penalties are deducted into the backup fund, the net amount
// is credited to the recipient's wallet, a payout record is written, and
// the rotation rolls to the next mid-cycle (or the cycle closes).
//
// Calling it on an already-complete mid-cycle is a no-op so the scheduler
// can redeliver the job safely.
func (e *Engine) DistributePayouts(ctx context.Context, communityID primitive.ObjectID) (PayoutResult, error) {
	var out PayoutResult

	// Pre-generated ids keep the retried closure idempotent.
	payoutID := primitive.NewObjectID()
	movementID := newMovementID()

	err := e.tx.Run(ctx, "distribute_payouts", func(ctx context.Context) error {
		out = PayoutResult{}

		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}
		cycle := c.ActiveCycle()
		if cycle == nil {
			out.AlreadyComplete = true
			return nil
		}
		mc := c.ActiveMidCycle()
		if mc == nil || mc.IsComplete {
			out.AlreadyComplete = true
			return nil
		}
		if !mc.IsReady {
			return faults.StateConflict(faults.CodeMidCycleNotReady,
				"mid-cycle %s is not ready for payout", mc.ID.Hex()).
				WithContext(faults.Context{CommunityID: communityID.Hex(), MidCycleID: mc.ID.Hex()})
		}

		recipientID := mc.NextInLine.UserID
		recipient := c.MemberByUserID(recipientID)
		if recipient == nil {
			return faults.NotFound("member", recipientID.Hex()).
				WithContext(faults.Context{CommunityID: communityID.Hex(), UserID: recipientID.Hex()})
		}

		// Penalties come out of the payout first and refill the backup
		// fund; the deduction never pushes the net amount below zero.
		deducted := money.Min(recipient.Penalty, mc.PayoutAmount)
		net := mc.PayoutAmount.Sub(deducted)
		if deducted.IsPositive() {
			recipient.Penalty = recipient.Penalty.Sub(deducted)
			c.BackupFund = c.BackupFund.Add(deducted)
		}

		if net.IsPositive() {
			if _, err := e.tx.CreditWallet(ctx, recipientID, models.WalletTransaction{
				ID: movementID, Type: models.TxPayout, Amount: net,
				Description: "payout from " + c.Name,
			}); err != nil {
				return err
			}
		}

		if _, err := e.payouts.Insert(ctx, models.Payout{
			ID:              payoutID,
			CommunityID:     communityID,
			MidCycleID:      mc.ID,
			CycleNumber:     mc.CycleNumber,
			RecipientUserID: recipientID,
			Amount:          net,
			PenaltyDeducted: deducted,
			Date:            e.now(),
		}); err != nil {
			return err
		}

		cycle.PaidMembers = append(cycle.PaidMembers, recipientID)
		completed, err := e.finishMidCycle(&c, cycle, mc)
		if err != nil {
			return err
		}
		c.LogActivity("payout distributed", recipientID.Hex(), e.now())

		if _, err := e.communities.Save(ctx, c); err != nil {
			return err
		}
		out = PayoutResult{
			RecipientUserID: recipientID,
			Amount:          net,
			PenaltyDeducted: deducted,
			CycleCompleted:  completed,
		}
		return nil
	})
	if err != nil {
		return PayoutResult{}, err
	}
	if out.AlreadyComplete {
		return out, nil
	}

	e.log.Info("payout distributed",
		zap.String("community_id", communityID.Hex()),
		zap.String("recipient_user_id", out.RecipientUserID.Hex()),
		zap.String("amount", out.Amount.String()),
		zap.String("penalty_deducted", out.PenaltyDeducted.String()),
		zap.Bool("cycle_completed", out.CycleCompleted))

	e.bestEffortNotify("payout_distributed", func() error {
		return e.notifier.PayoutDistributed(ctx, out.RecipientUserID, communityID, out.Amount)
	})
	return out, nil
}

// OwingMember is one row of the owing-members view.
type OwingMember struct {
	UserID     primitive.ObjectID `json:"user_id"`
	Penalty    money.Amount       `json:"penalty"`
	MissedOwed money.Amount       `json:"missed_owed"`
	JoinerOwed money.Amount       `json:"joiner_owed"`
	Total      money.Amount       `json:"total"`
}

// OwingMembers reports every member with an outstanding balance toward
// the community: penalties, accumulated missed contributions, and
// unsettled joiner installments.
func (e *Engine) OwingMembers(ctx context.Context, communityID primitive.ObjectID) ([]OwingMember, error) {
	c, err := e.load(ctx, communityID)
	if err != nil {
		return nil, err
	}

	var out []OwingMember
	for i := range c.Members {
		m := &c.Members[i]

		missed := money.Zero
		for _, mc := range m.MissedContributions {
			missed = missed.Add(mc.Amount)
		}
		joinerOwed := money.Zero
		if j := joinerFor(&c, m.UserID); j != nil && !j.IsComplete {
			joinerOwed = j.RequiredContribution.Sub(j.PaidTotal())
		}

		total := m.Penalty.Add(missed).Add(joinerOwed)
		if !total.IsPositive() {
			continue
		}
		out = append(out, OwingMember{
			UserID:     m.UserID,
			Penalty:    m.Penalty,
			MissedOwed: missed,
			JoinerOwed: joinerOwed,
			Total:      total,
		})
	}
	return out, nil
}
