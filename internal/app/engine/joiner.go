// internal/app/engine/joiner.go
package engine

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/policy/joinerpolicy"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// joinMidCycle prices a mid-cycle entry and collects the first
// installment. The caller appends the member and saves the aggregate.
func (e *Engine) joinMidCycle(ctx context.Context, c *models.Community, cycle *models.Cycle, member models.Member, firstInstallment money.Amount, joinTxID string) error {
	mc := c.ActiveMidCycle()
	if mc == nil {
		return faults.StateConflict(faults.CodeMidCycleNotReady,
			"community %s has no active mid-cycle", c.Name).
			WithContext(faults.Context{CommunityID: c.ID.Hex()})
	}

	required := joinerpolicy.RequiredContribution(
		len(cycle.PaidMembers), len(c.ActiveMembers()), c.Settings.MinContribution)

	if firstInstallment.LessThan(c.Settings.MinContribution) {
		return faults.Validation("first installment %s below minimum contribution %s",
			firstInstallment, c.Settings.MinContribution)
	}
	if required.LessThan(firstInstallment) {
		return faults.Validation("first installment %s exceeds required contribution %s",
			firstInstallment, required)
	}

	if _, err := e.tx.DebitWallet(ctx, member.UserID, models.WalletTransaction{
		ID: joinTxID, Type: models.TxContribution, Amount: firstInstallment,
		Description: "mid-cycle join payment to " + c.Name,
	}); err != nil {
		return err
	}

	mc.MidCycleJoiners = append(mc.MidCycleJoiners, models.MidCycleJoiner{
		UserID:               member.UserID,
		RequiredContribution: required,
		PaidInstallments:     []money.Amount{firstInstallment},
		IsComplete:           firstInstallment.Equal(required),
		JoinedAt:             e.now(),
	})
	return nil
}

// joinerFor scans mid-cycles newest first for the user's joiner record.
func joinerFor(c *models.Community, userID primitive.ObjectID) *models.MidCycleJoiner {
	for i := len(c.MidCycles) - 1; i >= 0; i-- {
		if j := c.MidCycles[i].JoinerFor(userID); j != nil {
			return j
		}
	}
	return nil
}

// PayJoinerInstallment collects the second and final installment of a
// mid-cycle joiner's required contribution. The amount must settle the
// remainder exactly.
func (e *Engine) PayJoinerInstallment(ctx context.Context, communityID, userID primitive.ObjectID, amount money.Amount) error {
	movementID := newMovementID()

	err := e.tx.Run(ctx, "pay_joiner_installment", func(ctx context.Context) error {
		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}
		joiner := joinerFor(&c, userID)
		if joiner == nil {
			return faults.NotFound("mid-cycle joiner", userID.Hex()).
				WithContext(faults.Context{CommunityID: communityID.Hex(), UserID: userID.Hex()})
		}
		if joiner.IsComplete {
			return faults.StateConflict(faults.CodePaymentRequirements,
				"joiner %s already settled the required contribution", userID.Hex())
		}
		if len(joiner.PaidInstallments) >= joinerpolicy.Installments {
			return faults.StateConflict(faults.CodePaymentRequirements,
				"joiner %s exhausted the %d allowed installments", userID.Hex(), joinerpolicy.Installments)
		}

		remainder := joiner.RequiredContribution.Sub(joiner.PaidTotal())
		if !amount.Equal(remainder) {
			return faults.Validation("final installment must settle the remainder %s exactly, got %s",
				remainder, amount)
		}

		if _, err := e.tx.DebitWallet(ctx, userID, models.WalletTransaction{
			ID: movementID, Type: models.TxContribution, Amount: amount,
			Description: "mid-cycle join installment to " + c.Name,
		}); err != nil {
			return err
		}

		joiner.PaidInstallments = append(joiner.PaidInstallments, amount)
		joiner.IsComplete = true
		c.LogActivity("joiner installment paid", userID.Hex(), e.now())

		_, err = e.communities.Save(ctx, c)
		return err
	})
	if err != nil {
		return err
	}

	e.log.Info("joiner installment paid",
		zap.String("community_id", communityID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("amount", amount.String()))
	return nil
}

// DistributeBackPayments splits a settled joiner's payment: the premium
// above the minimum contribution is shared equally among members already
// paid this cycle (compensating the payouts the joiner did not fund) and
// the minimum-contribution slice enters the active mid-cycle as the
// joiner's contribution. Idempotent once distributed.
func (e *Engine) DistributeBackPayments(ctx context.Context, communityID, userID primitive.ObjectID) error {
	// Deterministic ids keep retried credits and the ledger insert from
	// double-applying.
	baseTxID := newMovementID()
	contributionID := primitive.NewObjectID()

	err := e.tx.Run(ctx, "distribute_back_payments", func(ctx context.Context) error {
		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}
		joiner := joinerFor(&c, userID)
		if joiner == nil {
			return faults.NotFound("mid-cycle joiner", userID.Hex()).
				WithContext(faults.Context{CommunityID: communityID.Hex(), UserID: userID.Hex()})
		}
		if !joiner.IsComplete {
			return faults.StateConflict(faults.CodePaymentRequirements,
				"joiner %s still owes %s of the required contribution",
				userID.Hex(), joiner.RequiredContribution.Sub(joiner.PaidTotal())).
				WithContext(faults.Context{CommunityID: communityID.Hex(), UserID: userID.Hex()})
		}
		if joiner.Distributed {
			return nil
		}

		cycle := c.ActiveCycle()
		mc := c.ActiveMidCycle()
		if cycle == nil || mc == nil {
			return faults.StateConflict(faults.CodeMidCycleNotReady,
				"community %s has no active mid-cycle", c.Name).
				WithContext(faults.Context{CommunityID: communityID.Hex()})
		}

		premium := joiner.PaidTotal().Sub(c.Settings.MinContribution)
		if premium.IsPositive() {
			if n := len(cycle.PaidMembers); n > 0 {
				share := premium.DivInt(int64(n))
				distributed := money.Zero
				for i, recipient := range cycle.PaidMembers {
					credit := share
					if i == n-1 {
						// Last recipient absorbs rounding leftovers.
						credit = premium.Sub(distributed)
					}
					if _, err := e.tx.CreditWallet(ctx, recipient, models.WalletTransaction{
						ID:     fmt.Sprintf("%s-%d", baseTxID, i),
						Type:   models.TxPayout,
						Amount: credit,
						Description: fmt.Sprintf("back-payment share from joiner in %s", c.Name),
					}); err != nil {
						return err
					}
					distributed = distributed.Add(credit)
				}
			} else {
				c.BackupFund = c.BackupFund.Add(premium)
			}
		}

		con, err := e.contributions.Insert(ctx, models.Contribution{
			ID:          contributionID,
			UserID:      userID,
			CommunityID: communityID,
			MidCycleID:  mc.ID,
			CycleNumber: mc.CycleNumber,
			Amount:      c.Settings.MinContribution,
			Date:        e.now(),
			Status:      models.ContributionSettled,
		})
		if err != nil {
			return err
		}
		applyContribution(mc, userID, con.ID, c.Settings.MinContribution)

		joiner.Distributed = true
		c.LogActivity("joiner back-payments distributed", userID.Hex(), e.now())

		_, err = e.communities.Save(ctx, c)
		return err
	})
	if err != nil {
		return err
	}

	e.log.Info("joiner back-payments distributed",
		zap.String("community_id", communityID.Hex()),
		zap.String("user_id", userID.Hex()))
	return nil
}
