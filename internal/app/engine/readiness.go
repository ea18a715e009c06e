// internal/app/engine/readiness.go
package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/policy/compensationpolicy"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// ReadinessReport is the outcome of a readiness check.
type ReadinessReport struct {
	IsReady             bool     `json:"is_ready"`
	MissingContributors []string `json:"missing_contributors,omitempty"`
}

// missingContributors lists active members owing the current mid-cycle a
// contribution: everyone still unpaid this cycle without a ledger entry.
func missingContributors(c *models.Community, cycle *models.Cycle, mc *models.MidCycle) []primitive.ObjectID {
	var missing []primitive.ObjectID
	for _, m := range c.ActiveMembers() {
		if cycle.HasPaid(m.UserID) {
			continue
		}
		if mc.ContributionFor(m.UserID) == nil {
			missing = append(missing, m.UserID)
		}
	}
	return missing
}

// compensationCovers reports whether backup-fund withdrawals already on
// the mid-cycle cover the deficit left by the missing contributors.
// Readiness earned through a full compensation survives revalidation; a
// contribution deleted afterwards widens the deficit and revokes it.
func compensationCovers(mc *models.MidCycle, minContribution money.Amount, missing int) bool {
	withdrawn := money.Zero
	for _, rec := range mc.Compensations {
		withdrawn = withdrawn.Add(rec.WithdrawalAmount)
	}
	return !withdrawn.LessThan(minContribution.MulInt(int64(missing)))
}

// ValidateMidCycleReadiness recomputes the active mid-cycle's readiness
// and refreshes the missed-contribution bookkeeping on the mid-cycle and
// the owing members.
func (e *Engine) ValidateMidCycleReadiness(ctx context.Context, communityID primitive.ObjectID) (ReadinessReport, error) {
	var report ReadinessReport
	err := e.tx.Run(ctx, "validate_midcycle", func(ctx context.Context) error {
		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}
		cycle := c.ActiveCycle()
		mc := c.ActiveMidCycle()
		if cycle == nil || mc == nil {
			return faults.StateConflict(faults.CodeMidCycleNotReady,
				"community %s has no active mid-cycle", c.Name).
				WithContext(faults.Context{CommunityID: communityID.Hex()})
		}

		missing := missingContributors(&c, cycle, mc)
		mc.IsReady = len(missing) == 0 ||
			compensationCovers(mc, c.Settings.MinContribution, len(missing))
		mc.MissedContributions = missing
		for _, userID := range missing {
			if m := c.MemberByUserID(userID); m != nil {
				m.RecordMiss(mc.CycleNumber, mc.ID, c.Settings.MinContribution)
			}
		}

		if _, err := e.communities.Save(ctx, c); err != nil {
			return err
		}

		report.IsReady = mc.IsReady
		for _, id := range missing {
			report.MissingContributors = append(report.MissingContributors, id.Hex())
		}
		return nil
	})
	if err != nil {
		return ReadinessReport{}, err
	}
	return report, nil
}

// HandleUnreadyMidCycle forces a due-but-unready mid-cycle toward
// readiness by compensating defaulters from the backup fund. The fund
// withdraws what it can; when the deficit is not fully covered the
// partial compensation is still committed and an InsufficientFunds error
// reports the shortfall so the scheduler can retry later instead of
// silently completing.
func (e *Engine) HandleUnreadyMidCycle(ctx context.Context, communityID primitive.ObjectID) error {
	var plan compensationpolicy.Plan
	var applied bool

	err := e.tx.Run(ctx, "handle_unready_midcycle", func(ctx context.Context) error {
		plan = compensationpolicy.Plan{}
		applied = false

		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}
		cycle := c.ActiveCycle()
		mc := c.ActiveMidCycle()
		if cycle == nil || mc == nil {
			return faults.StateConflict(faults.CodeMidCycleNotReady,
				"community %s has no active mid-cycle", c.Name).
				WithContext(faults.Context{CommunityID: communityID.Hex()})
		}
		if mc.IsReady {
			return nil
		}

		missing := missingContributors(&c, cycle, mc)

		// The ledger-derived count wins over any stale defaulter listing.
		plan = compensationpolicy.Compute(compensationpolicy.Input{
			ActiveMembers:        len(c.ActiveMembers()),
			Contributed:          len(mc.Contributions),
			MinContribution:      c.Settings.MinContribution,
			BackupFund:           c.BackupFund,
			BackupFundPercentage: c.Settings.BackupFundPercentage,
		})
		applied = true
		if plan.NonContributed == 0 {
			mc.IsReady = true
			_, err := e.communities.Save(ctx, c)
			return err
		}

		// An empty fund withdraws nothing; retries must not pile up
		// zero-amount audit records while waiting for the fund to refill.
		if plan.Withdrawal.IsPositive() {
			c.BackupFund = c.BackupFund.Sub(plan.FinalWithdrawal)
			mc.PayoutAmount = mc.PayoutAmount.Add(plan.FinalWithdrawal)
			mc.Compensations = append(mc.Compensations, models.CompensationRecord{
				Defaulters:       missing,
				WithdrawalAmount: plan.Withdrawal,
				BackupRetained:   plan.BackupRetained,
				FinalAmount:      plan.FinalWithdrawal,
				Timestamp:        e.now(),
			})
			c.LogActivity("defaulters compensated from backup fund", "", e.now())
		}

		for _, userID := range missing {
			m := c.MemberByUserID(userID)
			if !mc.HasDefaulter(userID) {
				mc.Defaulters = append(mc.Defaulters, userID)
				// The penalty is assessed once per mid-cycle, not once
				// per handling attempt.
				if m != nil {
					m.Penalty = m.Penalty.Add(c.Settings.Penalty)
				}
			}
			if m != nil {
				m.RecordMiss(mc.CycleNumber, mc.ID, c.Settings.MinContribution)
			}
		}

		if plan.Covered {
			mc.IsReady = true
		}

		_, err = e.communities.Save(ctx, c)
		return err
	})
	if err != nil {
		return err
	}

	if applied && !plan.Covered {
		e.log.Warn("backup fund could not cover full deficit",
			zap.String("community_id", communityID.Hex()),
			zap.String("deficit", plan.Deficit.String()),
			zap.String("withdrawal", plan.Withdrawal.String()),
			zap.String("shortfall", plan.Shortfall.String()))
		return faults.InsufficientFunds(
			"backup fund covered %s of %s deficit, short %s",
			plan.Withdrawal, plan.Deficit, plan.Shortfall).
			WithContext(faults.Context{
				CommunityID: communityID.Hex(),
				Amount:      plan.Shortfall.String(),
			})
	}
	return nil
}
