// Package compensationpolicy computes how much of the backup fund covers
// members who did not contribute to a mid-cycle.
//
// The effective defaulter count is derived from the contribution ledger
// (active members minus entries), never from a possibly-stale defaulter
// listing. The backup fund can never go negative: the withdrawal is capped
// at the fund balance and any remaining shortfall is reported, not thrown.
package compensationpolicy

import (
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Input carries the figures the plan is computed from.
type Input struct {
	ActiveMembers int
	Contributed   int // entries in the mid-cycle's contribution list

	MinContribution      money.Amount
	BackupFund           money.Amount
	BackupFundPercentage money.Amount // fraction in [0,1]
}

// Plan is the computed compensation. FinalWithdrawal is what actually
// leaves the backup fund and lands on the payout; BackupRetained stays in
// the fund.
type Plan struct {
	NonContributed  int
	Deficit         money.Amount
	Withdrawal      money.Amount
	BackupRetained  money.Amount
	FinalWithdrawal money.Amount

	// Shortfall is the part of the deficit the fund could not cover.
	// Covered is false when Shortfall is positive.
	Shortfall money.Amount
	Covered   bool
}

// Compute derives the compensation plan. It never fails: an underfunded
// community yields a partial plan with Covered=false.
func Compute(in Input) Plan {
	nonContributed := in.ActiveMembers - in.Contributed
	if nonContributed < 0 {
		nonContributed = 0
	}

	deficit := in.MinContribution.MulInt(int64(nonContributed))
	withdrawal := money.Min(in.BackupFund, deficit)
	retained := withdrawal.Mul(in.BackupFundPercentage)
	final := withdrawal.Sub(retained)
	shortfall := deficit.Sub(withdrawal)

	return Plan{
		NonContributed:  nonContributed,
		Deficit:         deficit,
		Withdrawal:      withdrawal,
		BackupRetained:  retained,
		FinalWithdrawal: final,
		Shortfall:       shortfall,
		Covered:         shortfall.IsZero(),
	}
}
