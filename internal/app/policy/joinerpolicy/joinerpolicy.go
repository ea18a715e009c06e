// Package joinerpolicy prices entry for members joining after a cycle has
// started.
//
// Early joiners (no more than half the members already paid) owe a flat
// half-cycle premium on top of the minimum contribution. Later joiners owe
// a share proportional to how much of the cycle has elapsed, which lands
// closer to their fair share of the missed payout opportunity.
package joinerpolicy

import (
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Installments is the fixed number of payments a joiner may split the
// required contribution across.
const Installments = 2

// RequiredContribution computes what a mid-cycle joiner owes.
// missedCycles is the number of members already paid this cycle;
// memberCount is the current active member count.
func RequiredContribution(missedCycles, memberCount int, minContribution money.Amount) money.Amount {
	total := minContribution.MulInt(int64(missedCycles) + 1)

	if missedCycles <= memberCount/2 {
		half := total.DivInt(2)
		return minContribution.Add(half)
	}
	return total.MulInt(int64(missedCycles)).DivInt(int64(memberCount))
}
