package compensationpolicy

import (
	"testing"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

func TestCompute_FullCoverage(t *testing.T) {
	// 5 active, 3 contributed: 2 defaulters at 10 each = 20 deficit.
	// Fund holds 100, retains 10% of the withdrawal.
	plan := Compute(Input{
		ActiveMembers:        5,
		Contributed:          3,
		MinContribution:      money.MustParse("10"),
		BackupFund:           money.MustParse("100"),
		BackupFundPercentage: money.MustParse("0.1"),
	})

	if plan.NonContributed != 2 {
		t.Errorf("NonContributed = %d, want 2", plan.NonContributed)
	}
	if !plan.Deficit.Equal(money.MustParse("20")) {
		t.Errorf("Deficit = %s, want 20", plan.Deficit)
	}
	if !plan.Withdrawal.Equal(money.MustParse("20")) {
		t.Errorf("Withdrawal = %s, want 20", plan.Withdrawal)
	}
	if !plan.BackupRetained.Equal(money.MustParse("2")) {
		t.Errorf("BackupRetained = %s, want 2", plan.BackupRetained)
	}
	if !plan.FinalWithdrawal.Equal(money.MustParse("18")) {
		t.Errorf("FinalWithdrawal = %s, want 18", plan.FinalWithdrawal)
	}
	if !plan.Covered {
		t.Error("plan should be covered")
	}
	if !plan.Shortfall.IsZero() {
		t.Errorf("Shortfall = %s, want 0", plan.Shortfall)
	}
}

func TestCompute_PartialCoverage(t *testing.T) {
	// 4 defaulters at 25 each = 100 deficit, but the fund only holds 30.
	// The withdrawal is capped at the fund and the shortfall is reported.
	plan := Compute(Input{
		ActiveMembers:        6,
		Contributed:          2,
		MinContribution:      money.MustParse("25"),
		BackupFund:           money.MustParse("30"),
		BackupFundPercentage: money.MustParse("0.1"),
	})

	if !plan.Withdrawal.Equal(money.MustParse("30")) {
		t.Errorf("Withdrawal = %s, want 30", plan.Withdrawal)
	}
	if !plan.Shortfall.Equal(money.MustParse("70")) {
		t.Errorf("Shortfall = %s, want 70", plan.Shortfall)
	}
	if plan.Covered {
		t.Error("plan should not be covered")
	}
	if !plan.FinalWithdrawal.Equal(money.MustParse("27")) {
		t.Errorf("FinalWithdrawal = %s, want 27", plan.FinalWithdrawal)
	}
}

func TestCompute_TenMemberCommunity(t *testing.T) {
	// 10 active at 50 minimum with a 3% retention. 8 contribute, fund
	// holds 380: deficit 100, retained 3, final 97.
	plan := Compute(Input{
		ActiveMembers:        10,
		Contributed:          8,
		MinContribution:      money.MustParse("50"),
		BackupFund:           money.MustParse("380"),
		BackupFundPercentage: money.MustParse("0.03"),
	})

	if !plan.Deficit.Equal(money.MustParse("100")) {
		t.Errorf("Deficit = %s, want 100", plan.Deficit)
	}
	if !plan.Withdrawal.Equal(money.MustParse("100")) {
		t.Errorf("Withdrawal = %s, want 100", plan.Withdrawal)
	}
	if !plan.BackupRetained.Equal(money.MustParse("3")) {
		t.Errorf("BackupRetained = %s, want 3", plan.BackupRetained)
	}
	if !plan.FinalWithdrawal.Equal(money.MustParse("97")) {
		t.Errorf("FinalWithdrawal = %s, want 97", plan.FinalWithdrawal)
	}
	if !plan.Covered {
		t.Error("plan should be covered")
	}

	// Same community, fund below the deficit: partial withdrawal only.
	short := Compute(Input{
		ActiveMembers:        10,
		Contributed:          8,
		MinContribution:      money.MustParse("50"),
		BackupFund:           money.MustParse("50"),
		BackupFundPercentage: money.MustParse("0.03"),
	})
	if !short.Withdrawal.Equal(money.MustParse("50")) {
		t.Errorf("short Withdrawal = %s, want 50", short.Withdrawal)
	}
	if !short.Shortfall.Equal(money.MustParse("50")) {
		t.Errorf("short Shortfall = %s, want 50", short.Shortfall)
	}
	if short.Covered {
		t.Error("underfunded plan must not be covered")
	}
}

func TestCompute_NoDefaulters(t *testing.T) {
	plan := Compute(Input{
		ActiveMembers:        3,
		Contributed:          3,
		MinContribution:      money.MustParse("10"),
		BackupFund:           money.MustParse("50"),
		BackupFundPercentage: money.MustParse("0.1"),
	})

	if plan.NonContributed != 0 {
		t.Errorf("NonContributed = %d, want 0", plan.NonContributed)
	}
	if !plan.Withdrawal.IsZero() {
		t.Errorf("Withdrawal = %s, want 0", plan.Withdrawal)
	}
	if !plan.Covered {
		t.Error("no-defaulter plan should be covered")
	}
}

func TestCompute_MoreContributionsThanMembers(t *testing.T) {
	// Joiner entries can push contribution count past the active member
	// count; the defaulter count must clamp at zero, never go negative.
	plan := Compute(Input{
		ActiveMembers:        3,
		Contributed:          4,
		MinContribution:      money.MustParse("10"),
		BackupFund:           money.MustParse("50"),
		BackupFundPercentage: money.MustParse("0.1"),
	})

	if plan.NonContributed != 0 {
		t.Errorf("NonContributed = %d, want 0", plan.NonContributed)
	}
	if !plan.Deficit.IsZero() {
		t.Errorf("Deficit = %s, want 0", plan.Deficit)
	}
}

func TestCompute_EmptyFund(t *testing.T) {
	plan := Compute(Input{
		ActiveMembers:        4,
		Contributed:          1,
		MinContribution:      money.MustParse("10"),
		BackupFund:           money.Zero,
		BackupFundPercentage: money.MustParse("0.1"),
	})

	if !plan.Withdrawal.IsZero() {
		t.Errorf("Withdrawal = %s, want 0", plan.Withdrawal)
	}
	if !plan.Shortfall.Equal(money.MustParse("30")) {
		t.Errorf("Shortfall = %s, want 30", plan.Shortfall)
	}
	if plan.Covered {
		t.Error("empty fund cannot cover a deficit")
	}
}
