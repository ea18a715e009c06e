package engine_test

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

func TestDistributePayouts(t *testing.T) {
	w := newWorld(t)
	c, userIDs := w.newCommunity(t, 3, "100")
	w.startCycle(t, c.ID)
	w.contributeAll(t, c.ID, userIDs)
	if _, err := w.eng.ValidateMidCycleReadiness(context.Background(), c.ID); err != nil {
		t.Fatalf("ValidateMidCycleReadiness: %v", err)
	}

	c = w.reload(t, c.ID)
	recipientID := c.ActiveMidCycle().NextInLine.UserID
	before := w.walletOf(t, recipientID)

	result, err := w.eng.DistributePayouts(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("DistributePayouts: %v", err)
	}
	if result.RecipientUserID != recipientID {
		t.Errorf("recipient = %s, want %s", result.RecipientUserID.Hex(), recipientID.Hex())
	}
	if !result.Amount.Equal(money.MustParse("30")) {
		t.Errorf("amount = %s, want 30", result.Amount)
	}
	if result.CycleCompleted {
		t.Error("cycle should not complete after the first payout")
	}

	// The recipient's wallet received exactly the pot.
	after := w.walletOf(t, recipientID)
	if !after.AvailableBalance.Sub(before.AvailableBalance).Equal(money.MustParse("30")) {
		t.Errorf("wallet delta = %s, want 30", after.AvailableBalance.Sub(before.AvailableBalance))
	}

	// A payout record was written and the rotation rolled over.
	payouts := w.payouts.All()
	if len(payouts) != 1 {
		t.Fatalf("payout records = %d, want 1", len(payouts))
	}
	if payouts[0].RecipientUserID != recipientID {
		t.Error("payout record has wrong recipient")
	}

	c = w.reload(t, c.ID)
	if !c.ActiveCycle().HasPaid(recipientID) {
		t.Error("recipient not marked paid")
	}
	next := c.ActiveMidCycle()
	if next == nil {
		t.Fatal("no next mid-cycle opened")
	}
	if next.NextInLine.UserID == recipientID {
		t.Error("next mid-cycle targets the member just paid")
	}
}

func TestDistributePayouts_PenaltyDeduction(t *testing.T) {
	w := newWorld(t)
	c, userIDs := w.newCommunity(t, 3, "100")
	w.startCycle(t, c.ID)
	w.contributeAll(t, c.ID, userIDs)
	if _, err := w.eng.ValidateMidCycleReadiness(context.Background(), c.ID); err != nil {
		t.Fatalf("ValidateMidCycleReadiness: %v", err)
	}

	// Burden the recipient with a penalty smaller than the pot.
	c = w.reload(t, c.ID)
	recipientID := c.ActiveMidCycle().NextInLine.UserID
	w.setPenalty(t, c.ID, recipientID, "7")
	fundBefore := w.reload(t, c.ID).BackupFund

	result, err := w.eng.DistributePayouts(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("DistributePayouts: %v", err)
	}
	if !result.PenaltyDeducted.Equal(money.MustParse("7")) {
		t.Errorf("deducted = %s, want 7", result.PenaltyDeducted)
	}
	if !result.Amount.Equal(money.MustParse("23")) {
		t.Errorf("net amount = %s, want 23", result.Amount)
	}

	c = w.reload(t, c.ID)
	if !c.BackupFund.Sub(fundBefore).Equal(money.MustParse("7")) {
		t.Errorf("backup fund delta = %s, want 7", c.BackupFund.Sub(fundBefore))
	}
	if !c.MemberByUserID(recipientID).Penalty.IsZero() {
		t.Errorf("penalty after payout = %s, want 0", c.MemberByUserID(recipientID).Penalty)
	}
}

func TestDistributePayouts_PenaltyNeverExceedsPot(t *testing.T) {
	w := newWorld(t)
	c, userIDs := w.newCommunity(t, 2, "100")
	w.startCycle(t, c.ID)
	w.contributeAll(t, c.ID, userIDs)
	if _, err := w.eng.ValidateMidCycleReadiness(context.Background(), c.ID); err != nil {
		t.Fatalf("ValidateMidCycleReadiness: %v", err)
	}

	c = w.reload(t, c.ID)
	recipientID := c.ActiveMidCycle().NextInLine.UserID
	w.setPenalty(t, c.ID, recipientID, "50") // pot is only 20

	result, err := w.eng.DistributePayouts(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("DistributePayouts: %v", err)
	}
	if !result.PenaltyDeducted.Equal(money.MustParse("20")) {
		t.Errorf("deducted = %s, want capped at pot 20", result.PenaltyDeducted)
	}
	if !result.Amount.IsZero() {
		t.Errorf("net amount = %s, want 0", result.Amount)
	}

	c = w.reload(t, c.ID)
	if !c.MemberByUserID(recipientID).Penalty.Equal(money.MustParse("30")) {
		t.Errorf("remaining penalty = %s, want 30", c.MemberByUserID(recipientID).Penalty)
	}
}

func TestDistributePayouts_NotReady(t *testing.T) {
	w := newWorld(t)
	c, _ := w.newCommunity(t, 2, "100")
	w.startCycle(t, c.ID)

	_, err := w.eng.DistributePayouts(context.Background(), c.ID)
	if !faults.HasCode(err, faults.CodeMidCycleNotReady) {
		t.Errorf("error code = %q, want %q", faults.CodeOf(err), faults.CodeMidCycleNotReady)
	}
}

func TestDistributePayouts_NoActiveCycleIsNoop(t *testing.T) {
	w := newWorld(t)
	c, _ := w.newCommunity(t, 2, "100")

	result, err := w.eng.DistributePayouts(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("DistributePayouts: %v", err)
	}
	if !result.AlreadyComplete {
		t.Error("expected AlreadyComplete with no active cycle")
	}
	if len(w.payouts.All()) != 0 {
		t.Error("no payout record should be written")
	}
}

func TestFullRotation_EveryMemberPaidOnce(t *testing.T) {
	w := newWorld(t)
	c, userIDs := w.newCommunity(t, 3, "500")
	w.startCycle(t, c.ID)
	w.runRotationToCompletion(t, c.ID, userIDs)

	paid := map[primitive.ObjectID]int{}
	for _, p := range w.payouts.All() {
		paid[p.RecipientUserID]++
	}
	if len(paid) != 3 {
		t.Fatalf("distinct recipients = %d, want 3", len(paid))
	}
	for id, n := range paid {
		if n != 1 {
			t.Errorf("member %s paid %d times, want 1", id.Hex(), n)
		}
	}

	c = w.reload(t, c.ID)
	if c.ActiveCycle() != nil {
		t.Error("cycle still active after full rotation")
	}
	if c.ActiveMidCycle() != nil {
		t.Error("mid-cycle still active after full rotation")
	}
	if !c.NextPayout.IsZero() {
		t.Error("NextPayout not cleared after cycle completion")
	}
}

func TestFullRotation_ConservesMoney(t *testing.T) {
	w := newWorld(t)
	c, userIDs := w.newCommunity(t, 3, "500")

	totalBefore := money.Zero
	for _, id := range userIDs {
		totalBefore = totalBefore.Add(w.walletOf(t, id).AvailableBalance)
	}

	w.startCycle(t, c.ID)
	w.runRotationToCompletion(t, c.ID, userIDs)

	// Nobody defaulted, so every contributed unit came back as a payout:
	// wallet money plus the (empty) backup fund is conserved.
	c = w.reload(t, c.ID)
	totalAfter := c.BackupFund
	for _, id := range userIDs {
		totalAfter = totalAfter.Add(w.walletOf(t, id).AvailableBalance)
	}
	if !totalAfter.Equal(totalBefore) {
		t.Errorf("total money after rotation = %s, want %s", totalAfter, totalBefore)
	}
}

func TestOwingMembers(t *testing.T) {
	w := newWorld(t)
	c, userIDs := w.newCommunity(t, 3, "100")
	w.startCycle(t, c.ID)
	w.contributeAll(t, c.ID, userIDs[:2])

	// Defaulter gets a penalty and a booked miss via compensation.
	w.setBackupFund(t, c.ID, "50")
	if err := w.eng.HandleUnreadyMidCycle(context.Background(), c.ID); err != nil {
		t.Fatalf("HandleUnreadyMidCycle: %v", err)
	}

	owing, err := w.eng.OwingMembers(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("OwingMembers: %v", err)
	}
	if len(owing) != 1 {
		t.Fatalf("owing members = %d, want 1", len(owing))
	}
	row := owing[0]
	if row.UserID != userIDs[2] {
		t.Errorf("owing member = %s, want %s", row.UserID.Hex(), userIDs[2].Hex())
	}
	if !row.Penalty.Equal(money.MustParse("2")) {
		t.Errorf("penalty = %s, want 2", row.Penalty)
	}
	if !row.MissedOwed.Equal(money.MustParse("10")) {
		t.Errorf("missed = %s, want 10", row.MissedOwed)
	}
	if !row.Total.Equal(money.MustParse("12")) {
		t.Errorf("total = %s, want 12", row.Total)
	}
}
