// internal/domain/models/midcycle.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// NextInLine identifies the member scheduled to receive the current
// mid-cycle's payout.
type NextInLine struct {
	MemberID primitive.ObjectID `bson:"member_id" json:"member_id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
}

// MidCycleContribution groups the ledger entries one user made toward a
// single mid-cycle (installments produce several entries).
type MidCycleContribution struct {
	UserID          primitive.ObjectID   `bson:"user_id" json:"user_id"`
	ContributionIDs []primitive.ObjectID `bson:"contribution_ids" json:"contribution_ids"`
	Total           money.Amount         `bson:"total" json:"total"`
}

// CompensationRecord is the append-only audit trail of a backup-fund
// withdrawal that covered defaulters.
type CompensationRecord struct {
	Defaulters       []primitive.ObjectID `bson:"defaulters" json:"defaulters"`
	WithdrawalAmount money.Amount         `bson:"withdrawal_amount" json:"withdrawal_amount"`
	BackupRetained   money.Amount         `bson:"backup_retained" json:"backup_retained"`
	FinalAmount      money.Amount         `bson:"final_amount" json:"final_amount"`
	Timestamp        time.Time            `bson:"timestamp" json:"timestamp"`
}

// MidCycleJoiner tracks a member who joined after the cycle started and
// owes a computed back-payment, paid in at most two installments.
type MidCycleJoiner struct {
	UserID               primitive.ObjectID `bson:"user_id" json:"user_id"`
	RequiredContribution money.Amount       `bson:"required_contribution" json:"required_contribution"`
	PaidInstallments     []money.Amount     `bson:"paid_installments" json:"paid_installments"`
	IsComplete           bool               `bson:"is_complete" json:"is_complete"`
	Distributed          bool               `bson:"distributed" json:"distributed"`
	JoinedAt             time.Time          `bson:"joined_at" json:"joined_at"`
}

// PaidTotal sums the confirmed installments.
func (j *MidCycleJoiner) PaidTotal() money.Amount {
	total := money.Zero
	for _, p := range j.PaidInstallments {
		total = total.Add(p)
	}
	return total
}

// MidCycle is the period within a cycle during which contributions
// accumulate toward one member's payout. Exactly one mid-cycle per active
// cycle is incomplete at any time.
type MidCycle struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	CycleNumber int                `bson:"cycle_number" json:"cycle_number"`

	Contributions []MidCycleContribution `bson:"contributions" json:"contributions"`
	NextInLine    NextInLine             `bson:"next_in_line" json:"next_in_line"`

	IsReady    bool      `bson:"is_ready" json:"is_ready"`
	IsComplete bool      `bson:"is_complete" json:"is_complete"`
	PayoutDate time.Time `bson:"payout_date" json:"payout_date"`

	// PayoutAmount grows with contributions and compensation withdrawals
	// and never goes below zero.
	PayoutAmount money.Amount `bson:"payout_amount" json:"payout_amount"`

	Defaulters          []primitive.ObjectID `bson:"defaulters" json:"defaulters"`
	Compensations       []CompensationRecord `bson:"compensations,omitempty" json:"compensations,omitempty"`
	MidCycleJoiners     []MidCycleJoiner     `bson:"mid_cycle_joiners,omitempty" json:"mid_cycle_joiners,omitempty"`
	MissedContributions []primitive.ObjectID `bson:"missed_contributions,omitempty" json:"missed_contributions,omitempty"`
}

// ContributionFor returns the user's entry, or nil if they have not
// contributed this mid-cycle.
func (mc *MidCycle) ContributionFor(userID primitive.ObjectID) *MidCycleContribution {
	for i := range mc.Contributions {
		if mc.Contributions[i].UserID == userID {
			return &mc.Contributions[i]
		}
	}
	return nil
}

// JoinerFor returns the joiner record for the user, if any.
func (mc *MidCycle) JoinerFor(userID primitive.ObjectID) *MidCycleJoiner {
	for i := range mc.MidCycleJoiners {
		if mc.MidCycleJoiners[i].UserID == userID {
			return &mc.MidCycleJoiners[i]
		}
	}
	return nil
}

// HasDefaulter reports whether the user id is already listed.
func (mc *MidCycle) HasDefaulter(userID primitive.ObjectID) bool {
	for _, id := range mc.Defaulters {
		if id == userID {
			return true
		}
	}
	return false
}
