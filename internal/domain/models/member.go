// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Member statuses.
const (
	MemberActive   = "active"
	MemberInactive = "inactive"
	MemberWaiting  = "waiting"
)

// MissedContribution records what a member owes for mid-cycles they
// defaulted on, per cycle.
type MissedContribution struct {
	CycleNumber int                  `bson:"cycle_number" json:"cycle_number"`
	MidCycleIDs []primitive.ObjectID `bson:"mid_cycle_ids" json:"mid_cycle_ids"`
	Amount      money.Amount         `bson:"amount" json:"amount"`
}

// Member is a community member embedded in the Community aggregate.
// Position is nil while the member waits for the next cycle start; within
// a cycle every positioned member holds a unique integer.
type Member struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	Position *int   `bson:"position,omitempty" json:"position,omitempty"`
	Status   string `bson:"status" json:"status"`

	Penalty             money.Amount         `bson:"penalty" json:"penalty"`
	MissedContributions []MissedContribution `bson:"missed_contributions,omitempty" json:"missed_contributions,omitempty"`

	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
}

// RecordMiss accumulates a missed contribution for the given cycle.
func (m *Member) RecordMiss(cycleNumber int, midCycleID primitive.ObjectID, amount money.Amount) {
	for i := range m.MissedContributions {
		mc := &m.MissedContributions[i]
		if mc.CycleNumber != cycleNumber {
			continue
		}
		for _, id := range mc.MidCycleIDs {
			if id == midCycleID {
				return // already counted
			}
		}
		mc.MidCycleIDs = append(mc.MidCycleIDs, midCycleID)
		mc.Amount = mc.Amount.Add(amount)
		return
	}
	m.MissedContributions = append(m.MissedContributions, MissedContribution{
		CycleNumber: cycleNumber,
		MidCycleIDs: []primitive.ObjectID{midCycleID},
		Amount:      amount,
	})
}
