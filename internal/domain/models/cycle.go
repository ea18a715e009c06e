// internal/domain/models/cycle.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cycle is one full rotation: it completes when every active member has
// received exactly one payout. CycleNumber is strictly increasing per
// community.
type Cycle struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	CycleNumber int                  `bson:"cycle_number" json:"cycle_number"`
	MidCycleIDs []primitive.ObjectID `bson:"mid_cycle_ids" json:"mid_cycle_ids"`

	// PaidMembers lists the user ids already paid out this cycle, in
	// payout order.
	PaidMembers []primitive.ObjectID `bson:"paid_members" json:"paid_members"`

	IsComplete bool      `bson:"is_complete" json:"is_complete"`
	StartDate  time.Time `bson:"start_date" json:"start_date"`
	EndDate    time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`
}

// HasPaid reports whether the user already received this cycle's payout.
func (cy *Cycle) HasPaid(userID primitive.ObjectID) bool {
	for _, id := range cy.PaidMembers {
		if id == userID {
			return true
		}
	}
	return false
}
