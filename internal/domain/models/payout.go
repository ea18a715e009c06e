// internal/domain/models/payout.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Payout is the append-only record of a completed mid-cycle distribution.
// Reporting collaborators read these; nothing ever updates them.
type Payout struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	CommunityID     primitive.ObjectID `bson:"community_id" json:"community_id"`
	MidCycleID      primitive.ObjectID `bson:"mid_cycle_id" json:"mid_cycle_id"`
	CycleNumber     int                `bson:"cycle_number" json:"cycle_number"`
	RecipientUserID primitive.ObjectID `bson:"recipient_user_id" json:"recipient_user_id"`
	Amount          money.Amount       `bson:"amount" json:"amount"`
	PenaltyDeducted money.Amount       `bson:"penalty_deducted" json:"penalty_deducted"`
	Date            time.Time          `bson:"date" json:"date"`
}
