// internal/domain/models/contribution.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Contribution statuses.
const (
	ContributionSettled  = "settled"
	ContributionRefunded = "refunded"
)

// Contribution is one ledger entry: a member's payment into a specific
// mid-cycle. Settled contributions are immutable except through the
// transaction manager's update/delete path.
type Contribution struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	CommunityID primitive.ObjectID `bson:"community_id" json:"community_id"`
	MidCycleID  primitive.ObjectID `bson:"mid_cycle_id" json:"mid_cycle_id"`
	CycleNumber int                `bson:"cycle_number" json:"cycle_number"`
	Amount      money.Amount       `bson:"amount" json:"amount"`
	Date        time.Time          `bson:"date" json:"date"`
	Status      string             `bson:"status" json:"status"`
}
