// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Positioning modes for payout-order assignment at cycle start.
const (
	PositioningSequential = "sequential"
	PositioningRandom     = "random"
)

// Contribution frequencies.
const (
	FrequencyHourly  = "hourly"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// CommunitySettings is the per-community configuration block.
//
// BackupFundPercentage is a decimal fraction in [0,1] (0.03 means 3%).
// Values outside that range are rejected when settings are created or
// updated; nothing downstream ever divides by 100.
type CommunitySettings struct {
	MinContribution       money.Amount `bson:"min_contribution" json:"min_contribution"`
	MaxMembers            int          `bson:"max_members" json:"max_members"`
	BackupFundPercentage  money.Amount `bson:"backup_fund_percentage" json:"backup_fund_percentage"`
	ContributionFrequency string       `bson:"contribution_frequency" json:"contribution_frequency"`
	Penalty               money.Amount `bson:"penalty" json:"penalty"`
	NumMissContribution   int          `bson:"num_miss_contribution" json:"num_miss_contribution"`
	PositioningMode       string       `bson:"positioning_mode" json:"positioning_mode"`
}

// ContributionInterval maps the configured frequency to the span between a
// mid-cycle's start and its payout date.
func (s CommunitySettings) ContributionInterval() time.Duration {
	switch s.ContributionFrequency {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// ActivityEntry is one line of the community activity log. The log is
// capped and cleared at every cycle start.
type ActivityEntry struct {
	Message string    `bson:"message" json:"message"`
	UserID  string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Date    time.Time `bson:"date" json:"date"`
}

// Community is the aggregate root for the rotation engine. Cycles,
// mid-cycles, and members are embedded so that one CAS-guarded save covers
// every invariant that spans them. Wallets and contributions live in their
// own collections and are reached only through the transaction manager.
type Community struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"name_ci"`
	AdminID primitive.ObjectID `bson:"admin_id" json:"admin_id"`

	Members   []Member   `bson:"members" json:"members"`
	Cycles    []Cycle    `bson:"cycles" json:"cycles"`
	MidCycles []MidCycle `bson:"mid_cycles" json:"mid_cycles"`

	BackupFund money.Amount      `bson:"backup_fund" json:"backup_fund"`
	Settings   CommunitySettings `bson:"settings" json:"settings"`

	// NextPayout mirrors the active mid-cycle's payout date so the
	// scheduler can scan communities without unpacking mid-cycles.
	NextPayout time.Time `bson:"next_payout,omitempty" json:"next_payout,omitempty"`

	ActivityLog []ActivityEntry `bson:"activity_log,omitempty" json:"activity_log,omitempty"`

	// Version is the optimistic-concurrency token. Every save must match
	// the loaded version and bumps it by one.
	Version int64 `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ActiveCycle returns the (at most one) incomplete cycle.
func (c *Community) ActiveCycle() *Cycle {
	for i := range c.Cycles {
		if !c.Cycles[i].IsComplete {
			return &c.Cycles[i]
		}
	}
	return nil
}

// ActiveMidCycle returns the (at most one) incomplete mid-cycle.
func (c *Community) ActiveMidCycle() *MidCycle {
	for i := range c.MidCycles {
		if !c.MidCycles[i].IsComplete {
			return &c.MidCycles[i]
		}
	}
	return nil
}

// MidCycleByID resolves an embedded mid-cycle.
func (c *Community) MidCycleByID(id primitive.ObjectID) *MidCycle {
	for i := range c.MidCycles {
		if c.MidCycles[i].ID == id {
			return &c.MidCycles[i]
		}
	}
	return nil
}

// MemberByUserID resolves a member by the backing user id.
func (c *Community) MemberByUserID(userID primitive.ObjectID) *Member {
	for i := range c.Members {
		if c.Members[i].UserID == userID {
			return &c.Members[i]
		}
	}
	return nil
}

// ActiveMembers returns members in the rotation (status active).
func (c *Community) ActiveMembers() []*Member {
	var out []*Member
	for i := range c.Members {
		if c.Members[i].Status == MemberActive {
			out = append(out, &c.Members[i])
		}
	}
	return out
}

// LogActivity appends to the capped activity log.
func (c *Community) LogActivity(msg, userID string, at time.Time) {
	const cap = 100
	c.ActivityLog = append(c.ActivityLog, ActivityEntry{Message: msg, UserID: userID, Date: at})
	if len(c.ActivityLog) > cap {
		c.ActivityLog = c.ActivityLog[len(c.ActivityLog)-cap:]
	}
}
