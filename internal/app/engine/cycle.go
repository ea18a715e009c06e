// internal/app/engine/cycle.go
package engine

import (
	"context"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/policy/positionpolicy"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

func assignPositions(mode string, userIDs []primitive.ObjectID, rnd *rand.Rand) map[primitive.ObjectID]int {
	return positionpolicy.Assign(mode, userIDs, rnd)
}

// StartNewCycle opens the next cycle: waiting members are activated,
// positions are recomputed for every active member, the activity log is
// cleared, and the first mid-cycle starts immediately.
func (e *Engine) StartNewCycle(ctx context.Context, communityID primitive.ObjectID) (models.Cycle, error) {
	var out models.Cycle
	err := e.tx.Run(ctx, "start_new_cycle", func(ctx context.Context) error {
		c, err := e.load(ctx, communityID)
		if err != nil {
			return err
		}
		if active := c.ActiveCycle(); active != nil {
			return faults.StateConflict(faults.CodeActiveCycleExists,
				"cycle %d is still running", active.CycleNumber).
				WithContext(faults.Context{CommunityID: communityID.Hex()})
		}

		now := e.now()

		// Waiting joiners from the previous cycle enter the rotation now.
		for i := range c.Members {
			if c.Members[i].Status == models.MemberWaiting {
				c.Members[i].Status = models.MemberActive
			}
		}

		active := c.ActiveMembers()
		if len(active) < 2 {
			return faults.Validation("cannot start a cycle with %d active members", len(active))
		}

		userIDs := make([]primitive.ObjectID, 0, len(active))
		for _, m := range active {
			userIDs = append(userIDs, m.UserID)
		}
		positions := e.shuffled(c.Settings.PositioningMode, userIDs)
		for _, m := range active {
			pos := positions[m.UserID]
			m.Position = &pos
		}

		next := 1
		if n := len(c.Cycles); n > 0 {
			next = c.Cycles[n-1].CycleNumber + 1
		}
		cycle := models.Cycle{
			ID:          primitive.NewObjectID(),
			CycleNumber: next,
			StartDate:   now,
		}
		c.Cycles = append(c.Cycles, cycle)

		c.ActivityLog = nil
		c.LogActivity("cycle started", "", now)

		if err := e.startMidCycle(&c, &c.Cycles[len(c.Cycles)-1]); err != nil {
			return err
		}

		saved, err := e.communities.Save(ctx, c)
		if err != nil {
			return err
		}
		out = saved.Cycles[len(saved.Cycles)-1]
		return nil
	})
	if err != nil {
		return models.Cycle{}, err
	}

	e.log.Info("cycle started",
		zap.String("community_id", communityID.Hex()),
		zap.Int("cycle_number", out.CycleNumber))
	return out, nil
}

// startMidCycle appends a fresh mid-cycle for the next unpaid member and
// mirrors its payout date onto the community. The caller saves.
func (e *Engine) startMidCycle(c *models.Community, cycle *models.Cycle) error {
	next := positionpolicy.NextInLine(c.Members, cycle.PaidMembers)
	if next == nil {
		return faults.Validation("no unpaid positioned members left in cycle %d", cycle.CycleNumber)
	}

	now := e.now()
	mc := models.MidCycle{
		ID:          primitive.NewObjectID(),
		CycleNumber: cycle.CycleNumber,
		NextInLine: models.NextInLine{
			MemberID: next.ID,
			UserID:   next.UserID,
		},
		PayoutDate:   now.Add(c.Settings.ContributionInterval()),
		PayoutAmount: money.Zero,
	}
	c.MidCycles = append(c.MidCycles, mc)
	cycle.MidCycleIDs = append(cycle.MidCycleIDs, mc.ID)
	c.NextPayout = mc.PayoutDate
	return nil
}

// finishMidCycle marks the active mid-cycle complete and either rolls
// over to the next one or closes the cycle when everyone has been paid.
// Returns true when the cycle completed.
func (e *Engine) finishMidCycle(c *models.Community, cycle *models.Cycle, mc *models.MidCycle) (bool, error) {
	mc.IsComplete = true
	mc.IsReady = true

	if next := positionpolicy.NextInLine(c.Members, cycle.PaidMembers); next == nil {
		cycle.IsComplete = true
		cycle.EndDate = e.now()
		c.NextPayout = time.Time{}
		return true, nil
	}
	return false, e.startMidCycle(c, cycle)
}
