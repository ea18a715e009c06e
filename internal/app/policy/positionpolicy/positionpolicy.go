// Package positionpolicy decides payout order.
//
// Positions are assigned exactly once per cycle start:
//   - sequential: members sorted by user id ascending, numbered 1..N
//   - random: a Fisher–Yates shuffle over the position slots
//
// Members joining after a cycle starts keep a nil position until the next
// cycle; existing members are never renumbered mid-cycle.
package positionpolicy

import (
	"math/rand"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
)

// Assign returns a 1-based position per user id for the given mode.
// rnd is only consulted in random mode; passing a seeded source makes the
// shuffle reproducible in tests.
func Assign(mode string, userIDs []primitive.ObjectID, rnd *rand.Rand) map[primitive.ObjectID]int {
	ordered := make([]primitive.ObjectID, len(userIDs))
	copy(ordered, userIDs)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Hex() < ordered[j].Hex()
	})

	if mode == models.PositioningRandom {
		rnd.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}

	positions := make(map[primitive.ObjectID]int, len(ordered))
	for i, id := range ordered {
		positions[id] = i + 1
	}
	return positions
}

// NextInLine picks the active, positioned member with the lowest position
// who has not yet been paid this cycle. Returns nil when everyone has
// been paid.
func NextInLine(members []models.Member, paid []primitive.ObjectID) *models.Member {
	paidSet := make(map[primitive.ObjectID]struct{}, len(paid))
	for _, id := range paid {
		paidSet[id] = struct{}{}
	}

	var next *models.Member
	for i := range members {
		m := &members[i]
		if m.Status != models.MemberActive || m.Position == nil {
			continue
		}
		if _, ok := paidSet[m.UserID]; ok {
			continue
		}
		if next == nil || *m.Position < *next.Position {
			next = m
		}
	}
	return next
}
