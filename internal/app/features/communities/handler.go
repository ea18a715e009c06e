// internal/app/features/communities/handler.go

// Package communities is the HTTP surface of the rotation engine:
// community lifecycle, membership, contributions, readiness, and payout
// distribution.
package communities

import (
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/engine"
	contributionstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/contributions"
	payoutstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/payouts"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/cache"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/txn"
)

// Handler holds the dependencies for community endpoints.
type Handler struct {
	Engine        *engine.Engine
	Tx            *txn.Manager
	Contributions *contributionstore.Store
	Payouts       *payoutstore.Store
	Cache         *cache.Cache
	Log           *zap.Logger
}

// NewHandler constructs the communities handler.
func NewHandler(eng *engine.Engine, tx *txn.Manager, contributions *contributionstore.Store, payouts *payoutstore.Store, c *cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		Engine:        eng,
		Tx:            tx,
		Contributions: contributions,
		Payouts:       payouts,
		Cache:         c,
		Log:           logger,
	}
}
