// internal/app/features/communities/cycle.go
package communities

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/features/respond"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/timeouts"
)

func readinessKey(id primitive.ObjectID) string {
	return "readiness:" + id.Hex()
}

// ServeStartCycle handles POST /communities/{communityID}/cycles.
func (h *Handler) ServeStartCycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	cycle, err := h.Engine.StartNewCycle(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.Cache.Delete(readinessKey(id))
	respond.JSON(w, http.StatusCreated, cycle)
}

// ServeReadiness handles GET /communities/{communityID}/readiness.
// The report is cached briefly; contribution writes invalidate it.
func (h *Handler) ServeReadiness(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	if cached, ok := h.Cache.Get(readinessKey(id)); ok {
		respond.JSON(w, http.StatusOK, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	report, err := h.Engine.ValidateMidCycleReadiness(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.Cache.Set(readinessKey(id), report)
	respond.JSON(w, http.StatusOK, report)
}

// ServeCompensate handles POST /communities/{communityID}/compensate.
// A partial compensation reports 422 with the shortfall; the state that
// could be applied is already committed.
func (h *Handler) ServeCompensate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	err = h.Engine.HandleUnreadyMidCycle(ctx, id)
	h.Cache.Delete(readinessKey(id))
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "compensated"})
}

// ServeDistribute handles POST /communities/{communityID}/payouts.
func (h *Handler) ServeDistribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	result, err := h.Engine.DistributePayouts(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.Cache.Delete(readinessKey(id))
	respond.JSON(w, http.StatusOK, result)
}

// ServePayoutHistory handles GET /communities/{communityID}/payouts.
func (h *Handler) ServePayoutHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	payouts, err := h.Payouts.ListByCommunity(ctx, id, 100)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, payouts)
}
