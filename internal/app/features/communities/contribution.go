// internal/app/features/communities/contribution.go
package communities

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/features/respond"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/timeouts"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

type contributionRequest struct {
	UserID string       `json:"user_id"`
	Amount money.Amount `json:"amount"`
}

// ServeRecordContribution handles POST /communities/{communityID}/contributions.
func (h *Handler) ServeRecordContribution(w http.ResponseWriter, r *http.Request) {
	communityID, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req contributionRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respond.Err(w, h.Log, faults.Validation("invalid user_id %q", req.UserID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	con, err := h.Engine.RecordContribution(ctx, userID, communityID, req.Amount)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.Cache.Delete(readinessKey(communityID))
	respond.JSON(w, http.StatusCreated, con)
}

// ServeListContributions handles
// GET /communities/{communityID}/midcycles/{midCycleID}/contributions.
func (h *Handler) ServeListContributions(w http.ResponseWriter, r *http.Request) {
	midCycleID, err := pathID(r, "midCycleID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Contributions.ListByMidCycle(ctx, midCycleID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

type updateContributionRequest struct {
	Amount money.Amount `json:"amount"`
}

// ServeUpdateContribution handles PUT /communities/contributions/{contributionID}.
func (h *Handler) ServeUpdateContribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "contributionID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req updateContributionRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	if err := h.Tx.UpdateContribution(ctx, id, req.Amount); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeDeleteContribution handles DELETE /communities/contributions/{contributionID}.
func (h *Handler) ServeDeleteContribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "contributionID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	if err := h.Tx.DeleteContribution(ctx, id); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}
