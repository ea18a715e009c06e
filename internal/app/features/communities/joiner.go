// internal/app/features/communities/joiner.go
package communities

import (
	"context"
	"net/http"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/features/respond"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/timeouts"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

type installmentRequest struct {
	Amount money.Amount `json:"amount"`
}

// ServeJoinerInstallment handles
// POST /communities/{communityID}/joiners/{userID}/installments.
func (h *Handler) ServeJoinerInstallment(w http.ResponseWriter, r *http.Request) {
	communityID, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req installmentRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	if err := h.Engine.PayJoinerInstallment(ctx, communityID, userID, req.Amount); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "installment_paid"})
}

// ServeDistributeBackPayments handles
// POST /communities/{communityID}/joiners/{userID}/distribute.
func (h *Handler) ServeDistributeBackPayments(w http.ResponseWriter, r *http.Request) {
	communityID, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	if err := h.Engine.DistributeBackPayments(ctx, communityID, userID); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.Cache.Delete(readinessKey(communityID))
	respond.JSON(w, http.StatusOK, map[string]string{"status": "distributed"})
}
