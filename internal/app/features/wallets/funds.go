// internal/app/features/wallets/funds.go
package wallets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/features/respond"
	walletstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/wallets"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/timeouts"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

func userID(r *http.Request) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, "userID")
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, faults.Validation("invalid userID %q", raw)
	}
	return id, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return faults.Validation("invalid request body: %v", err)
	}
	return nil
}

type createRequest struct {
	UserID string `json:"user_id"`
}

// ServeCreate handles POST /wallets.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	id, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respond.Err(w, h.Log, faults.Validation("invalid user_id %q", req.UserID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	wallet, err := h.Wallets.Create(ctx, id)
	if err != nil {
		if errors.Is(err, walletstore.ErrDuplicate) {
			respond.Err(w, h.Log, faults.Validation("user %s already has a wallet", id.Hex()))
			return
		}
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, wallet)
}

// ServeGet handles GET /wallets/{userID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	wallet, err := h.Wallets.GetByUser(ctx, id)
	if err != nil {
		if errors.Is(err, walletstore.ErrNotFound) {
			respond.Err(w, h.Log, faults.NotFound("wallet", id.Hex()))
			return
		}
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, wallet)
}

type fundsRequest struct {
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
}

// ServeDeposit handles POST /wallets/{userID}/deposit.
func (h *Handler) ServeDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req fundsRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	wallet, err := h.Tx.AddFunds(ctx, id, req.Amount, req.Description)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, wallet)
}

// ServeWithdraw handles POST /wallets/{userID}/withdraw.
func (h *Handler) ServeWithdraw(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req fundsRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	wallet, err := h.Tx.WithdrawFunds(ctx, id, req.Amount, req.Description)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, wallet)
}

type transferRequest struct {
	ToUserID    string       `json:"to_user_id"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
}

// ServeTransfer handles POST /wallets/{userID}/transfer.
func (h *Handler) ServeTransfer(w http.ResponseWriter, r *http.Request) {
	from, err := userID(r)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req transferRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	to, err := primitive.ObjectIDFromHex(req.ToUserID)
	if err != nil {
		respond.Err(w, h.Log, faults.Validation("invalid to_user_id %q", req.ToUserID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	wallet, err := h.Tx.TransferFunds(ctx, from, to, req.Amount, req.Description)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, wallet)
}

type fixRequest struct {
	Amount  money.Amount `json:"amount"`
	EndDate time.Time    `json:"end_date"`
}

// ServeFix handles POST /wallets/{userID}/fix.
func (h *Handler) ServeFix(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req fixRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if !req.EndDate.After(time.Now()) {
		respond.Err(w, h.Log, faults.Validation("end_date must be in the future"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	wallet, err := h.Tx.FixFunds(ctx, id, req.Amount, req.EndDate)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, wallet)
}
