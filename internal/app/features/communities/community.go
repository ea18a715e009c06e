// internal/app/features/communities/community.go
package communities

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/features/respond"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/timeouts"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// pathID parses an ObjectID URL parameter.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, faults.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return faults.Validation("invalid request body: %v", err)
	}
	return nil
}

type settingsRequest struct {
	MinContribution       money.Amount `json:"min_contribution"`
	MaxMembers            int          `json:"max_members"`
	BackupFundPercentage  money.Amount `json:"backup_fund_percentage"`
	ContributionFrequency string       `json:"contribution_frequency"`
	Penalty               money.Amount `json:"penalty"`
	NumMissContribution   int          `json:"num_miss_contribution"`
	PositioningMode       string       `json:"positioning_mode"`
}

func (s settingsRequest) toModel() models.CommunitySettings {
	return models.CommunitySettings{
		MinContribution:       s.MinContribution,
		MaxMembers:            s.MaxMembers,
		BackupFundPercentage:  s.BackupFundPercentage,
		ContributionFrequency: s.ContributionFrequency,
		Penalty:               s.Penalty,
		NumMissContribution:   s.NumMissContribution,
		PositioningMode:       s.PositioningMode,
	}
}

type createRequest struct {
	Name     string          `json:"name"`
	AdminID  string          `json:"admin_id"`
	Settings settingsRequest `json:"settings"`
}

// ServeCreate handles POST /communities.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	adminID, err := primitive.ObjectIDFromHex(req.AdminID)
	if err != nil {
		respond.Err(w, h.Log, faults.Validation("invalid admin_id %q", req.AdminID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	c, err := h.Engine.CreateCommunity(ctx, adminID, req.Name, req.Settings.toModel())
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

// ServeGet handles GET /communities/{communityID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	c, err := h.Engine.GetCommunity(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// ServeUpdateSettings handles PUT /communities/{communityID}/settings.
func (h *Handler) ServeUpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if err := h.Engine.UpdateSettings(ctx, id, req.toModel()); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type joinRequest struct {
	UserID       string        `json:"user_id"`
	Contribution *money.Amount `json:"contribution,omitempty"`
}

// ServeJoin handles POST /communities/{communityID}/join.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	var req joinRequest
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

	member, err := h.Engine.JoinCommunity(ctx, id, userID, req.Contribution)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.Cache.Delete(readinessKey(id))
	respond.JSON(w, http.StatusCreated, member)
}

// ServeOwingMembers handles GET /communities/{communityID}/owing.
func (h *Handler) ServeOwingMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "communityID")
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	owing, err := h.Engine.OwingMembers(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, owing)
}
