// internal/app/features/status/handler.go

// Package status reports operational state: queue depth and processing
// counters for the payout job queue.
package status

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/features/respond"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/queue"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/timeouts"
)

// Handler holds dependencies for the status endpoints.
type Handler struct {
	Queue queue.Queue
	Log   *zap.Logger
}

// NewHandler constructs the status handler.
func NewHandler(q queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{Queue: q, Log: logger}
}

// ServeQueue handles GET /status/queue.
func (h *Handler) ServeQueue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	stats, err := h.Queue.Stats(ctx)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
