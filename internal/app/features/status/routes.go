// internal/app/features/status/routes.go
package status

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /status.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/queue", h.ServeQueue)
	return r
}
