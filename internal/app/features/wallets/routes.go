// internal/app/features/wallets/routes.go
package wallets

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /wallets.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ServeCreate)
	r.Get("/{userID}", h.ServeGet)
	r.Post("/{userID}/deposit", h.ServeDeposit)
	r.Post("/{userID}/withdraw", h.ServeWithdraw)
	r.Post("/{userID}/transfer", h.ServeTransfer)
	r.Post("/{userID}/fix", h.ServeFix)

	return r
}
