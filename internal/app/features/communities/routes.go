// internal/app/features/communities/routes.go
package communities

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /communities.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ServeCreate)
	r.Get("/{communityID}", h.ServeGet)
	r.Put("/{communityID}/settings", h.ServeUpdateSettings)

	r.Post("/{communityID}/join", h.ServeJoin)
	r.Get("/{communityID}/owing", h.ServeOwingMembers)

	r.Post("/{communityID}/cycles", h.ServeStartCycle)
	r.Get("/{communityID}/readiness", h.ServeReadiness)
	r.Post("/{communityID}/compensate", h.ServeCompensate)

	r.Post("/{communityID}/contributions", h.ServeRecordContribution)
	r.Get("/{communityID}/midcycles/{midCycleID}/contributions", h.ServeListContributions)
	r.Put("/contributions/{contributionID}", h.ServeUpdateContribution)
	r.Delete("/contributions/{contributionID}", h.ServeDeleteContribution)

	r.Post("/{communityID}/payouts", h.ServeDistribute)
	r.Get("/{communityID}/payouts", h.ServePayoutHistory)

	r.Post("/{communityID}/joiners/{userID}/installments", h.ServeJoinerInstallment)
	r.Post("/{communityID}/joiners/{userID}/distribute", h.ServeDistributeBackPayments)

	return r
}
