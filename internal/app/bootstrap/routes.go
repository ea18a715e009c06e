// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	communitiesfeature "github.com/spanexx/KolocollectV1-sub001/internal/app/features/communities"
	healthfeature "github.com/spanexx/KolocollectV1-sub001/internal/app/features/health"
	statusfeature "github.com/spanexx/KolocollectV1-sub001/internal/app/features/status"
	walletsfeature "github.com/spanexx/KolocollectV1-sub001/internal/app/features/wallets"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so the runtime services built in
// Startup are available here.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Communities: settings, membership, cycles, contributions, payouts,
	// and the mid-cycle joiner flow.
	communitiesHandler := communitiesfeature.NewHandler(rt.Engine, rt.Tx,
		rt.Contributions, rt.Payouts, rt.Cache, logger)
	r.Mount("/communities", communitiesfeature.Routes(communitiesHandler))

	// Wallets: balances, deposits, withdrawals, transfers, fixed funds.
	walletsHandler := walletsfeature.NewHandler(rt.Wallets, rt.Tx, logger)
	r.Mount("/wallets", walletsfeature.Routes(walletsHandler))

	// Operational state of the payout job queue.
	statusHandler := statusfeature.NewHandler(rt.Queue, logger)
	r.Mount("/status", statusfeature.Routes(statusHandler))

	return r, nil
}
