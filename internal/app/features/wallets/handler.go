// internal/app/features/wallets/handler.go

// Package wallets exposes wallet operations: open, inspect, deposit,
// withdraw, transfer, and fixing funds.
package wallets

import (
	"go.uber.org/zap"

	walletstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/wallets"
	"github.com/spanexx/KolocollectV1-sub001/internal/app/system/txn"
)

// Handler holds the dependencies for wallet endpoints.
type Handler struct {
	Wallets *walletstore.Store
	Tx      *txn.Manager
	Log     *zap.Logger
}

// NewHandler constructs the wallets handler.
func NewHandler(wallets *walletstore.Store, tx *txn.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Wallets: wallets,
		Tx:      tx,
		Log:     logger,
	}
}
