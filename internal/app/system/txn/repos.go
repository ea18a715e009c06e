// internal/app/system/txn/repos.go
package txn

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// WalletRepo is the wallet persistence port. Save must perform a
// compare-and-swap on the version token and return faults.ErrStaleVersion
// (wrapped) on a mismatch.
type WalletRepo interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (models.Wallet, error)
	Create(ctx context.Context, userID primitive.ObjectID) (models.Wallet, error)
	Save(ctx context.Context, w models.Wallet) (models.Wallet, error)
}

// ContributionRepo is the contribution ledger port.
type ContributionRepo interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Contribution, error)
	Insert(ctx context.Context, con models.Contribution) (models.Contribution, error)
	UpdateAmount(ctx context.Context, id primitive.ObjectID, amount money.Amount) error
	MarkRefunded(ctx context.Context, id primitive.ObjectID) error
}

// CommunityRepo is the community aggregate port, same CAS contract as
// WalletRepo.
type CommunityRepo interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error)
	Save(ctx context.Context, c models.Community) (models.Community, error)
}
