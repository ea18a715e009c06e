// internal/app/system/notify/notify.go

// Package notify is the outbound notification port. The transport (email,
// push) is an external collaborator; a failed notification is logged and
// never rolls back or fails the financial operation that triggered it.
package notify

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Notifier receives hooks after financial operations commit.
type Notifier interface {
	ContributionRecorded(ctx context.Context, userID, communityID primitive.ObjectID, amount money.Amount) error
	PayoutDistributed(ctx context.Context, userID, communityID primitive.ObjectID, amount money.Amount) error
}

// LogNotifier writes notifications to the log. It stands in for the real
// notification service in development and tests.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) ContributionRecorded(ctx context.Context, userID, communityID primitive.ObjectID, amount money.Amount) error {
	n.log.Info("notify: contribution recorded",
		zap.String("user_id", userID.Hex()),
		zap.String("community_id", communityID.Hex()),
		zap.String("amount", amount.String()))
	return nil
}

func (n *LogNotifier) PayoutDistributed(ctx context.Context, userID, communityID primitive.ObjectID, amount money.Amount) error {
	n.log.Info("notify: payout distributed",
		zap.String("user_id", userID.Hex()),
		zap.String("community_id", communityID.Hex()),
		zap.String("amount", amount.String()))
	return nil
}
