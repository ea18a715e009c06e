// internal/app/system/txn/manager.go
package txn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	communitystore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/communities"
	contributionstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/contributions"
	walletstore "github.com/spanexx/KolocollectV1-sub001/internal/app/store/wallets"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// newMovementID mints a wallet transaction id. The operations below
// generate their ids before entering Run, so a retried closure re-applies
// the same movement and the wallet log dedupes it instead of taking the
// amount twice.
func newMovementID() string { return uuid.NewString() }

// CreditWallet applies a single credit without retry. Callers composing a
// larger unit wrap it in Run; the public wallet operations below do.
func (m *Manager) CreditWallet(ctx context.Context, userID primitive.ObjectID, tx models.WalletTransaction) (models.Wallet, error) {
	w, err := m.wallets.GetByUser(ctx, userID)
	if err != nil {
		return models.Wallet{}, walletErr(err, userID)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}
	if err := w.Credit(tx); err != nil {
		return models.Wallet{}, err
	}
	return m.wallets.Save(ctx, w)
}

// DebitWallet applies a single debit without retry.
func (m *Manager) DebitWallet(ctx context.Context, userID primitive.ObjectID, tx models.WalletTransaction) (models.Wallet, error) {
	w, err := m.wallets.GetByUser(ctx, userID)
	if err != nil {
		return models.Wallet{}, walletErr(err, userID)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}
	if err := w.Debit(tx); err != nil {
		return models.Wallet{}, err
	}
	return m.wallets.Save(ctx, w)
}

// AddFunds credits a user's wallet.
func (m *Manager) AddFunds(ctx context.Context, userID primitive.ObjectID, amount money.Amount, description string) (models.Wallet, error) {
	movementID := newMovementID()

	var out models.Wallet
	err := m.Run(ctx, "add_funds", func(ctx context.Context) error {
		w, err := m.CreditWallet(ctx, userID, models.WalletTransaction{
			ID: movementID, Type: models.TxDeposit, Amount: amount, Description: description,
		})
		if err != nil {
			return err
		}
		out = w
		return nil
	})
	if err == nil {
		m.log.Info("funds added",
			zap.String("user_id", userID.Hex()),
			zap.String("amount", amount.String()))
	}
	return out, err
}

// WithdrawFunds debits a user's wallet, failing on insufficient balance.
func (m *Manager) WithdrawFunds(ctx context.Context, userID primitive.ObjectID, amount money.Amount, description string) (models.Wallet, error) {
	movementID := newMovementID()

	var out models.Wallet
	err := m.Run(ctx, "withdraw_funds", func(ctx context.Context) error {
		w, err := m.DebitWallet(ctx, userID, models.WalletTransaction{
			ID: movementID, Type: models.TxWithdrawal, Amount: amount, Description: description,
		})
		if err != nil {
			return err
		}
		out = w
		return nil
	})
	if err == nil {
		m.log.Info("funds withdrawn",
			zap.String("user_id", userID.Hex()),
			zap.String("amount", amount.String()))
	}
	return out, err
}

// TransferFunds moves funds between two wallets. The sender is debited
// before the recipient is credited; under a session both commit together.
func (m *Manager) TransferFunds(ctx context.Context, fromUserID, toUserID primitive.ObjectID, amount money.Amount, description string) (models.Wallet, error) {
	if fromUserID == toUserID {
		return models.Wallet{}, faults.Validation("cannot transfer to the same wallet")
	}
	debitID := newMovementID()
	creditID := newMovementID()

	var out models.Wallet
	err := m.Run(ctx, "transfer_funds", func(ctx context.Context) error {
		sender, err := m.DebitWallet(ctx, fromUserID, models.WalletTransaction{
			ID: debitID, Type: models.TxTransferOut, Amount: amount,
			Description: description, RecipientID: &toUserID,
		})
		if err != nil {
			return err
		}
		if _, err := m.CreditWallet(ctx, toUserID, models.WalletTransaction{
			ID: creditID, Type: models.TxTransferIn, Amount: amount, Description: description,
		}); err != nil {
			return err
		}
		out = sender
		return nil
	})
	if err == nil {
		m.log.Info("funds transferred",
			zap.String("from_user_id", fromUserID.Hex()),
			zap.String("to_user_id", toUserID.Hex()),
			zap.String("amount", amount.String()))
	}
	return out, err
}

// FixFunds locks part of the available balance until endDate.
func (m *Manager) FixFunds(ctx context.Context, userID primitive.ObjectID, amount money.Amount, endDate time.Time) (models.Wallet, error) {
	var out models.Wallet
	err := m.Run(ctx, "fix_funds", func(ctx context.Context) error {
		w, err := m.wallets.GetByUser(ctx, userID)
		if err != nil {
			return walletErr(err, userID)
		}
		if err := w.Fix(amount, time.Now().UTC(), endDate); err != nil {
			return err
		}
		saved, err := m.wallets.Save(ctx, w)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	return out, err
}

// UpdateContribution changes a settled contribution's amount, adjusting
// the wallet by the delta and the mid-cycle's totals in the same unit.
func (m *Manager) UpdateContribution(ctx context.Context, contributionID primitive.ObjectID, newAmount money.Amount) error {
	if !newAmount.IsPositive() {
		return faults.Validation("contribution amount must be positive, got %s", newAmount)
	}
	movementID := newMovementID()

	return m.Run(ctx, "update_contribution", func(ctx context.Context) error {
		con, err := m.contributions.GetByID(ctx, contributionID)
		if err != nil {
			return contributionErr(err, contributionID)
		}
		if con.Status != models.ContributionSettled {
			return faults.Validation("contribution %s is %s, not settled", con.ID.Hex(), con.Status)
		}

		community, mc, err := m.openMidCycleFor(ctx, con)
		if err != nil {
			return err
		}
		if newAmount.LessThan(community.Settings.MinContribution) {
			return faults.Validation("amount %s below minimum contribution %s",
				newAmount, community.Settings.MinContribution)
		}

		delta := newAmount.Sub(con.Amount)
		switch {
		case delta.IsPositive():
			if _, err := m.DebitWallet(ctx, con.UserID, models.WalletTransaction{
				ID: movementID, Type: models.TxContribution, Amount: delta,
				Description: "contribution increased",
			}); err != nil {
				return err
			}
		case delta.IsNegative():
			refund := money.Zero.Sub(delta)
			if _, err := m.CreditWallet(ctx, con.UserID, models.WalletTransaction{
				ID: movementID, Type: models.TxRefund, Amount: refund,
				Description: "contribution decreased",
			}); err != nil {
				return err
			}
		default:
			return nil
		}

		entry := mc.ContributionFor(con.UserID)
		if entry == nil {
			return faults.NotFound("mid-cycle contribution entry", con.UserID.Hex())
		}
		entry.Total = entry.Total.Add(delta)
		if err := adjustPayout(mc, delta); err != nil {
			return err
		}

		// The community save carries the version CAS; it goes first so a
		// conflict retries against a still-unchanged ledger record.
		if _, err := m.communities.Save(ctx, community); err != nil {
			return err
		}
		return m.contributions.UpdateAmount(ctx, con.ID, newAmount)
	})
}

// DeleteContribution refunds a settled contribution and removes it from
// the mid-cycle. The ledger record is kept, marked refunded.
func (m *Manager) DeleteContribution(ctx context.Context, contributionID primitive.ObjectID) error {
	movementID := newMovementID()

	return m.Run(ctx, "delete_contribution", func(ctx context.Context) error {
		con, err := m.contributions.GetByID(ctx, contributionID)
		if err != nil {
			return contributionErr(err, contributionID)
		}
		if con.Status != models.ContributionSettled {
			return faults.Validation("contribution %s is %s, not settled", con.ID.Hex(), con.Status)
		}

		community, mc, err := m.openMidCycleFor(ctx, con)
		if err != nil {
			return err
		}

		if _, err := m.CreditWallet(ctx, con.UserID, models.WalletTransaction{
			ID: movementID, Type: models.TxRefund, Amount: con.Amount,
			Description: "contribution deleted",
		}); err != nil {
			return err
		}

		entry := mc.ContributionFor(con.UserID)
		if entry == nil {
			return faults.NotFound("mid-cycle contribution entry", con.UserID.Hex())
		}
		entry.Total = entry.Total.Sub(con.Amount)
		for i, id := range entry.ContributionIDs {
			if id == con.ID {
				entry.ContributionIDs = append(entry.ContributionIDs[:i], entry.ContributionIDs[i+1:]...)
				break
			}
		}
		if len(entry.ContributionIDs) == 0 {
			for i := range mc.Contributions {
				if mc.Contributions[i].UserID == con.UserID {
					mc.Contributions = append(mc.Contributions[:i], mc.Contributions[i+1:]...)
					break
				}
			}
			// The member no longer counts as contributed; readiness has
			// to be earned again before a payout can go out.
			mc.IsReady = false
		}
		if err := adjustPayout(mc, money.Zero.Sub(con.Amount)); err != nil {
			return err
		}

		// Same ordering as UpdateContribution: the CAS-guarded save
		// first, the refund mark only once the aggregate committed.
		if _, err := m.communities.Save(ctx, community); err != nil {
			return err
		}
		return m.contributions.MarkRefunded(ctx, con.ID)
	})
}

// openMidCycleFor loads the community and resolves the contribution's
// mid-cycle, rejecting edits once the mid-cycle has completed.
func (m *Manager) openMidCycleFor(ctx context.Context, con models.Contribution) (models.Community, *models.MidCycle, error) {
	community, err := m.communities.GetByID(ctx, con.CommunityID)
	if err != nil {
		if errors.Is(err, communitystore.ErrNotFound) {
			return models.Community{}, nil, faults.NotFound("community", con.CommunityID.Hex())
		}
		return models.Community{}, nil, err
	}
	mc := community.MidCycleByID(con.MidCycleID)
	if mc == nil {
		return models.Community{}, nil, faults.NotFound("mid-cycle", con.MidCycleID.Hex())
	}
	if mc.IsComplete {
		return models.Community{}, nil, faults.StateConflict(faults.CodeMidCycleNotReady,
			"mid-cycle %s is complete, contributions are immutable", mc.ID.Hex())
	}
	return community, mc, nil
}

func adjustPayout(mc *models.MidCycle, delta money.Amount) error {
	next := mc.PayoutAmount.Add(delta)
	if next.IsNegative() {
		return faults.Validation("payout amount cannot go below zero (was %s, delta %s)",
			mc.PayoutAmount, delta)
	}
	mc.PayoutAmount = next
	return nil
}

func walletErr(err error, userID primitive.ObjectID) error {
	if errors.Is(err, walletstore.ErrNotFound) {
		return faults.NotFound("wallet", userID.Hex())
	}
	return err
}

func contributionErr(err error, id primitive.ObjectID) error {
	if errors.Is(err, contributionstore.ErrNotFound) {
		return faults.NotFound("contribution", id.Hex())
	}
	return err
}
