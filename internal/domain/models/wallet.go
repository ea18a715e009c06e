// internal/domain/models/wallet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

// Wallet transaction types.
const (
	TxDeposit      = "deposit"
	TxWithdrawal   = "withdrawal"
	TxTransferOut  = "transfer_out"
	TxTransferIn   = "transfer_in"
	TxContribution = "contribution"
	TxPayout       = "payout"
	TxRefund       = "refund"
	TxAdjustment   = "adjustment"
	TxFixed        = "fixed"
	TxMatured      = "matured"
)

// WalletTransaction is one line of the append-only transaction log.
type WalletTransaction struct {
	ID          string              `bson:"id" json:"id"`
	Type        string              `bson:"type" json:"type"`
	Amount      money.Amount        `bson:"amount" json:"amount"`
	Date        time.Time           `bson:"date" json:"date"`
	Description string              `bson:"description" json:"description"`
	RecipientID *primitive.ObjectID `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
}

// FixedFund is a slice of the balance locked until EndDate.
type FixedFund struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Amount    money.Amount       `bson:"amount" json:"amount"`
	StartDate time.Time          `bson:"start_date" json:"start_date"`
	EndDate   time.Time          `bson:"end_date" json:"end_date"`
	IsMatured bool               `bson:"is_matured" json:"is_matured"`
}

// Wallet is a per-user balance aggregate. The invariant
// TotalBalance == AvailableBalance + FixedBalance holds after every
// mutation; all mutations go through the methods below so the invariant
// and the transaction log stay in lockstep.
type Wallet struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	AvailableBalance money.Amount `bson:"available_balance" json:"available_balance"`
	FixedBalance     money.Amount `bson:"fixed_balance" json:"fixed_balance"`
	TotalBalance     money.Amount `bson:"total_balance" json:"total_balance"`

	Transactions []WalletTransaction `bson:"transactions" json:"transactions"`
	FixedFunds   []FixedFund         `bson:"fixed_funds,omitempty" json:"fixed_funds,omitempty"`

	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (w *Wallet) recompute() {
	w.TotalBalance = w.AvailableBalance.Add(w.FixedBalance)
}

func (w *Wallet) log(tx WalletTransaction) {
	w.Transactions = append(w.Transactions, tx)
}

// applied reports whether a movement with this transaction id is already
// in the log. Retried transaction-manager closures re-apply movements
// with the same id; the duplicate is skipped so balances stay exact.
func (w *Wallet) applied(txID string) bool {
	if txID == "" {
		return false
	}
	for i := range w.Transactions {
		if w.Transactions[i].ID == txID {
			return true
		}
	}
	return false
}

// Credit adds to the available balance and logs the movement.
func (w *Wallet) Credit(tx WalletTransaction) error {
	if !tx.Amount.IsPositive() {
		return faults.Validation("credit amount must be positive, got %s", tx.Amount)
	}
	if w.applied(tx.ID) {
		return nil
	}
	w.AvailableBalance = w.AvailableBalance.Add(tx.Amount)
	w.recompute()
	w.log(tx)
	return nil
}

// Debit removes from the available balance, failing when funds are short.
func (w *Wallet) Debit(tx WalletTransaction) error {
	if !tx.Amount.IsPositive() {
		return faults.Validation("debit amount must be positive, got %s", tx.Amount)
	}
	if w.applied(tx.ID) {
		return nil
	}
	if w.AvailableBalance.LessThan(tx.Amount) {
		return faults.InsufficientFunds("wallet has %s available, needs %s",
			w.AvailableBalance, tx.Amount).WithContext(faults.Context{
			UserID: w.UserID.Hex(),
			Amount: tx.Amount.String(),
		})
	}
	w.AvailableBalance = w.AvailableBalance.Sub(tx.Amount)
	w.recompute()
	w.log(tx)
	return nil
}

// Fix moves available funds into the fixed balance until endDate.
func (w *Wallet) Fix(amount money.Amount, now, endDate time.Time) error {
	if !amount.IsPositive() {
		return faults.Validation("fixed amount must be positive, got %s", amount)
	}
	if w.AvailableBalance.LessThan(amount) {
		return faults.InsufficientFunds("wallet has %s available, cannot fix %s",
			w.AvailableBalance, amount)
	}
	w.AvailableBalance = w.AvailableBalance.Sub(amount)
	w.FixedBalance = w.FixedBalance.Add(amount)
	w.recompute()
	w.FixedFunds = append(w.FixedFunds, FixedFund{
		ID:        primitive.NewObjectID(),
		Amount:    amount,
		StartDate: now,
		EndDate:   endDate,
	})
	w.log(WalletTransaction{
		Type: TxFixed, Amount: amount, Date: now,
		Description: "funds fixed until " + endDate.Format(time.RFC3339),
	})
	return nil
}

// MatureFixedFunds releases every fund whose end date has passed back to
// the available balance. Returns how many funds matured.
func (w *Wallet) MatureFixedFunds(now time.Time) int {
	matured := 0
	for i := range w.FixedFunds {
		f := &w.FixedFunds[i]
		if f.IsMatured || f.EndDate.After(now) {
			continue
		}
		f.IsMatured = true
		w.FixedBalance = w.FixedBalance.Sub(f.Amount)
		w.AvailableBalance = w.AvailableBalance.Add(f.Amount)
		w.log(WalletTransaction{
			Type: TxMatured, Amount: f.Amount, Date: now,
			Description: "fixed funds matured",
		})
		matured++
	}
	if matured > 0 {
		w.recompute()
	}
	return matured
}
