// Package wallet defines the external balance-store collaborator.
package wallet

import (
	"context"
	"errors"
)

// ErrInsufficientFunds is returned by Debit when the balance cannot cover
// the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Service is the balance store. Debit and Credit are idempotent by txnID:
// re-applying an already-applied transaction id mutates nothing and returns
// the current balance.
type Service interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	Debit(ctx context.Context, userID int64, amount int64, txnID string) (int64, error)
	Credit(ctx context.Context, userID int64, amount int64, txnID string) (int64, error)
}
