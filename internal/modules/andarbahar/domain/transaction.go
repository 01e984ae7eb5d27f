package domain

import (
	"fmt"
	"time"
)

// TxnKind classifies a balance-affecting transaction
type TxnKind string

const (
	TxnKindDebitBet     TxnKind = "debit_bet"
	TxnKindCreditPayout TxnKind = "credit_payout"
	TxnKindRefund       TxnKind = "refund"
)

// Transaction is a single balance mutation. TxnID is the caller-supplied
// idempotency key: applying the same TxnID twice must be a no-op.
type Transaction struct {
	TxnID     string    `gorm:"primaryKey;type:varchar(128)" json:"txn_id"`
	UserID    int64     `gorm:"not null;index:idx_transactions_user_id" json:"user_id"`
	SessionID string    `gorm:"type:varchar(64);not null;index:idx_transactions_session_id" json:"session_id"`
	Amount    int64     `gorm:"not null" json:"amount"` // signed, minor units
	Kind      TxnKind   `gorm:"type:varchar(32);not null" json:"kind"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "transactions"
}

// BetTxnID is the idempotency key for the debit backing a bet
func BetTxnID(betID string) string {
	return "bet:" + betID
}

// PayoutTxnID is the idempotency key for a user's payout in a session.
// One key per session/user pair guarantees exactly-once settlement credit.
func PayoutTxnID(sessionID string, userID int64) string {
	return fmt.Sprintf("payout:%s:%d", sessionID, userID)
}

// RefundTxnID is the idempotency key for refunding a single bet
func RefundTxnID(betID string) string {
	return "refund:" + betID
}
