package domain

import "context"

// BetRepository persists live bets for audit and cross-restart recovery.
// Writes are fire-and-confirm; the in-memory ledger stays authoritative.
// GetBets feeds the ledger's restore path and UpdateStatus records the
// terminal status settlement assigned.
type BetRepository interface {
	SaveBet(ctx context.Context, bet *Bet) error
	GetBets(ctx context.Context, sessionID string) ([]*Bet, error)
	UpdateStatus(ctx context.Context, bet *Bet) error
}

// BetOrderRepository persists settled bet orders
type BetOrderRepository interface {
	BatchCreate(ctx context.Context, orders []*BetOrder) error
}

// TransactionRepository records balance transactions. Create is the
// idempotency gate: it reports false without error when the TxnID has
// already been recorded.
type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) (created bool, err error)
	Get(ctx context.Context, txnID string) (*Transaction, error)
}

// SessionRepository persists session lifecycle records
type SessionRepository interface {
	Create(ctx context.Context, rec *SessionRecord) error
	UpdateResult(ctx context.Context, rec *SessionRecord) error
}
