package domain

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// BetStatus tracks a bet's lifecycle. A bet transitions at most once from
// active to one of the terminal statuses.
type BetStatus string

const (
	BetStatusActive   BetStatus = "active"
	BetStatusWon      BetStatus = "won"
	BetStatusLost     BetStatus = "lost"
	BetStatusRefunded BetStatus = "refunded"
)

// Bet represents a player's wager on one side of one round.
// Amount is in currency minor units.
type Bet struct {
	BetID       string    `json:"bet_id"`
	SessionID   string    `json:"session_id"`
	UserID      int64     `json:"user_id"`
	Round       Round     `json:"round"`
	Side        Side      `json:"side"`
	Amount      int64     `json:"amount"`
	PlacedAt    time.Time `json:"placed_at"`
	Status      BetStatus `json:"status"`
	PayoutTxnID string    `json:"payout_txn_id,omitempty"`
}

var (
	node *snowflake.Node
	once sync.Once
)

func initSnowflake() {
	var err error
	// TODO: Get NodeID from config or environment variable.
	// Each instance in a distributed deployment MUST have a unique NodeID.
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// NewBet creates an active bet with a generated ID
func NewBet(sessionID string, userID int64, round Round, side Side, amount int64) *Bet {
	return &Bet{
		BetID:     NewID(),
		SessionID: sessionID,
		UserID:    userID,
		Round:     round,
		Side:      side,
		Amount:    amount,
		PlacedAt:  time.Now(),
		Status:    BetStatusActive,
	}
}

// NewID generates a snowflake ID
func NewID() string {
	once.Do(initSnowflake)
	return node.Generate().String()
}

// Settle moves the bet to a terminal status. Settling an already-terminal
// bet is a no-op so the settlement trigger tolerates at-least-once delivery.
// It reports whether the status changed.
func (b *Bet) Settle(status BetStatus, payoutTxnID string) bool {
	if b.Status != BetStatusActive {
		return false
	}
	b.Status = status
	b.PayoutTxnID = payoutTxnID
	return true
}
