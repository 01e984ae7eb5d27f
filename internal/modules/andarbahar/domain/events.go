package domain

import "time"

// EventType identifies an outbound message to connected clients
type EventType string

const (
	EventSnapshot         EventType = "snapshot"
	EventPhaseChanged     EventType = "phase_changed"
	EventCardDealt        EventType = "card_dealt"
	EventAggregates       EventType = "aggregates"
	EventBetAccepted      EventType = "bet_accepted"
	EventSessionCompleted EventType = "session_completed"
	EventError            EventType = "error"
)

// Event is the envelope for every outbound message. Version is the session
// state version the payload reflects; clients use it to detect gaps.
type Event struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Version   uint64      `json:"version,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// PhaseChangedData announces a state machine transition
type PhaseChangedData struct {
	Phase           Phase     `json:"phase"`
	Round           Round     `json:"round"`
	BettingDeadline time.Time `json:"betting_deadline,omitempty"`
	LeftSeconds     int64     `json:"left_seconds,omitempty"`
}

// CardDealtData announces a newly dealt card
type CardDealtData struct {
	Card     Card  `json:"card"`
	Side     Side  `json:"side"`
	Round    Round `json:"round"`
	Position int   `json:"position"`
	Winning  bool  `json:"winning"`
}

// SideTotals carries aggregate bet amounts per side for one round
type SideTotals struct {
	Round Round `json:"round"`
	Andar int64 `json:"andar"`
	Bahar int64 `json:"bahar"`
}

// AggregatesData carries per-round betting totals (admin visibility only)
type AggregatesData struct {
	Rounds []SideTotals `json:"rounds"`
}

// BetAcceptedData confirms a bet privately to the bettor
type BetAcceptedData struct {
	BetID  string `json:"bet_id"`
	Round  Round  `json:"round"`
	Side   Side   `json:"side"`
	Amount int64  `json:"amount"`
}

// SessionCompletedData announces the terminal result. PerUser is only
// populated on the private copy sent to each bettor.
type SessionCompletedData struct {
	Winner      Side            `json:"winner"`
	WinningCard Card            `json:"winning_card"`
	PerUser     *UserSettlement `json:"settlement,omitempty"`
}

// SettlementOutcome classifies a user's result for a completed session
type SettlementOutcome string

const (
	OutcomeNoBet  SettlementOutcome = "no_bet"
	OutcomeWin    SettlementOutcome = "win"
	OutcomeLoss   SettlementOutcome = "loss"
	OutcomeRefund SettlementOutcome = "refund"
	OutcomeMixed  SettlementOutcome = "mixed"
)

// UserSettlement is one user's settled result for a session
type UserSettlement struct {
	UserID        int64             `json:"user_id"`
	Outcome       SettlementOutcome `json:"outcome"`
	StakeOnWinner int64             `json:"stake_on_winner"`
	StakeOnLoser  int64             `json:"stake_on_loser"`
	Refunded      int64             `json:"refunded"`
	Payout        int64             `json:"payout"`
	NetProfit     int64             `json:"net_profit"`
	TxnID         string            `json:"txn_id,omitempty"`
}

// ErrorData is a private rejection report
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
