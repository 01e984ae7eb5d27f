package coordinator

import (
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

// command is one entry in the coordinator's serialized event queue. Every
// mutating path for a session (bets, deals, timer expiry, admin commands)
// funnels through this tagged union, which gives the session a total order.
type command interface{ isCommand() }

type startCmd struct {
	opening domain.Card
	reply   chan error
}

type placeBetCmd struct {
	userID int64
	round  domain.Round
	side   domain.Side
	amount int64
	reply  chan placeBetReply
}

type placeBetReply struct {
	bet *domain.Bet
	err error
}

type dealCmd struct {
	card  domain.Card
	side  domain.Side
	reply chan error
}

type forcePhaseCmd struct {
	target domain.Phase
	reply  chan error
}

// timerExpiredCmd is posted by the betting-window timer. seq is the phase
// sequence at scheduling time; a stale timer after an admin-forced change
// carries an old seq and is discarded.
type timerExpiredCmd struct {
	seq uint64
}

type snapshotCmd struct {
	userID int64
	reply  chan snapshotReply
}

type snapshotReply struct {
	snap Snapshot
	err  error
}

type stopCmd struct {
	reply chan struct{}
}

func (startCmd) isCommand()        {}
func (placeBetCmd) isCommand()     {}
func (dealCmd) isCommand()         {}
func (forcePhaseCmd) isCommand()   {}
func (timerExpiredCmd) isCommand() {}
func (snapshotCmd) isCommand()     {}
func (stopCmd) isCommand()         {}

// Snapshot is a point-in-time full view of the session for one client.
// Bets holds only the requesting user's own bets.
type Snapshot struct {
	Session    domain.GameSession     `json:"session"`
	Aggregates []domain.SideTotals    `json:"aggregates,omitempty"`
	Bets       []domain.Bet           `json:"bets,omitempty"`
	Settlement *domain.UserSettlement `json:"settlement,omitempty"`
}
