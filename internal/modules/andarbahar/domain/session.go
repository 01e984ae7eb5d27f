package domain

import "time"

// Phase is the session state machine phase
type Phase string

const (
	PhaseWaiting        Phase = "waiting"
	PhaseBettingRound1  Phase = "betting_round1"
	PhaseDealingRound1  Phase = "dealing_round1"
	PhaseBettingRound2  Phase = "betting_round2"
	PhaseDealingRound2  Phase = "dealing_round2"
	PhaseContinuousDraw Phase = "continuous_draw"
	PhaseCompleted      Phase = "completed"
)

// Round identifies a betting round. RoundContinuous is the endless draw
// phase after round 2, which accepts no bets.
type Round int

const (
	Round1          Round = 1
	Round2          Round = 2
	RoundContinuous Round = 3
)

// BettingRound returns the round that is open for betting in this phase
func (p Phase) BettingRound() (Round, bool) {
	switch p {
	case PhaseBettingRound1:
		return Round1, true
	case PhaseBettingRound2:
		return Round2, true
	}
	return 0, false
}

// DealingRound returns the round cards are dealt into during this phase
func (p Phase) DealingRound() (Round, bool) {
	switch p {
	case PhaseDealingRound1:
		return Round1, true
	case PhaseDealingRound2:
		return Round2, true
	case PhaseContinuousDraw:
		return RoundContinuous, true
	}
	return 0, false
}

// GameSession is the authoritative state of one live session.
// It is owned by the session coordinator; everything handed out of the
// coordinator is a deep copy.
type GameSession struct {
	SessionID       string      `json:"session_id"`
	Phase           Phase       `json:"phase"`
	Round           Round       `json:"round"`
	OpeningCard     *Card       `json:"opening_card,omitempty"`
	AndarCards      []DealtCard `json:"andar_cards"`
	BaharCards      []DealtCard `json:"bahar_cards"`
	BettingDeadline time.Time   `json:"betting_deadline,omitempty"`
	Winner          Side        `json:"winner,omitempty"`
	WinningCard     *Card       `json:"winning_card,omitempty"`
	// HighestRoundOpened is the last round whose betting window actually
	// opened. Bets recorded for a later round are refunded at settlement.
	HighestRoundOpened Round  `json:"highest_round_opened"`
	Version            uint64 `json:"version"`
	StartedAt          time.Time
	CompletedAt        *time.Time
}

// Completed reports whether the session reached its terminal phase
func (s *GameSession) Completed() bool {
	return s.Phase == PhaseCompleted
}

// SideCards returns the dealt cards for a side
func (s *GameSession) SideCards(side Side) []DealtCard {
	if side == SideAndar {
		return s.AndarCards
	}
	return s.BaharCards
}

// Clone returns a deep copy safe to hand to readers
func (s *GameSession) Clone() GameSession {
	cp := *s
	cp.AndarCards = append([]DealtCard(nil), s.AndarCards...)
	cp.BaharCards = append([]DealtCard(nil), s.BaharCards...)
	if s.OpeningCard != nil {
		oc := *s.OpeningCard
		cp.OpeningCard = &oc
	}
	if s.WinningCard != nil {
		wc := *s.WinningCard
		cp.WinningCard = &wc
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		cp.CompletedAt = &at
	}
	return cp
}
