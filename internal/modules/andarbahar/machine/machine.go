// Package machine implements the Andar Bahar session state machine.
//
// A Machine is owned by exactly one session coordinator and is only mutated
// from the coordinator's event loop, so it carries no lock of its own.
package machine

import (
	"fmt"
	"time"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

// DealResult describes what a successful deal did to the session
type DealResult struct {
	Dealt    domain.DealtCard
	Winning  bool
	NewPhase domain.Phase
	// BettingOpened is true when the deal opened the round-2 betting window
	BettingOpened bool
}

// Machine drives one session through
// waiting -> betting_round1 -> dealing_round1 -> betting_round2 ->
// dealing_round2 -> continuous_draw -> completed.
// Completed is terminal; playing again requires a new session.
type Machine struct {
	// betting window durations, overridable before Start (and in tests)
	Round1BettingDuration time.Duration
	Round2BettingDuration time.Duration

	s domain.GameSession
}

// New creates a machine for a fresh session in the waiting phase
func New(sessionID string) *Machine {
	return &Machine{
		Round1BettingDuration: 30 * time.Second,
		Round2BettingDuration: 20 * time.Second,
		s: domain.GameSession{
			SessionID: sessionID,
			Phase:     domain.PhaseWaiting,
			StartedAt: time.Now(),
		},
	}
}

// Session returns a deep copy of the current session state
func (m *Machine) Session() domain.GameSession {
	return m.s.Clone()
}

// Phase returns the current phase
func (m *Machine) Phase() domain.Phase {
	return m.s.Phase
}

// Version returns the current state version
func (m *Machine) Version() uint64 {
	return m.s.Version
}

// Start applies the admin "start" command carrying the opening card and
// opens round-1 betting.
func (m *Machine) Start(opening domain.Card) error {
	if m.s.Phase != domain.PhaseWaiting {
		return fmt.Errorf("%w: session already started (phase %s)", domain.ErrInvalidCommand, m.s.Phase)
	}
	if !opening.IsValid() {
		return fmt.Errorf("%w: opening card is missing or malformed", domain.ErrInvalidCommand)
	}

	oc := opening
	m.s.OpeningCard = &oc
	m.s.Phase = domain.PhaseBettingRound1
	m.s.Round = domain.Round1
	m.s.HighestRoundOpened = domain.Round1
	m.s.BettingDeadline = time.Now().Add(m.Round1BettingDuration)
	m.s.Version++
	return nil
}

// SealBetting closes the current betting window, moving to the matching
// dealing phase. Triggered by timer expiry or an admin override; both paths
// are equivalent here.
func (m *Machine) SealBetting() (domain.Phase, error) {
	switch m.s.Phase {
	case domain.PhaseBettingRound1:
		m.s.Phase = domain.PhaseDealingRound1
	case domain.PhaseBettingRound2:
		m.s.Phase = domain.PhaseDealingRound2
	default:
		return m.s.Phase, fmt.Errorf("%w: no betting window open in phase %s", domain.ErrInvalidCommand, m.s.Phase)
	}
	m.s.BettingDeadline = time.Time{}
	m.s.Version++
	return m.s.Phase, nil
}

// ForcePhase applies an admin-forced transition. Only the legal successor of
// the current phase is accepted; anything else is an InvalidCommand.
func (m *Machine) ForcePhase(target domain.Phase) error {
	next, ok := successor[m.s.Phase]
	if !ok || next != target {
		return fmt.Errorf("%w: cannot force %s from %s", domain.ErrInvalidCommand, target, m.s.Phase)
	}
	switch target {
	case domain.PhaseDealingRound1, domain.PhaseDealingRound2:
		_, err := m.SealBetting()
		return err
	default:
		return fmt.Errorf("%w: phase %s advances on deals, not commands", domain.ErrInvalidCommand, target)
	}
}

// successor maps each phase to the only phase an admin may force it into.
// Dealing phases advance through Deal, never through a forced change.
var successor = map[domain.Phase]domain.Phase{
	domain.PhaseBettingRound1: domain.PhaseDealingRound1,
	domain.PhaseBettingRound2: domain.PhaseDealingRound2,
}

// Deal places a card on a side. In the round dealing phases each side takes
// exactly one card; in continuous draw cards alternate freely. The first
// card whose rank matches the opening card ends the session on the spot.
func (m *Machine) Deal(card domain.Card, side domain.Side) (DealResult, error) {
	if !domain.LegalPhaseForDeal(m.s.Phase) {
		return DealResult{}, fmt.Errorf("%w: phase %s does not accept deals", domain.ErrIllegalDeal, m.s.Phase)
	}
	if !card.IsValid() {
		return DealResult{}, fmt.Errorf("%w: malformed card", domain.ErrIllegalDeal)
	}
	if !side.IsValid() {
		return DealResult{}, fmt.Errorf("%w: unknown side %q", domain.ErrIllegalDeal, side)
	}

	round, _ := m.s.Phase.DealingRound()
	sideCards := m.s.SideCards(side)

	// In a round phase each side may receive exactly one card for that round
	if round == domain.Round1 || round == domain.Round2 {
		for _, dc := range sideCards {
			if dc.Round == round {
				return DealResult{}, fmt.Errorf("%w: side %s already has its round %d card", domain.ErrIllegalDeal, side, round)
			}
		}
	}

	dealt := domain.DealtCard{
		Card:     card,
		Side:     side,
		Round:    round,
		Position: domain.NextDealPosition(sideCards),
		DealtAt:  time.Now(),
	}
	if side == domain.SideAndar {
		m.s.AndarCards = append(m.s.AndarCards, dealt)
	} else {
		m.s.BaharCards = append(m.s.BaharCards, dealt)
	}

	res := DealResult{Dealt: dealt}

	if domain.IsWinningCard(card, *m.s.OpeningCard) {
		m.complete(side, card)
		res.Winning = true
		res.NewPhase = domain.PhaseCompleted
		return res, nil
	}

	switch round {
	case domain.Round1:
		if m.roundFullyDealt(domain.Round1) {
			m.s.Phase = domain.PhaseBettingRound2
			m.s.Round = domain.Round2
			m.s.HighestRoundOpened = domain.Round2
			m.s.BettingDeadline = time.Now().Add(m.Round2BettingDuration)
			res.BettingOpened = true
		}
	case domain.Round2:
		if m.roundFullyDealt(domain.Round2) {
			m.s.Phase = domain.PhaseContinuousDraw
			m.s.Round = domain.RoundContinuous
		}
	}
	m.s.Version++
	res.NewPhase = m.s.Phase
	return res, nil
}

func (m *Machine) roundFullyDealt(round domain.Round) bool {
	has := func(cards []domain.DealtCard) bool {
		for _, dc := range cards {
			if dc.Round == round {
				return true
			}
		}
		return false
	}
	return has(m.s.AndarCards) && has(m.s.BaharCards)
}

// complete records the winner exactly once and terminates the session
func (m *Machine) complete(winner domain.Side, winning domain.Card) {
	wc := winning
	now := time.Now()
	m.s.Phase = domain.PhaseCompleted
	m.s.Winner = winner
	m.s.WinningCard = &wc
	m.s.BettingDeadline = time.Time{}
	m.s.CompletedAt = &now
	m.s.Version++
}
