// Package domain defines the core types for the Andar Bahar game module.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Side is one of the two betting piles.
type Side string

const (
	SideAndar Side = "andar"
	SideBahar Side = "bahar"
)

// IsValid checks the side is one of the two piles
func (s Side) IsValid() bool {
	return s == SideAndar || s == SideBahar
}

// Opposite returns the other pile
func (s Side) Opposite() Side {
	if s == SideAndar {
		return SideBahar
	}
	return SideAndar
}

// Rank is a card rank (A, 2-10, J, Q, K)
type Rank string

// Suit is a card suit (S, H, D, C)
type Suit string

var validRanks = map[Rank]struct{}{
	"A": {}, "2": {}, "3": {}, "4": {}, "5": {}, "6": {}, "7": {},
	"8": {}, "9": {}, "10": {}, "J": {}, "Q": {}, "K": {},
}

var validSuits = map[Suit]struct{}{
	"S": {}, "H": {}, "D": {}, "C": {},
}

// Card represents a playing card
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// ParseCard parses a compact card string like "7S" or "10H"
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("malformed card %q", s)
	}
	c := Card{Rank: Rank(s[:len(s)-1]), Suit: Suit(s[len(s)-1:])}
	if !c.IsValid() {
		return Card{}, fmt.Errorf("malformed card %q", s)
	}
	return c, nil
}

// IsValid checks rank and suit
func (c Card) IsValid() bool {
	_, rankOK := validRanks[c.Rank]
	_, suitOK := validSuits[c.Suit]
	return rankOK && suitOK
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// DealtCard is a card placed on one of the piles.
// Position is per-side, monotonically increasing from 1, no gaps.
type DealtCard struct {
	Card     Card      `json:"card"`
	Side     Side      `json:"side"`
	Round    Round     `json:"round"`
	Position int       `json:"position"`
	DealtAt  time.Time `json:"dealt_at"`
}

// IsWinningCard reports whether a dealt card ends the session.
// Win detection is by rank only, the suit is irrelevant.
func IsWinningCard(dealt, opening Card) bool {
	return dealt.Rank == opening.Rank
}

// NextDealPosition returns the position the next card on a side must take:
// highest existing position + 1, starting at 1.
func NextDealPosition(existing []DealtCard) int {
	max := 0
	for _, dc := range existing {
		if dc.Position > max {
			max = dc.Position
		}
	}
	return max + 1
}

// LegalPhaseForDeal reports whether cards may be dealt in the given phase
func LegalPhaseForDeal(p Phase) bool {
	switch p {
	case PhaseDealingRound1, PhaseDealingRound2, PhaseContinuousDraw:
		return true
	}
	return false
}
