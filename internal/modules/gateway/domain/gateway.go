// Package domain defines the gateway's inbound message contract.
package domain

import "encoding/json"

// RequestEnvelope is the standard inbound message structure
type RequestEnvelope struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

// Inbound commands
const (
	CmdStartSession = "start_session"
	CmdPlaceBet     = "place_bet"
	CmdDealCard     = "deal_card"
	CmdForcePhase   = "force_phase"
	CmdGetSnapshot  = "get_snapshot"
)

// StartSessionReq opens a session with the opening card (admin only)
type StartSessionReq struct {
	OpeningCard string `json:"opening_card"`
}

// PlaceBetReq places a wager on a side of a round
type PlaceBetReq struct {
	Round  int    `json:"round"`
	Side   string `json:"side"`
	Amount int64  `json:"amount"`
}

// DealCardReq deals a card onto a side (admin only)
type DealCardReq struct {
	Card string `json:"card"`
	Side string `json:"side"`
}

// ForcePhaseReq forces an early phase change (admin only)
type ForcePhaseReq struct {
	Phase string `json:"phase"`
}
