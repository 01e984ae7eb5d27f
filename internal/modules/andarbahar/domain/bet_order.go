package domain

import "time"

// BetOrderStatus defines the status of a persisted bet order
type BetOrderStatus int

const (
	BetOrderStatusPending BetOrderStatus = 0
	BetOrderStatusSettled BetOrderStatus = 1
)

// BetOrder is the durable audit record written for each bet at settlement
type BetOrder struct {
	OrderID   string         `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	UserID    int64          `gorm:"not null;index:idx_bet_orders_user_id" json:"user_id"`
	SessionID string         `gorm:"type:varchar(64);not null;index:idx_bet_orders_session_id" json:"session_id"`
	GameCode  string         `gorm:"type:varchar(32);not null" json:"game_code"`
	Round     Round          `gorm:"not null" json:"round"`
	Side      Side           `gorm:"type:varchar(8);not null" json:"side"`
	Amount    int64          `gorm:"not null" json:"amount"`
	Payout    int64          `gorm:"not null;default:0" json:"payout"`
	Result    BetStatus      `gorm:"type:varchar(16);not null" json:"result"`
	Status    BetOrderStatus `gorm:"type:int;not null;default:0;index:idx_bet_orders_status" json:"status"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	SettledAt *time.Time     `json:"settled_at"`
}

// TableName overrides the table name
func (BetOrder) TableName() string {
	return "bet_orders"
}

// SessionStatus defines the status of a persisted session record
type SessionStatus int

const (
	SessionStatusInProgress SessionStatus = 0
	SessionStatusCompleted  SessionStatus = 1
)

// SessionRecord is the durable audit record for a game session
type SessionRecord struct {
	SessionID      string        `gorm:"primaryKey;type:varchar(64)" json:"session_id"`
	GameCode       string        `gorm:"index;type:varchar(32);not null" json:"game_code"`
	Status         SessionStatus `gorm:"type:int;not null;default:0" json:"status"`
	OpeningCard    string        `gorm:"type:varchar(4)" json:"opening_card"`
	Winner         string        `gorm:"type:varchar(8)" json:"winner"`
	WinningCard    string        `gorm:"type:varchar(4)" json:"winning_card"`
	CardsDealt     int           `gorm:"default:0" json:"cards_dealt"`
	TotalBets      int           `gorm:"default:0" json:"total_bets"`
	TotalPlayers   int           `gorm:"default:0" json:"total_players"`
	TotalBetAmount int64         `gorm:"default:0" json:"total_bet_amount"`
	StartTime      time.Time     `gorm:"not null" json:"start_time"`
	EndTime        *time.Time    `json:"end_time"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName overrides the table name
func (SessionRecord) TableName() string {
	return "game_sessions"
}
