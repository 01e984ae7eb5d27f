package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, rec *domain.SessionRecord) error {
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *SessionRepository) UpdateResult(ctx context.Context, rec *domain.SessionRecord) error {
	updates := map[string]interface{}{
		"status":           rec.Status,
		"winner":           rec.Winner,
		"winning_card":     rec.WinningCard,
		"cards_dealt":      rec.CardsDealt,
		"total_bets":       rec.TotalBets,
		"total_players":    rec.TotalPlayers,
		"total_bet_amount": rec.TotalBetAmount,
		"updated_at":       time.Now(),
	}
	if rec.EndTime != nil {
		updates["end_time"] = rec.EndTime
	}
	return r.db.WithContext(ctx).Model(&domain.SessionRecord{}).
		Where("session_id = ?", rec.SessionID).
		Updates(updates).Error
}
