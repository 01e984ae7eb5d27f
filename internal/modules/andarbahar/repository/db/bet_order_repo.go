// Package db provides gorm-backed repositories for the Andar Bahar module.
package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

type BetOrderRepository struct {
	db *gorm.DB
}

func NewBetOrderRepository(db *gorm.DB) *BetOrderRepository {
	return &BetOrderRepository{db: db}
}

// BatchCreate inserts settled orders. Settlement retries re-emit the same
// OrderIDs, so conflicts are skipped rather than failed.
func (r *BetOrderRepository) BatchCreate(ctx context.Context, orders []*domain.BetOrder) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&orders).Error
}
