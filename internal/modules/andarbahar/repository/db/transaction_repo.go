package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

// TransactionRepository persists balance transactions. The primary key on
// txn_id is the durable idempotency gate: a second insert with the same id
// affects zero rows and is reported as not-created.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *domain.Transaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(txn)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TransactionRepository) Get(ctx context.Context, txnID string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := r.db.WithContext(ctx).Where("txn_id = ?", txnID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
