// Package redis provides a Redis-backed bet repository so live bets
// survive a process restart and are visible to sibling instances.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

// BetRepository implements domain.BetRepository using Redis
type BetRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBetRepository creates a new Redis bet repository
func NewBetRepository(rdb *redis.Client) *BetRepository {
	return &BetRepository{
		rdb: rdb,
		ttl: 24 * time.Hour,
	}
}

func betDataKey(sessionID string) string {
	return fmt.Sprintf("ab:bets:%s", sessionID)
}

// SaveBet stores a bet in the session's hash
func (r *BetRepository) SaveBet(ctx context.Context, bet *domain.Bet) error {
	data, err := json.Marshal(bet)
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()
	dataKey := betDataKey(bet.SessionID)
	pipe.HSet(ctx, dataKey, bet.BetID, data)
	pipe.Expire(ctx, dataKey, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// GetBets retrieves all bets for a session
func (r *BetRepository) GetBets(ctx context.Context, sessionID string) ([]*domain.Bet, error) {
	dataMap, err := r.rdb.HGetAll(ctx, betDataKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	bets := make([]*domain.Bet, 0, len(dataMap))
	for _, data := range dataMap {
		var bet domain.Bet
		if err := json.Unmarshal([]byte(data), &bet); err != nil {
			continue
		}
		bets = append(bets, &bet)
	}
	return bets, nil
}

// UpdateStatus rewrites the stored bet with its terminal status
func (r *BetRepository) UpdateStatus(ctx context.Context, bet *domain.Bet) error {
	data, err := json.Marshal(bet)
	if err != nil {
		return err
	}
	return r.rdb.HSet(ctx, betDataKey(bet.SessionID), bet.BetID, data).Err()
}
