// Package settlement computes and applies payouts for completed sessions.
package settlement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/wallet"
	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
)

// Engine settles a session exactly once per user. Every credit goes through
// an idempotency-keyed transaction, so re-running settlement after a crash
// or a duplicated completion event never double-pays.
type Engine struct {
	wallet    wallet.Service
	txnRepo   domain.TransactionRepository
	orderRepo domain.BetOrderRepository
	betRepo   domain.BetRepository
	// MultiplierX100 is the payout multiplier in fixed-point hundredths
	// (200 = 2.00x the stake on the winning side).
	MultiplierX100 int64
}

// NewEngine creates a settlement engine
func NewEngine(walletSvc wallet.Service, txnRepo domain.TransactionRepository, orderRepo domain.BetOrderRepository, betRepo domain.BetRepository, multiplierX100 int64) *Engine {
	return &Engine{
		wallet:         walletSvc,
		txnRepo:        txnRepo,
		orderRepo:      orderRepo,
		betRepo:        betRepo,
		MultiplierX100: multiplierX100,
	}
}

// SettleSession settles every user with at least one bet in the session.
// It is safe to call again after a partial failure: already-credited users
// are detected by their payout transaction id and skipped without balance
// mutation. A non-nil error wraps ErrSettlementTransient and means at least
// one user still needs a retry; it never means a user was silently skipped.
func (e *Engine) SettleSession(ctx context.Context, session domain.GameSession, betsByUser map[int64][]*domain.Bet) (map[int64]*domain.UserSettlement, error) {
	if !session.Completed() || session.Winner == "" || session.WinningCard == nil {
		return nil, fmt.Errorf("%w: session %s is not terminal", domain.ErrInvalidCommand, session.SessionID)
	}

	results := make(map[int64]*domain.UserSettlement, len(betsByUser))
	var orders []*domain.BetOrder
	var failed []int64

	// Deterministic order keeps retries and logs stable
	userIDs := make([]int64, 0, len(betsByUser))
	for uid := range betsByUser {
		userIDs = append(userIDs, uid)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	for _, uid := range userIDs {
		res, userOrders, err := e.settleUser(ctx, session, uid, betsByUser[uid])
		if err != nil {
			logger.Error(ctx).Err(err).
				Str("session_id", session.SessionID).
				Int64("user_id", uid).
				Msg("user settlement failed, will retry")
			failed = append(failed, uid)
			continue
		}
		results[uid] = res
		orders = append(orders, userOrders...)
	}

	if e.orderRepo != nil && len(orders) > 0 {
		if err := e.orderRepo.BatchCreate(ctx, orders); err != nil {
			logger.Error(ctx).Err(err).
				Str("session_id", session.SessionID).
				Int("orders", len(orders)).
				Msg("persist settled bet orders failed")
		}
	}

	if len(failed) > 0 {
		return results, fmt.Errorf("%w: %d users pending in session %s", domain.ErrSettlementTransient, len(failed), session.SessionID)
	}
	return results, nil
}

// settleUser computes one user's outcome and applies the money movements
func (e *Engine) settleUser(ctx context.Context, session domain.GameSession, userID int64, bets []*domain.Bet) (*domain.UserSettlement, []*domain.BetOrder, error) {
	res := &domain.UserSettlement{UserID: userID, Outcome: domain.OutcomeNoBet}
	if len(bets) == 0 {
		return res, nil, nil
	}

	var winnerBets, loserBets, refundBets []*domain.Bet
	for _, b := range bets {
		switch {
		case b.Round > session.HighestRoundOpened:
			// Betting for this round never opened (early match); the
			// stake goes straight back.
			refundBets = append(refundBets, b)
			res.Refunded += b.Amount
		case b.Side == session.Winner:
			winnerBets = append(winnerBets, b)
			res.StakeOnWinner += b.Amount
		default:
			loserBets = append(loserBets, b)
			res.StakeOnLoser += b.Amount
		}
	}

	if res.StakeOnWinner > 0 {
		res.Payout = res.StakeOnWinner * e.MultiplierX100 / 100
	}
	res.NetProfit = res.Payout - (res.StakeOnWinner + res.StakeOnLoser)
	res.Outcome = classify(res)

	// Payout credit, exactly once per session/user pair
	if res.Payout > 0 {
		txnID := domain.PayoutTxnID(session.SessionID, userID)
		res.TxnID = txnID
		applied, err := e.applyCredit(ctx, session.SessionID, userID, res.Payout, txnID, domain.TxnKindCreditPayout)
		if err != nil {
			return nil, nil, err
		}
		if !applied {
			logger.Info(ctx).
				Str("txn_id", txnID).
				Int64("user_id", userID).
				Msg("payout already applied, returning prior result")
		}
	}

	// Refund each never-opened bet under its own idempotency key
	for _, b := range refundBets {
		if _, err := e.applyCredit(ctx, session.SessionID, userID, b.Amount, domain.RefundTxnID(b.BetID), domain.TxnKindRefund); err != nil {
			return nil, nil, err
		}
	}

	now := time.Now()
	orders := make([]*domain.BetOrder, 0, len(bets))
	mark := func(list []*domain.Bet, status domain.BetStatus, payout int64) {
		for _, b := range list {
			b.Settle(status, res.TxnID)
			orders = append(orders, &domain.BetOrder{
				OrderID:   b.BetID,
				UserID:    b.UserID,
				SessionID: session.SessionID,
				GameCode:  "andar_bahar",
				Round:     b.Round,
				Side:      b.Side,
				Amount:    b.Amount,
				Payout:    payout,
				Result:    b.Status,
				Status:    domain.BetOrderStatusSettled,
				CreatedAt: b.PlacedAt,
				SettledAt: &now,
			})
			payout = 0 // whole-user payout attributed to the first winning order
		}
	}
	mark(winnerBets, domain.BetStatusWon, res.Payout)
	mark(loserBets, domain.BetStatusLost, 0)
	for _, b := range winnerBets {
		e.persistStatus(ctx, b)
	}
	for _, b := range loserBets {
		e.persistStatus(ctx, b)
	}
	for _, b := range refundBets {
		b.Settle(domain.BetStatusRefunded, domain.RefundTxnID(b.BetID))
		e.persistStatus(ctx, b)
		orders = append(orders, &domain.BetOrder{
			OrderID:   b.BetID,
			UserID:    b.UserID,
			SessionID: session.SessionID,
			GameCode:  "andar_bahar",
			Round:     b.Round,
			Side:      b.Side,
			Amount:    b.Amount,
			Payout:    b.Amount,
			Result:    b.Status,
			Status:    domain.BetOrderStatusSettled,
			CreatedAt: b.PlacedAt,
			SettledAt: &now,
		})
	}

	return res, orders, nil
}

// persistStatus writes a bet's terminal status through, fire-and-confirm.
// The stored mirror is advisory; settled truth lives in the bet orders.
func (e *Engine) persistStatus(ctx context.Context, bet *domain.Bet) {
	if e.betRepo == nil {
		return
	}
	if err := e.betRepo.UpdateStatus(ctx, bet); err != nil {
		logger.Error(ctx).Err(err).Str("bet_id", bet.BetID).Msg("persist bet status failed")
	}
}

// applyCredit credits the wallet and records the transaction, both gated by
// the same idempotency key. It reports false when the key already existed.
func (e *Engine) applyCredit(ctx context.Context, sessionID string, userID int64, amount int64, txnID string, kind domain.TxnKind) (bool, error) {
	created, err := e.txnRepo.Create(ctx, &domain.Transaction{
		TxnID:     txnID,
		UserID:    userID,
		SessionID: sessionID,
		Amount:    amount,
		Kind:      kind,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("%w: record transaction %s: %v", domain.ErrSettlementTransient, txnID, err)
	}
	if !created {
		// Recorded on a previous attempt. The wallet credit below is
		// idempotent too, so calling it again is harmless and covers the
		// crash window between wallet call and record write.
		_, err := e.wallet.Credit(ctx, userID, amount, txnID)
		if err != nil {
			return false, fmt.Errorf("%w: credit %s: %v", domain.ErrSettlementTransient, txnID, err)
		}
		return false, nil
	}
	if _, err := e.wallet.Credit(ctx, userID, amount, txnID); err != nil {
		return false, fmt.Errorf("%w: credit %s: %v", domain.ErrSettlementTransient, txnID, err)
	}
	return true, nil
}

func classify(res *domain.UserSettlement) domain.SettlementOutcome {
	switch {
	case res.StakeOnWinner > 0 && res.NetProfit > 0:
		return domain.OutcomeWin
	case res.StakeOnWinner > 0:
		return domain.OutcomeMixed
	case res.StakeOnLoser > 0:
		return domain.OutcomeLoss
	case res.Refunded > 0:
		return domain.OutcomeRefund
	default:
		return domain.OutcomeNoBet
	}
}
