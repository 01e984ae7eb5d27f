// Package ledger validates and aggregates wagers for one session.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/wallet"
	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
)

// Limits bounds a single bet, in currency minor units
type Limits struct {
	MinBet int64
	MaxBet int64
}

type roundSide struct {
	round domain.Round
	side  domain.Side
}

// Ledger is the authoritative bet collection for one session. Mutations
// come only from the owning coordinator; aggregate reads may happen
// concurrently, hence the RWMutex.
type Ledger struct {
	mu        sync.RWMutex
	sessionID string
	limits    Limits
	wallet    wallet.Service
	txnRepo   domain.TransactionRepository
	betRepo   domain.BetRepository

	bets   []*domain.Bet
	byUser map[int64][]*domain.Bet
	totals map[roundSide]int64
	sealed map[domain.Round]bool
}

// New creates an empty ledger for a session
func New(sessionID string, limits Limits, walletSvc wallet.Service, txnRepo domain.TransactionRepository, betRepo domain.BetRepository) *Ledger {
	return &Ledger{
		sessionID: sessionID,
		limits:    limits,
		wallet:    walletSvc,
		txnRepo:   txnRepo,
		betRepo:   betRepo,
		byUser:    make(map[int64][]*domain.Bet),
		totals:    make(map[roundSide]int64),
		sealed:    make(map[domain.Round]bool),
	}
}

// Restore reloads previously accepted bets from the bet repository,
// used when the process restarts against an existing session id. Only
// active bets are restored; settled bets already live in the order table.
// Must be called before the coordinator starts accepting commands.
func (l *Ledger) Restore(ctx context.Context) error {
	stored, err := l.betRepo.GetBets(ctx, l.sessionID)
	if err != nil {
		return fmt.Errorf("restore bets for session %s: %w", l.sessionID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range stored {
		if b.Status != domain.BetStatusActive {
			continue
		}
		cp := *b
		l.bets = append(l.bets, &cp)
		l.byUser[cp.UserID] = append(l.byUser[cp.UserID], &cp)
		l.totals[roundSide{cp.Round, cp.Side}] += cp.Amount
	}
	if len(l.bets) > 0 {
		logger.Info(ctx).
			Str("session_id", l.sessionID).
			Int("bets", len(l.bets)).
			Msg("restored live bets from repository")
	}
	return nil
}

// PlaceBet validates and records a wager. phase is the session's current
// phase as seen by the coordinator at the instant the command is processed.
// On any rejection nothing has been debited and nothing recorded.
func (l *Ledger) PlaceBet(ctx context.Context, phase domain.Phase, userID int64, round domain.Round, side domain.Side, amount int64) (*domain.Bet, error) {
	openRound, open := phase.BettingRound()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !open || openRound != round || l.sealed[round] {
		return nil, fmt.Errorf("%w: round %d is not open in phase %s", domain.ErrRoundClosed, round, phase)
	}
	if !side.IsValid() {
		return nil, fmt.Errorf("%w: unknown side %q", domain.ErrRoundClosed, side)
	}
	if amount < l.limits.MinBet || amount > l.limits.MaxBet {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", domain.ErrAmountOutOfRange, amount, l.limits.MinBet, l.limits.MaxBet)
	}

	bet := domain.NewBet(l.sessionID, userID, round, side, amount)
	txnID := domain.BetTxnID(bet.BetID)

	// The debit is the commit point. The wallet is idempotent by txnID, so
	// a retried command with the same bet cannot double-debit.
	if _, err := l.wallet.Debit(ctx, userID, amount, txnID); err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return nil, fmt.Errorf("%w: user %d", domain.ErrInsufficientBalance, userID)
		}
		return nil, fmt.Errorf("wallet debit: %w", err)
	}

	l.bets = append(l.bets, bet)
	l.byUser[userID] = append(l.byUser[userID], bet)
	l.totals[roundSide{round, side}] += amount

	// Fire-and-confirm persistence: failures are logged, the in-memory
	// ledger stays authoritative for this session.
	if created, err := l.txnRepo.Create(ctx, &domain.Transaction{
		TxnID:     txnID,
		UserID:    userID,
		SessionID: l.sessionID,
		Amount:    -amount,
		Kind:      domain.TxnKindDebitBet,
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Error(ctx).Err(err).Str("txn_id", txnID).Msg("record debit transaction failed")
	} else if !created {
		logger.Warn(ctx).Str("txn_id", txnID).Msg("debit transaction already recorded")
	}
	if err := l.betRepo.SaveBet(ctx, bet); err != nil {
		logger.Error(ctx).Err(err).Str("bet_id", bet.BetID).Msg("persist bet failed")
	}

	return bet, nil
}

// Seal closes a round for betting. Sealing is enacted by the coordinator so
// there is a single source of truth for "is this round open".
func (l *Ledger) Seal(round domain.Round) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sealed[round] = true
}

// Aggregate returns the sum of active-bet amounts for a round/side. It
// reflects only bets accepted before the round sealed.
func (l *Ledger) Aggregate(round domain.Round, side domain.Side) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals[roundSide{round, side}]
}

// Totals returns per-round aggregates for both sides
func (l *Ledger) Totals() []domain.SideTotals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return []domain.SideTotals{
		{Round: domain.Round1, Andar: l.totals[roundSide{domain.Round1, domain.SideAndar}], Bahar: l.totals[roundSide{domain.Round1, domain.SideBahar}]},
		{Round: domain.Round2, Andar: l.totals[roundSide{domain.Round2, domain.SideAndar}], Bahar: l.totals[roundSide{domain.Round2, domain.SideBahar}]},
	}
}

// BetsByUser hands the authoritative bets to the settlement engine. Only
// the coordinator may call this, and only once the session is terminal.
func (l *Ledger) BetsByUser() map[int64][]*domain.Bet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int64][]*domain.Bet, len(l.byUser))
	for uid, bets := range l.byUser {
		out[uid] = append([]*domain.Bet(nil), bets...)
	}
	return out
}

// UserBets returns copies of one user's bets for snapshot building
func (l *Ledger) UserBets(userID int64) []domain.Bet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Bet, 0, len(l.byUser[userID]))
	for _, b := range l.byUser[userID] {
		out = append(out, *b)
	}
	return out
}

// Stats returns totals for the terminal session record
func (l *Ledger) Stats() (totalBets int, totalPlayers int, totalAmount int64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, bets := range l.byUser {
		if len(bets) > 0 {
			totalPlayers++
		}
	}
	for _, b := range l.bets {
		totalBets++
		totalAmount += b.Amount
	}
	return
}
