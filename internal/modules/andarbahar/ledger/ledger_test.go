package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/repository/memory"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/wallet"
)

var testLimits = Limits{MinBet: 1000, MaxBet: 100000}

func newTestLedger() (*Ledger, *wallet.MockService, *memory.TransactionRepository) {
	walletSvc := wallet.NewMockService()
	txnRepo := memory.NewTransactionRepository()
	betRepo := memory.NewBetRepository()
	l := New("AB1", testLimits, walletSvc, txnRepo, betRepo)
	return l, walletSvc, txnRepo
}

func TestPlaceBet(t *testing.T) {
	ctx := context.Background()
	l, walletSvc, txnRepo := newTestLedger()
	walletSvc.SetBalance(1001, 50000)

	bet, err := l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 5000)
	assert.NoError(t, err)
	assert.Equal(t, domain.BetStatusActive, bet.Status)
	assert.Equal(t, int64(5000), bet.Amount)

	// Stake left the wallet at acceptance
	bal, _ := walletSvc.Balance(ctx, 1001)
	assert.Equal(t, int64(45000), bal)

	// Debit transaction was recorded under the bet's idempotency key
	txn, err := txnRepo.Get(ctx, domain.BetTxnID(bet.BetID))
	assert.NoError(t, err)
	assert.NotNil(t, txn)
	assert.Equal(t, int64(-5000), txn.Amount)
	assert.Equal(t, domain.TxnKindDebitBet, txn.Kind)

	assert.Equal(t, int64(5000), l.Aggregate(domain.Round1, domain.SideAndar))
	assert.Equal(t, int64(0), l.Aggregate(domain.Round1, domain.SideBahar))
}

func TestPlaceBetRoundClosed(t *testing.T) {
	ctx := context.Background()
	l, walletSvc, _ := newTestLedger()
	walletSvc.SetBalance(1001, 50000)

	// No betting window in a dealing phase
	_, err := l.PlaceBet(ctx, domain.PhaseDealingRound1, 1001, domain.Round1, domain.SideAndar, 5000)
	assert.ErrorIs(t, err, domain.ErrRoundClosed)

	// Round mismatch: round-2 bet during round-1 betting
	_, err = l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round2, domain.SideAndar, 5000)
	assert.ErrorIs(t, err, domain.ErrRoundClosed)

	// Sealed round rejects even if the phase still says betting
	l.Seal(domain.Round1)
	_, err = l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 5000)
	assert.ErrorIs(t, err, domain.ErrRoundClosed)

	// Nothing was debited by any rejection
	bal, _ := walletSvc.Balance(ctx, 1001)
	assert.Equal(t, int64(50000), bal)
}

func TestPlaceBetAmountOutOfRange(t *testing.T) {
	ctx := context.Background()
	l, walletSvc, _ := newTestLedger()
	walletSvc.SetBalance(1001, 10000000)

	_, err := l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 999)
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)

	_, err = l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 100001)
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)

	// Boundaries are inclusive
	_, err = l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 1000)
	assert.NoError(t, err)
	_, err = l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 100000)
	assert.NoError(t, err)
}

func TestPlaceBetInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l, walletSvc, _ := newTestLedger()
	walletSvc.SetBalance(1001, 3000)

	_, err := l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 5000)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Balance untouched and no bet recorded
	bal, _ := walletSvc.Balance(ctx, 1001)
	assert.Equal(t, int64(3000), bal)
	assert.Empty(t, l.UserBets(1001))
	assert.Equal(t, int64(0), l.Aggregate(domain.Round1, domain.SideAndar))
}

func TestAggregatesAcrossRoundsAndUsers(t *testing.T) {
	ctx := context.Background()
	l, walletSvc, _ := newTestLedger()
	walletSvc.SetBalance(1001, 100000)
	walletSvc.SetBalance(1002, 100000)

	l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 5000)
	l.PlaceBet(ctx, domain.PhaseBettingRound1, 1002, domain.Round1, domain.SideAndar, 3000)
	l.PlaceBet(ctx, domain.PhaseBettingRound1, 1002, domain.Round1, domain.SideBahar, 2000)
	l.Seal(domain.Round1)
	l.PlaceBet(ctx, domain.PhaseBettingRound2, 1001, domain.Round2, domain.SideBahar, 7000)

	totals := l.Totals()
	assert.Equal(t, domain.Round1, totals[0].Round)
	assert.Equal(t, int64(8000), totals[0].Andar)
	assert.Equal(t, int64(2000), totals[0].Bahar)
	assert.Equal(t, domain.Round2, totals[1].Round)
	assert.Equal(t, int64(0), totals[1].Andar)
	assert.Equal(t, int64(7000), totals[1].Bahar)

	totalBets, totalPlayers, totalAmount := l.Stats()
	assert.Equal(t, 4, totalBets)
	assert.Equal(t, 2, totalPlayers)
	assert.Equal(t, int64(17000), totalAmount)

	assert.Len(t, l.UserBets(1002), 2)
	assert.Len(t, l.BetsByUser()[1001], 2)
}

func TestRestoreReloadsActiveBets(t *testing.T) {
	ctx := context.Background()
	walletSvc := wallet.NewMockService()
	txnRepo := memory.NewTransactionRepository()
	betRepo := memory.NewBetRepository()
	walletSvc.SetBalance(1001, 50000)
	walletSvc.SetBalance(1002, 50000)

	l := New("AB1", testLimits, walletSvc, txnRepo, betRepo)
	b1, err := l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 5000)
	assert.NoError(t, err)
	_, err = l.PlaceBet(ctx, domain.PhaseBettingRound1, 1002, domain.Round1, domain.SideBahar, 3000)
	assert.NoError(t, err)

	// A bet already settled on a previous run stays out of the live ledger
	b1.Settle(domain.BetStatusWon, "payout:AB1:1001")
	assert.NoError(t, betRepo.UpdateStatus(ctx, b1))

	restored := New("AB1", testLimits, walletSvc, txnRepo, betRepo)
	assert.NoError(t, restored.Restore(ctx))

	assert.Equal(t, int64(0), restored.Aggregate(domain.Round1, domain.SideAndar))
	assert.Equal(t, int64(3000), restored.Aggregate(domain.Round1, domain.SideBahar))
	assert.Len(t, restored.UserBets(1002), 1)
	assert.Empty(t, restored.UserBets(1001))

	totalBets, totalPlayers, totalAmount := restored.Stats()
	assert.Equal(t, 1, totalBets)
	assert.Equal(t, 1, totalPlayers)
	assert.Equal(t, int64(3000), totalAmount)
}

func TestUserBetsReturnsCopies(t *testing.T) {
	ctx := context.Background()
	l, walletSvc, _ := newTestLedger()
	walletSvc.SetBalance(1001, 50000)

	l.PlaceBet(ctx, domain.PhaseBettingRound1, 1001, domain.Round1, domain.SideAndar, 5000)

	bets := l.UserBets(1001)
	bets[0].Amount = 999999

	assert.Equal(t, int64(5000), l.UserBets(1001)[0].Amount)
}
