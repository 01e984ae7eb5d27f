package andarbahar_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

// runToCompletion drives a started session through both rounds until the
// given card ends it in continuous draw.
func runToCompletion(t *testing.T, g *testGame, winningCard string, winningSide domain.Side) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, g.Coord.ForcePhaseChange(ctx, domain.PhaseDealingRound1))
	require.NoError(t, g.Coord.DealCard(ctx, mustCard("2H"), domain.SideAndar))
	require.NoError(t, g.Coord.DealCard(ctx, mustCard("3C"), domain.SideBahar))
	require.NoError(t, g.Coord.ForcePhaseChange(ctx, domain.PhaseDealingRound2))
	require.NoError(t, g.Coord.DealCard(ctx, mustCard("4H"), domain.SideAndar))
	require.NoError(t, g.Coord.DealCard(ctx, mustCard("5C"), domain.SideBahar))
	require.NoError(t, g.Coord.DealCard(ctx, mustCard(winningCard), winningSide))
}

func TestSettlementPaysWinnersOnce(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, time.Hour, time.Hour)
	g.Wallet.SetBalance(1001, 100000)
	g.Wallet.SetBalance(1002, 100000)

	require.NoError(t, g.Coord.StartSession(ctx, mustCard("KS")))
	_, err := g.Coord.PlaceBet(ctx, 1001, domain.Round1, domain.SideAndar, 10000)
	require.NoError(t, err)
	_, err = g.Coord.PlaceBet(ctx, 1002, domain.Round1, domain.SideBahar, 10000)
	require.NoError(t, err)

	runToCompletion(t, g, "KD", domain.SideAndar)

	// Winner got 2.00x, loser got nothing back
	bal, _ := g.Wallet.Balance(ctx, 1001)
	assert.Equal(t, int64(110000), bal)
	bal, _ = g.Wallet.Balance(ctx, 1002)
	assert.Equal(t, int64(90000), bal)

	// One public completion, one private settlement per bettor
	completed := g.Broadcaster.PublicByType(domain.EventSessionCompleted)
	require.Len(t, completed, 1)
	assert.Nil(t, completed[0].Data.(domain.SessionCompletedData).PerUser)

	var private *domain.UserSettlement
	for _, e := range g.Broadcaster.ForUser(1001) {
		if e.Type == domain.EventSessionCompleted {
			private = e.Data.(domain.SessionCompletedData).PerUser
		}
	}
	require.NotNil(t, private)
	assert.Equal(t, domain.OutcomeWin, private.Outcome)
	assert.Equal(t, int64(20000), private.Payout)
	assert.Equal(t, int64(10000), private.NetProfit)

	// Audit records landed
	assert.Len(t, g.Orders.Orders(), 2)
	rec := g.Sessions.Get("AB-IT")
	require.NotNil(t, rec)
	assert.Equal(t, domain.SessionStatusCompleted, rec.Status)
	assert.Equal(t, "KD", rec.WinningCard)
	assert.Equal(t, 5, rec.CardsDealt)
}

func TestSettlementRetriesTransientWalletFailure(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, time.Hour, time.Hour)
	g.Wallet.SetBalance(1001, 100000)

	require.NoError(t, g.Coord.StartSession(ctx, mustCard("KS")))
	_, err := g.Coord.PlaceBet(ctx, 1001, domain.Round1, domain.SideAndar, 10000)
	require.NoError(t, err)

	// The payout credit fails once; the coordinator retries with the same
	// idempotency key until it lands.
	g.Wallet.FailNext(1, errors.New("wallet rpc unavailable"))

	runToCompletion(t, g, "KD", domain.SideAndar)

	assert.Eventually(t, func() bool {
		bal, _ := g.Wallet.Balance(ctx, 1001)
		return bal == 110000
	}, 2*time.Second, 20*time.Millisecond)

	// Exactly one debit and one credit were applied despite the retry
	assert.Equal(t, 2, g.Wallet.AppliedCount())
}

func TestEarlyMatchRefundsUnopenedRoundBets(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, time.Hour, time.Hour)
	g.Wallet.SetBalance(1001, 100000)

	require.NoError(t, g.Coord.StartSession(ctx, mustCard("KS")))
	_, err := g.Coord.PlaceBet(ctx, 1001, domain.Round1, domain.SideAndar, 10000)
	require.NoError(t, err)

	require.NoError(t, g.Coord.ForcePhaseChange(ctx, domain.PhaseDealingRound1))

	// Match on the very first card; the session never reaches round 2
	require.NoError(t, g.Coord.DealCard(ctx, mustCard("KH"), domain.SideAndar))

	snap, err := g.Coord.Snapshot(ctx, 1001)
	require.NoError(t, err)
	require.True(t, snap.Session.Completed())
	assert.Equal(t, domain.Round1, snap.Session.HighestRoundOpened)

	// The round-1 andar bet won on the early match
	bal, _ := g.Wallet.Balance(ctx, 1001)
	assert.Equal(t, int64(110000), bal)
	require.NotNil(t, snap.Settlement)
	assert.Equal(t, domain.OutcomeWin, snap.Settlement.Outcome)
}

func TestSnapshotAfterCompletionCarriesSettlement(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, time.Hour, time.Hour)
	g.Wallet.SetBalance(1001, 100000)

	require.NoError(t, g.Coord.StartSession(ctx, mustCard("KS")))
	_, err := g.Coord.PlaceBet(ctx, 1001, domain.Round1, domain.SideBahar, 10000)
	require.NoError(t, err)

	runToCompletion(t, g, "KD", domain.SideAndar)

	// A reconnecting bettor sees the final state and their own result
	snap, err := g.Coord.Snapshot(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, snap.Session.Completed())
	require.Len(t, snap.Bets, 1)
	assert.Equal(t, domain.BetStatusLost, snap.Bets[0].Status)
	require.NotNil(t, snap.Settlement)
	assert.Equal(t, domain.OutcomeLoss, snap.Settlement.Outcome)

	// A spectator with no bets gets no settlement block
	snap, err = g.Coord.Snapshot(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, snap.Settlement)
	assert.Empty(t, snap.Bets)
}
