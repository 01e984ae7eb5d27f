package andarbahar_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

func TestBettingWindowLifecycle(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, 100*time.Millisecond, 100*time.Millisecond)
	g.Wallet.SetBalance(1001, 100000)

	// No bets before the session starts
	_, err := g.Coord.PlaceBet(ctx, 1001, domain.Round1, domain.SideAndar, 5000)
	assert.ErrorIs(t, err, domain.ErrRoundClosed)

	require.NoError(t, g.Coord.StartSession(ctx, mustCard("KS")))

	_, err = g.Coord.PlaceBet(ctx, 1001, domain.Round1, domain.SideAndar, 5000)
	require.NoError(t, err)

	// The countdown closes the window on its own
	assert.Eventually(t, func() bool {
		snap, err := g.Coord.Snapshot(ctx, 0)
		return err == nil && snap.Session.Phase == domain.PhaseDealingRound1
	}, time.Second, 10*time.Millisecond)

	_, err = g.Coord.PlaceBet(ctx, 1001, domain.Round1, domain.SideAndar, 5000)
	assert.ErrorIs(t, err, domain.ErrRoundClosed)

	// Phase changes were announced publicly
	phases := g.Broadcaster.PublicByType(domain.EventPhaseChanged)
	require.GreaterOrEqual(t, len(phases), 2)
	first := phases[0].Data.(domain.PhaseChangedData)
	assert.Equal(t, domain.PhaseBettingRound1, first.Phase)
}

func TestConcurrentBetsAllDebitExactlyOnce(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, time.Hour, time.Hour)

	const users = 20
	for i := int64(1); i <= users; i++ {
		g.Wallet.SetBalance(1000+i, 10000)
	}
	require.NoError(t, g.Coord.StartSession(ctx, mustCard("KS")))

	// Hammer the coordinator from many goroutines at once
	var wg sync.WaitGroup
	errs := make([]error, users)
	for i := int64(0); i < users; i++ {
		wg.Add(1)
		go func(i int64) {
			defer wg.Done()
			_, errs[i] = g.Coord.PlaceBet(ctx, 1001+i, domain.Round1, domain.SideAndar, 4000)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "user %d", 1001+i)
	}

	// Every user was debited exactly once
	for i := int64(1); i <= users; i++ {
		bal, _ := g.Wallet.Balance(ctx, 1000+i)
		assert.Equal(t, int64(6000), bal)
	}

	snap, err := g.Coord.Snapshot(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(users*4000), snap.Aggregates[0].Andar)
}

func TestBetAcceptedIsPrivate(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, time.Hour, time.Hour)
	g.Wallet.SetBalance(1001, 100000)
	g.Wallet.SetBalance(1002, 100000)

	require.NoError(t, g.Coord.StartSession(ctx, mustCard("KS")))
	_, err := g.Coord.PlaceBet(ctx, 1001, domain.Round1, domain.SideAndar, 5000)
	require.NoError(t, err)

	// Only the bettor saw the confirmation
	assert.Len(t, g.Broadcaster.ForUser(1001), 1)
	assert.Empty(t, g.Broadcaster.ForUser(1002))

	accepted := g.Broadcaster.ForUser(1001)[0]
	assert.Equal(t, domain.EventBetAccepted, accepted.Type)
	data := accepted.Data.(domain.BetAcceptedData)
	assert.Equal(t, int64(5000), data.Amount)
	assert.Equal(t, domain.SideAndar, data.Side)

	// Nothing about amounts leaked into the public stream
	for _, e := range g.Broadcaster.PublicByType(domain.EventAggregates) {
		t.Errorf("aggregates broadcast publicly: %+v", e)
	}
}
