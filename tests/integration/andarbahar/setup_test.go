package andarbahar_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/coordinator"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/ledger"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/machine"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/repository/memory"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/settlement"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/wallet"
	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
)

func init() {
	// Init logger for all tests in this package
	logger.Init(logger.Config{Level: "debug", Format: "console"})
}

// TestBroadcaster buffers outbound events per audience
type TestBroadcaster struct {
	mu         sync.Mutex
	Public     []domain.Event
	RoleEvents map[string][]domain.Event
	UserEvents map[int64][]domain.Event
}

func NewTestBroadcaster() *TestBroadcaster {
	return &TestBroadcaster{
		RoleEvents: make(map[string][]domain.Event),
		UserEvents: make(map[int64][]domain.Event),
	}
}

func (b *TestBroadcaster) Broadcast(ctx context.Context, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Public = append(b.Public, event)
}

func (b *TestBroadcaster) SendToRole(ctx context.Context, role string, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.RoleEvents[role] = append(b.RoleEvents[role], event)
}

func (b *TestBroadcaster) SendToUser(ctx context.Context, userID int64, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.UserEvents[userID] = append(b.UserEvents[userID], event)
}

func (b *TestBroadcaster) PublicByType(t domain.EventType) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Event
	for _, e := range b.Public {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (b *TestBroadcaster) ForUser(userID int64) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.UserEvents[userID]...)
}

// testGame wires a full in-memory game stack around one coordinator
type testGame struct {
	Coord       *coordinator.Coordinator
	Wallet      *wallet.MockService
	Broadcaster *TestBroadcaster
	Orders      *memory.BetOrderRepository
	Sessions    *memory.SessionRepository
}

func newTestGame(t *testing.T, round1, round2 time.Duration) *testGame {
	t.Helper()

	m := machine.New("AB-IT")
	m.Round1BettingDuration = round1
	m.Round2BettingDuration = round2

	walletSvc := wallet.NewMockService()
	txnRepo := memory.NewTransactionRepository()
	betRepo := memory.NewBetRepository()
	orderRepo := memory.NewBetOrderRepository()
	sessionRepo := memory.NewSessionRepository()
	broadcaster := NewTestBroadcaster()

	l := ledger.New("AB-IT", ledger.Limits{MinBet: 1000, MaxBet: 5000000}, walletSvc, txnRepo, betRepo)
	engine := settlement.NewEngine(walletSvc, txnRepo, orderRepo, betRepo, 200)

	coord := coordinator.New("AB-IT", m, l, engine, broadcaster, sessionRepo)
	coord.SettleRetryDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go coord.Run(ctx)
	t.Cleanup(cancel)

	return &testGame{
		Coord:       coord,
		Wallet:      walletSvc,
		Broadcaster: broadcaster,
		Orders:      orderRepo,
		Sessions:    sessionRepo,
	}
}

func mustCard(s string) domain.Card {
	c, err := domain.ParseCard(s)
	if err != nil {
		panic(err)
	}
	return c
}
