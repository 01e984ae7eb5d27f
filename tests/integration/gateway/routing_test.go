package gateway_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	abCoordinator "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/coordinator"
	abDomain "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	abLedger "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/ledger"
	abMachine "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/machine"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/repository/memory"
	abSettlement "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/settlement"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/usecase"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/ws"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/wallet"
	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
)

func init() {
	logger.Init(logger.Config{Level: "debug", Format: "console"})
}

// newStack wires the gateway use case onto a live coordinator, exactly as
// the monolith does, minus the websocket transport.
func newStack(t *testing.T) (*usecase.GatewayUseCase, *wallet.MockService) {
	t.Helper()

	m := abMachine.New("AB-GW")
	m.Round1BettingDuration = time.Hour
	m.Round2BettingDuration = time.Hour

	walletSvc := wallet.NewMockService()
	txnRepo := memory.NewTransactionRepository()
	betRepo := memory.NewBetRepository()
	l := abLedger.New("AB-GW", abLedger.Limits{MinBet: 1000, MaxBet: 5000000}, walletSvc, txnRepo, betRepo)
	engine := abSettlement.NewEngine(walletSvc, txnRepo, memory.NewBetOrderRepository(), betRepo, 200)

	uc := usecase.NewGatewayUseCase(ws.NewManager())
	coord := abCoordinator.New("AB-GW", m, l, engine, uc, memory.NewSessionRepository())
	uc.SetCoordinator(coord)

	ctx, cancel := context.WithCancel(context.Background())
	go coord.Run(ctx)
	t.Cleanup(cancel)

	return uc, walletSvc
}

func msg(command string, payload interface{}) []byte {
	data, _ := json.Marshal(payload)
	raw, _ := json.Marshal(map[string]json.RawMessage{
		"command": json.RawMessage(fmt.Sprintf("%q", command)),
		"data":    data,
	})
	return raw
}

func TestAdminCommandsRequireAdminRole(t *testing.T) {
	ctx := context.Background()
	uc, _ := newStack(t)
	player := &ws.Connection{UserID: 1001, Role: abDomain.RolePlayer}

	for _, command := range []string{"start_session", "deal_card", "force_phase"} {
		_, err := uc.HandleMessage(ctx, player, msg(command, map[string]string{}))
		assert.ErrorIs(t, err, abDomain.ErrInvalidCommand, "command %s", command)
	}
}

func TestCommandRouting(t *testing.T) {
	ctx := context.Background()
	uc, walletSvc := newStack(t)
	walletSvc.SetBalance(1001, 100000)

	admin := &ws.Connection{UserID: 1, Role: abDomain.RoleAdmin}
	player := &ws.Connection{UserID: 1001, Role: abDomain.RolePlayer}

	resp, err := uc.HandleMessage(ctx, admin, msg("start_session", map[string]string{"opening_card": "7S"}))
	require.NoError(t, err)
	assert.Contains(t, string(resp), `"ack"`)

	resp, err = uc.HandleMessage(ctx, player, msg("place_bet", map[string]interface{}{
		"round": 1, "side": "andar", "amount": 5000,
	}))
	require.NoError(t, err)
	assert.Contains(t, string(resp), `"ack"`)

	bal, _ := walletSvc.Balance(ctx, 1001)
	assert.Equal(t, int64(95000), bal)

	// Malformed card strings are rejected before reaching the session
	_, err = uc.HandleMessage(ctx, admin, msg("deal_card", map[string]string{"card": "77X", "side": "andar"}))
	assert.ErrorIs(t, err, abDomain.ErrIllegalDeal)

	_, err = uc.HandleMessage(ctx, player, msg("bogus_command", map[string]string{}))
	assert.Error(t, err)
}

func TestSnapshotStripsAggregatesForPlayers(t *testing.T) {
	ctx := context.Background()
	uc, walletSvc := newStack(t)
	walletSvc.SetBalance(1001, 100000)

	admin := &ws.Connection{UserID: 1, Role: abDomain.RoleAdmin}
	player := &ws.Connection{UserID: 1001, Role: abDomain.RolePlayer}

	_, err := uc.HandleMessage(ctx, admin, msg("start_session", map[string]string{"opening_card": "7S"}))
	require.NoError(t, err)
	_, err = uc.HandleMessage(ctx, player, msg("place_bet", map[string]interface{}{
		"round": 1, "side": "andar", "amount": 5000,
	}))
	require.NoError(t, err)

	adminRaw, err := uc.HandleMessage(ctx, admin, msg("get_snapshot", map[string]string{}))
	require.NoError(t, err)
	playerRaw, err := uc.HandleMessage(ctx, player, msg("get_snapshot", map[string]string{}))
	require.NoError(t, err)

	var adminEvent, playerEvent struct {
		Type string `json:"type"`
		Data struct {
			Aggregates []abDomain.SideTotals `json:"aggregates"`
			Bets       []abDomain.Bet        `json:"bets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(adminRaw, &adminEvent))
	require.NoError(t, json.Unmarshal(playerRaw, &playerEvent))

	assert.Equal(t, string(abDomain.EventSnapshot), adminEvent.Type)

	// Admin sees the money totals; player does not
	require.NotEmpty(t, adminEvent.Data.Aggregates)
	assert.Equal(t, int64(5000), adminEvent.Data.Aggregates[0].Andar)
	assert.Empty(t, playerEvent.Data.Aggregates)

	// Player still sees their own bets
	require.Len(t, playerEvent.Data.Bets, 1)
	assert.Equal(t, int64(5000), playerEvent.Data.Bets[0].Amount)

	// The connection's read cursor advanced to the snapshot version
	assert.Greater(t, player.StateVersion(), uint64(0))
}

func TestErrorMessageCarriesWireCode(t *testing.T) {
	ctx := context.Background()
	uc, walletSvc := newStack(t)
	walletSvc.SetBalance(1001, 1000)

	admin := &ws.Connection{UserID: 1, Role: abDomain.RoleAdmin}
	player := &ws.Connection{UserID: 1001, Role: abDomain.RolePlayer}

	_, err := uc.HandleMessage(ctx, admin, msg("start_session", map[string]string{"opening_card": "7S"}))
	require.NoError(t, err)

	_, err = uc.HandleMessage(ctx, player, msg("place_bet", map[string]interface{}{
		"round": 1, "side": "andar", "amount": 5000,
	}))
	require.ErrorIs(t, err, abDomain.ErrInsufficientBalance)

	var event struct {
		Type string `json:"type"`
		Data abDomain.ErrorData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(usecase.ErrorMessage(err), &event))
	assert.Equal(t, string(abDomain.EventError), event.Type)
	assert.Equal(t, "insufficient_balance", event.Data.Code)
	assert.NotEmpty(t, event.Data.Message)
}
