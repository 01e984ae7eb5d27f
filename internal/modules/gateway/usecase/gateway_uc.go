// Package usecase implements the gateway's message routing and the
// broadcast synchronizer for the Andar Bahar game.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/coordinator"
	abDomain "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	gwDomain "github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/domain"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/ws"
	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
)

// GatewayUseCase routes inbound client commands into the session
// coordinator and pushes role-filtered outbound events to connections.
// It implements abDomain.Broadcaster.
type GatewayUseCase struct {
	coord   *coordinator.Coordinator
	manager *ws.Manager

	// snapshotGroup coalesces the snapshot builds of a reconnect storm:
	// duplicate requests from the same user share one coordinator read.
	snapshotGroup singleflight.Group
}

// NewGatewayUseCase creates a new gateway use case. The coordinator is
// attached afterwards via SetCoordinator because the coordinator itself is
// constructed with this use case as its broadcaster.
func NewGatewayUseCase(manager *ws.Manager) *GatewayUseCase {
	return &GatewayUseCase{manager: manager}
}

// SetCoordinator attaches the session coordinator
func (uc *GatewayUseCase) SetCoordinator(coord *coordinator.Coordinator) {
	uc.coord = coord
}

// HandleMessage dispatches one inbound message from a connection. The
// returned bytes, if any, are the synchronous reply for that client only.
func (uc *GatewayUseCase) HandleMessage(ctx context.Context, conn *ws.Connection, message []byte) ([]byte, error) {
	var req gwDomain.RequestEnvelope
	if err := json.Unmarshal(message, &req); err != nil {
		return nil, fmt.Errorf("invalid message format: %w", err)
	}

	switch req.Command {
	case gwDomain.CmdStartSession:
		if err := uc.requireAdmin(conn); err != nil {
			return nil, err
		}
		var payload gwDomain.StartSessionReq
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			return nil, fmt.Errorf("invalid start_session payload: %w", err)
		}
		opening, err := abDomain.ParseCard(payload.OpeningCard)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", abDomain.ErrInvalidCommand, err)
		}
		if err := uc.coord.StartSession(ctx, opening); err != nil {
			return nil, err
		}
		return uc.ack(req.Command), nil

	case gwDomain.CmdPlaceBet:
		var payload gwDomain.PlaceBetReq
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			return nil, fmt.Errorf("invalid place_bet payload: %w", err)
		}
		bet, err := uc.coord.PlaceBet(ctx, conn.UserID, abDomain.Round(payload.Round), abDomain.Side(payload.Side), payload.Amount)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx).
			Str("bet_id", bet.BetID).
			Int64("amount", bet.Amount).
			Str("side", string(bet.Side)).
			Msg("bet placed")
		return uc.ack(req.Command), nil

	case gwDomain.CmdDealCard:
		if err := uc.requireAdmin(conn); err != nil {
			return nil, err
		}
		var payload gwDomain.DealCardReq
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			return nil, fmt.Errorf("invalid deal_card payload: %w", err)
		}
		card, err := abDomain.ParseCard(payload.Card)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", abDomain.ErrIllegalDeal, err)
		}
		if err := uc.coord.DealCard(ctx, card, abDomain.Side(payload.Side)); err != nil {
			return nil, err
		}
		return uc.ack(req.Command), nil

	case gwDomain.CmdForcePhase:
		if err := uc.requireAdmin(conn); err != nil {
			return nil, err
		}
		var payload gwDomain.ForcePhaseReq
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			return nil, fmt.Errorf("invalid force_phase payload: %w", err)
		}
		if err := uc.coord.ForcePhaseChange(ctx, abDomain.Phase(payload.Phase)); err != nil {
			return nil, err
		}
		return uc.ack(req.Command), nil

	case gwDomain.CmdGetSnapshot:
		return uc.snapshotFor(ctx, conn)

	default:
		return nil, fmt.Errorf("unknown command: %s", req.Command)
	}
}

// SendSnapshot delivers one full-state snapshot to a newly registered or
// reconnected client, so it never observes an out-of-order partial state.
func (uc *GatewayUseCase) SendSnapshot(ctx context.Context, conn *ws.Connection) error {
	data, err := uc.snapshotFor(ctx, conn)
	if err != nil {
		return err
	}
	uc.manager.SendToUser(conn.UserID, data)
	return nil
}

func (uc *GatewayUseCase) snapshotFor(ctx context.Context, conn *ws.Connection) ([]byte, error) {
	key := strconv.FormatInt(conn.UserID, 10)
	v, err, _ := uc.snapshotGroup.Do(key, func() (interface{}, error) {
		snap, err := uc.coord.Snapshot(ctx, conn.UserID)
		if err != nil {
			return nil, err
		}
		if conn.Role != abDomain.RoleAdmin {
			// money aggregates are admin-only detail
			snap.Aggregates = nil
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	snap := v.(coordinator.Snapshot)
	conn.SetStateVersion(snap.Session.Version)
	return json.Marshal(abDomain.Event{
		Type:      abDomain.EventSnapshot,
		SessionID: snap.Session.SessionID,
		Version:   snap.Session.Version,
		Data:      snap,
	})
}

func (uc *GatewayUseCase) requireAdmin(conn *ws.Connection) error {
	if conn.Role != abDomain.RoleAdmin {
		return fmt.Errorf("%w: admin role required", abDomain.ErrInvalidCommand)
	}
	return nil
}

func (uc *GatewayUseCase) ack(command string) []byte {
	data, _ := json.Marshal(map[string]string{"type": "ack", "command": command})
	return data
}

// ErrorMessage builds the private rejection report for a failed command
func ErrorMessage(err error) []byte {
	data, _ := json.Marshal(abDomain.Event{
		Type: abDomain.EventError,
		Data: abDomain.ErrorData{
			Code:    abDomain.ErrorCode(err),
			Message: err.Error(),
		},
	})
	return data
}

//--------------------------------------------
// abDomain.Broadcaster implementation
//--------------------------------------------

// Broadcast pushes an event to every connection
func (uc *GatewayUseCase) Broadcast(ctx context.Context, event abDomain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx).Err(err).Str("event", string(event.Type)).Msg("marshal broadcast event failed")
		return
	}
	uc.manager.Broadcast(data)
}

// SendToRole pushes an event to all connections with the given role
func (uc *GatewayUseCase) SendToRole(ctx context.Context, role string, event abDomain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx).Err(err).Str("event", string(event.Type)).Msg("marshal role event failed")
		return
	}
	uc.manager.SendToRole(role, data)
}

// SendToUser pushes an event to one user's connection
func (uc *GatewayUseCase) SendToUser(ctx context.Context, userID int64, event abDomain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx).Err(err).Str("event", string(event.Type)).Msg("marshal user event failed")
		return
	}
	uc.manager.SendToUser(userID, data)
}
