// Package coordinator serializes all events for one live Andar Bahar
// session into its state machine.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/ledger"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/machine"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/settlement"
	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
)

// ErrStopped is returned when a command arrives after the coordinator quit
var ErrStopped = errors.New("session coordinator stopped")

const commandBuffer = 256

// Coordinator owns one GameSession and its bet ledger. All mutating events
// are processed one at a time by the run loop; the next event is not picked
// up until the current one's external side effects (wallet, persistence)
// have returned. Different sessions run fully in parallel.
type Coordinator struct {
	sessionID   string
	machine     *machine.Machine
	ledger      *ledger.Ledger
	engine      *settlement.Engine
	broadcaster domain.Broadcaster
	sessionRepo domain.SessionRepository

	commands chan command
	done     chan struct{}

	// loop-owned state, never touched outside run()
	phaseSeq    uint64
	timer       *time.Timer
	settlements map[int64]*domain.UserSettlement

	// SettleRetryDelay between settlement retries after a transient failure
	SettleRetryDelay time.Duration
}

// New creates a coordinator for a fresh session
func New(sessionID string, m *machine.Machine, l *ledger.Ledger, e *settlement.Engine, b domain.Broadcaster, sessionRepo domain.SessionRepository) *Coordinator {
	return &Coordinator{
		sessionID:        sessionID,
		machine:          m,
		ledger:           l,
		engine:           e,
		broadcaster:      b,
		sessionRepo:      sessionRepo,
		commands:         make(chan command, commandBuffer),
		done:             make(chan struct{}),
		settlements:      make(map[int64]*domain.UserSettlement),
		SettleRetryDelay: 500 * time.Millisecond,
	}
}

// SessionID returns the session this coordinator owns
func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// Run processes the event queue until Stop or context cancellation
func (c *Coordinator) Run(ctx context.Context) {
	ctx = logger.WithFields(ctx, map[string]interface{}{"session_id": c.sessionID})
	logger.Info(ctx).Msg("session coordinator started")
	defer c.drainPending()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx).Msg("session coordinator stopping (context)")
			return
		case cmd := <-c.commands:
			if _, quit := cmd.(stopCmd); quit {
				cmd.(stopCmd).reply <- struct{}{}
				logger.Info(ctx).Msg("session coordinator stopped")
				return
			}
			c.handle(ctx, cmd)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, cmd command) {
	switch v := cmd.(type) {
	case startCmd:
		v.reply <- c.handleStart(ctx, v.opening)
	case placeBetCmd:
		bet, err := c.ledger.PlaceBet(ctx, c.machine.Phase(), v.userID, v.round, v.side, v.amount)
		if err == nil {
			c.afterBetAccepted(ctx, bet)
		}
		v.reply <- placeBetReply{bet: bet, err: err}
	case dealCmd:
		v.reply <- c.handleDeal(ctx, v.card, v.side)
	case forcePhaseCmd:
		v.reply <- c.handleForcePhase(ctx, v.target)
	case timerExpiredCmd:
		if v.seq != c.phaseSeq {
			logger.Debug(ctx).Uint64("seq", v.seq).Uint64("phase_seq", c.phaseSeq).Msg("stale betting timer discarded")
			return
		}
		if err := c.sealBetting(ctx); err != nil {
			logger.Warn(ctx).Err(err).Msg("betting timer fired in non-betting phase")
		}
	case snapshotCmd:
		v.reply <- snapshotReply{snap: c.buildSnapshot(v.userID)}
	}
}

// drainPending answers every command still queued when the loop exits, so
// a caller blocked on its reply channel is released instead of hanging.
func (c *Coordinator) drainPending() {
	close(c.done)
	for {
		select {
		case cmd := <-c.commands:
			c.reject(cmd)
		default:
			return
		}
	}
}

// reject answers one queued command with ErrStopped. All reply channels
// have capacity 1, so the sends below never block.
func (c *Coordinator) reject(cmd command) {
	switch v := cmd.(type) {
	case startCmd:
		v.reply <- ErrStopped
	case placeBetCmd:
		v.reply <- placeBetReply{err: ErrStopped}
	case dealCmd:
		v.reply <- ErrStopped
	case forcePhaseCmd:
		v.reply <- ErrStopped
	case snapshotCmd:
		v.reply <- snapshotReply{err: ErrStopped}
	case stopCmd:
		v.reply <- struct{}{}
	}
}

func (c *Coordinator) handleStart(ctx context.Context, opening domain.Card) error {
	if err := c.machine.Start(opening); err != nil {
		return err
	}
	s := c.machine.Session()
	logger.Info(ctx).
		Str("opening_card", opening.String()).
		Time("betting_deadline", s.BettingDeadline).
		Msg("session started, round 1 betting open")

	if c.sessionRepo != nil {
		if err := c.sessionRepo.Create(ctx, &domain.SessionRecord{
			SessionID:   c.sessionID,
			GameCode:    "andar_bahar",
			Status:      domain.SessionStatusInProgress,
			OpeningCard: opening.String(),
			StartTime:   s.StartedAt,
		}); err != nil {
			logger.Error(ctx).Err(err).Msg("persist session record failed")
		}
	}

	c.scheduleBettingTimer(s.BettingDeadline)
	c.broadcastPhase(ctx, s)
	return nil
}

func (c *Coordinator) handleDeal(ctx context.Context, card domain.Card, side domain.Side) error {
	phaseBefore := c.machine.Phase()
	res, err := c.machine.Deal(card, side)
	if err != nil {
		return err
	}
	s := c.machine.Session()

	logger.Info(ctx).
		Str("card", card.String()).
		Str("side", string(side)).
		Int("position", res.Dealt.Position).
		Bool("winning", res.Winning).
		Msg("card dealt")

	c.broadcast(ctx, domain.Event{
		Type:      domain.EventCardDealt,
		SessionID: c.sessionID,
		Version:   s.Version,
		Data: domain.CardDealtData{
			Card:     res.Dealt.Card,
			Side:     res.Dealt.Side,
			Round:    res.Dealt.Round,
			Position: res.Dealt.Position,
			Winning:  res.Winning,
		},
	})

	switch {
	case res.Winning:
		c.cancelBettingTimer()
		c.settleAndAnnounce(ctx, s)
	case res.BettingOpened:
		c.scheduleBettingTimer(s.BettingDeadline)
		c.broadcastPhase(ctx, s)
	case res.NewPhase != phaseBefore:
		c.broadcastPhase(ctx, s)
	}
	return nil
}

func (c *Coordinator) handleForcePhase(ctx context.Context, target domain.Phase) error {
	if _, open := c.machine.Phase().BettingRound(); open {
		if err := c.machine.ForcePhase(target); err != nil {
			return err
		}
		// The pending timer for the closed phase must never fire a stale
		// "round closed" afterwards.
		c.cancelBettingTimer()
		c.afterBettingSealed(ctx)
		return nil
	}
	return fmt.Errorf("%w: cannot force %s from %s", domain.ErrInvalidCommand, target, c.machine.Phase())
}

// sealBetting handles timer-driven sealing, identical to an admin override
func (c *Coordinator) sealBetting(ctx context.Context) error {
	if _, err := c.machine.SealBetting(); err != nil {
		return err
	}
	c.afterBettingSealed(ctx)
	return nil
}

func (c *Coordinator) afterBettingSealed(ctx context.Context) {
	s := c.machine.Session()
	round := domain.Round1
	if s.Phase == domain.PhaseDealingRound2 {
		round = domain.Round2
	}
	c.ledger.Seal(round)
	logger.Info(ctx).
		Int("round", int(round)).
		Int64("andar_total", c.ledger.Aggregate(round, domain.SideAndar)).
		Int64("bahar_total", c.ledger.Aggregate(round, domain.SideBahar)).
		Msg("betting sealed")
	c.broadcastPhase(ctx, s)
}

func (c *Coordinator) afterBetAccepted(ctx context.Context, bet *domain.Bet) {
	s := c.machine.Session()
	c.sendToUser(ctx, bet.UserID, domain.Event{
		Type:      domain.EventBetAccepted,
		SessionID: c.sessionID,
		Version:   s.Version,
		Data: domain.BetAcceptedData{
			BetID:  bet.BetID,
			Round:  bet.Round,
			Side:   bet.Side,
			Amount: bet.Amount,
		},
	})
	// Aggregates carry money detail, admin eyes only
	c.sendToRole(ctx, domain.RoleAdmin, domain.Event{
		Type:      domain.EventAggregates,
		SessionID: c.sessionID,
		Version:   s.Version,
		Data:      domain.AggregatesData{Rounds: c.ledger.Totals()},
	})
}

// settleAndAnnounce runs the payout engine once the machine is terminal.
// Transient failures are retried with the same idempotency keys until every
// user's payout transaction is durably recorded.
func (c *Coordinator) settleAndAnnounce(ctx context.Context, s domain.GameSession) {
	betsByUser := c.ledger.BetsByUser()

	var results map[int64]*domain.UserSettlement
	for {
		var err error
		results, err = c.engine.SettleSession(ctx, s, betsByUser)
		if err == nil {
			break
		}
		logger.Warn(ctx).Err(err).Msg("settlement incomplete, retrying")
		select {
		case <-ctx.Done():
			logger.Error(ctx).Msg("settlement interrupted by shutdown; will resume from transaction log")
			return
		case <-time.After(c.SettleRetryDelay):
		}
	}
	for uid, res := range results {
		c.settlements[uid] = res
	}

	logger.Info(ctx).
		Str("winner", string(s.Winner)).
		Str("winning_card", s.WinningCard.String()).
		Int("users_settled", len(results)).
		Msg("session completed and settled")

	if c.sessionRepo != nil {
		totalBets, totalPlayers, totalAmount := c.ledger.Stats()
		if err := c.sessionRepo.UpdateResult(ctx, &domain.SessionRecord{
			SessionID:      c.sessionID,
			Status:         domain.SessionStatusCompleted,
			Winner:         string(s.Winner),
			WinningCard:    s.WinningCard.String(),
			CardsDealt:     len(s.AndarCards) + len(s.BaharCards),
			TotalBets:      totalBets,
			TotalPlayers:   totalPlayers,
			TotalBetAmount: totalAmount,
			EndTime:        s.CompletedAt,
		}); err != nil {
			logger.Error(ctx).Err(err).Msg("persist terminal session record failed")
		}
	}

	// Public completion first, then each bettor's private settlement
	c.broadcast(ctx, domain.Event{
		Type:      domain.EventSessionCompleted,
		SessionID: c.sessionID,
		Version:   s.Version,
		Data:      domain.SessionCompletedData{Winner: s.Winner, WinningCard: *s.WinningCard},
	})
	for uid, res := range results {
		c.sendToUser(ctx, uid, domain.Event{
			Type:      domain.EventSessionCompleted,
			SessionID: c.sessionID,
			Version:   s.Version,
			Data:      domain.SessionCompletedData{Winner: s.Winner, WinningCard: *s.WinningCard, PerUser: res},
		})
	}
}

func (c *Coordinator) broadcast(ctx context.Context, event domain.Event) {
	if c.broadcaster != nil {
		c.broadcaster.Broadcast(ctx, event)
	}
}

func (c *Coordinator) sendToRole(ctx context.Context, role string, event domain.Event) {
	if c.broadcaster != nil {
		c.broadcaster.SendToRole(ctx, role, event)
	}
}

func (c *Coordinator) sendToUser(ctx context.Context, userID int64, event domain.Event) {
	if c.broadcaster != nil {
		c.broadcaster.SendToUser(ctx, userID, event)
	}
}

func (c *Coordinator) broadcastPhase(ctx context.Context, s domain.GameSession) {
	left := int64(time.Until(s.BettingDeadline).Seconds())
	if left < 0 {
		left = 0
	}
	c.broadcast(ctx, domain.Event{
		Type:      domain.EventPhaseChanged,
		SessionID: c.sessionID,
		Version:   s.Version,
		Data: domain.PhaseChangedData{
			Phase:           s.Phase,
			Round:           s.Round,
			BettingDeadline: s.BettingDeadline,
			LeftSeconds:     left,
		},
	})
}

// scheduleBettingTimer arms the countdown that closes the current betting
// window even with no administrator present.
func (c *Coordinator) scheduleBettingTimer(deadline time.Time) {
	c.cancelBettingTimer()
	c.phaseSeq++
	seq := c.phaseSeq
	c.timer = time.AfterFunc(time.Until(deadline), func() {
		select {
		case c.commands <- timerExpiredCmd{seq: seq}:
		case <-c.done:
		}
	})
}

func (c *Coordinator) cancelBettingTimer() {
	c.phaseSeq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) buildSnapshot(userID int64) Snapshot {
	snap := Snapshot{
		Session:    c.machine.Session(),
		Aggregates: c.ledger.Totals(),
	}
	if userID != 0 {
		snap.Bets = c.ledger.UserBets(userID)
		if res, ok := c.settlements[userID]; ok {
			cp := *res
			snap.Settlement = &cp
		}
	}
	return snap
}

//--------------------------------------------
// Public API: every call is one queued command
//--------------------------------------------

func (c *Coordinator) submit(ctx context.Context, cmd command) error {
	select {
	case c.commands <- cmd:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartSession applies the admin start command with the opening card
func (c *Coordinator) StartSession(ctx context.Context, opening domain.Card) error {
	reply := make(chan error, 1)
	if err := c.submit(ctx, startCmd{opening: opening, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PlaceBet queues a wager for validation against the live phase
func (c *Coordinator) PlaceBet(ctx context.Context, userID int64, round domain.Round, side domain.Side, amount int64) (*domain.Bet, error) {
	reply := make(chan placeBetReply, 1)
	if err := c.submit(ctx, placeBetCmd{userID: userID, round: round, side: side, amount: amount, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case r := <-reply:
		return r.bet, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DealCard queues an admin deal
func (c *Coordinator) DealCard(ctx context.Context, card domain.Card, side domain.Side) error {
	reply := make(chan error, 1)
	if err := c.submit(ctx, dealCmd{card: card, side: side, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ForcePhaseChange queues an admin-forced transition (early betting close)
func (c *Coordinator) ForcePhaseChange(ctx context.Context, target domain.Phase) error {
	reply := make(chan error, 1)
	if err := c.submit(ctx, forcePhaseCmd{target: target, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a full point-in-time view for one client. It runs
// through the loop so it always observes a consistent state, never a
// half-applied transition.
func (c *Coordinator) Snapshot(ctx context.Context, userID int64) (Snapshot, error) {
	reply := make(chan snapshotReply, 1)
	if err := c.submit(ctx, snapshotCmd{userID: userID, reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case r := <-reply:
		return r.snap, r.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Stop drains the coordinator after the current command
func (c *Coordinator) Stop() {
	reply := make(chan struct{}, 1)
	select {
	case c.commands <- stopCmd{reply: reply}:
		<-reply
	case <-c.done:
	}
}
