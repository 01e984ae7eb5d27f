// Package memory provides in-memory repositories for the Andar Bahar
// module, used as the default RepoType and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
)

// BetRepository implements domain.BetRepository in memory
type BetRepository struct {
	mu   sync.RWMutex
	bets map[string][]*domain.Bet // sessionID -> bets
}

// NewBetRepository creates a new memory bet repository
func NewBetRepository() *BetRepository {
	return &BetRepository{bets: make(map[string][]*domain.Bet)}
}

func (r *BetRepository) SaveBet(ctx context.Context, bet *domain.Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *bet
	r.bets[bet.SessionID] = append(r.bets[bet.SessionID], &cp)
	return nil
}

func (r *BetRepository) GetBets(ctx context.Context, sessionID string) ([]*domain.Bet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Bet, 0, len(r.bets[sessionID]))
	for _, b := range r.bets[sessionID] {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *BetRepository) UpdateStatus(ctx context.Context, bet *domain.Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bets[bet.SessionID] {
		if b.BetID == bet.BetID {
			b.Status = bet.Status
			b.PayoutTxnID = bet.PayoutTxnID
			return nil
		}
	}
	return nil
}

// TransactionRepository implements domain.TransactionRepository in memory.
// The map is the idempotency gate: Create on a seen TxnID reports false.
type TransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction
}

// NewTransactionRepository creates a new memory transaction repository
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{txns: make(map[string]*domain.Transaction)}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *domain.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.txns[txn.TxnID]; exists {
		return false, nil
	}
	cp := *txn
	r.txns[txn.TxnID] = &cp
	return true, nil
}

func (r *TransactionRepository) Get(ctx context.Context, txnID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txn, ok := r.txns[txnID]
	if !ok {
		return nil, nil
	}
	cp := *txn
	return &cp, nil
}

// BetOrderRepository implements domain.BetOrderRepository in memory
type BetOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.BetOrder
}

// NewBetOrderRepository creates a new memory bet order repository
func NewBetOrderRepository() *BetOrderRepository {
	return &BetOrderRepository{orders: make(map[string]*domain.BetOrder)}
}

func (r *BetOrderRepository) BatchCreate(ctx context.Context, orders []*domain.BetOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orders {
		// settlement retries re-emit the same OrderID, last write wins
		cp := *o
		r.orders[o.OrderID] = &cp
	}
	return nil
}

// Orders returns all persisted orders (for tests)
func (r *BetOrderRepository) Orders() []*domain.BetOrder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.BetOrder, 0, len(r.orders))
	for _, o := range r.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out
}

// SessionRepository implements domain.SessionRepository in memory
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.SessionRecord
}

// NewSessionRepository creates a new memory session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*domain.SessionRecord)}
}

func (r *SessionRepository) Create(ctx context.Context, rec *domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.sessions[rec.SessionID] = &cp
	return nil
}

func (r *SessionRepository) UpdateResult(ctx context.Context, rec *domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sessions[rec.SessionID]
	if !ok {
		cp := *rec
		r.sessions[rec.SessionID] = &cp
		return nil
	}
	existing.Status = rec.Status
	existing.Winner = rec.Winner
	existing.WinningCard = rec.WinningCard
	existing.CardsDealt = rec.CardsDealt
	existing.TotalBets = rec.TotalBets
	existing.TotalPlayers = rec.TotalPlayers
	existing.TotalBetAmount = rec.TotalBetAmount
	existing.EndTime = rec.EndTime
	return nil
}

// Get returns a session record (for tests)
func (r *SessionRepository) Get(sessionID string) *domain.SessionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}
