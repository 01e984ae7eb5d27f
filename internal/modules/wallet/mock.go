package wallet

import (
	"context"
	"sync"
)

// MockService implements Service in memory. It keeps an applied-transaction
// map so Debit/Credit stay idempotent by txnID, and can be told to fail the
// next N mutations to exercise transient-failure retries.
type MockService struct {
	mu       sync.RWMutex
	balances map[int64]int64
	applied  map[string]int64 // txnID -> signed amount
	failNext int
	failErr  error
}

// NewMockService creates a new mock wallet service
func NewMockService() *MockService {
	return &MockService{
		balances: make(map[int64]int64),
		applied:  make(map[string]int64),
	}
}

// SetBalance sets the balance for a user (for testing)
func (s *MockService) SetBalance(userID int64, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = balance
}

// FailNext makes the next n Debit/Credit calls return err
func (s *MockService) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failErr = err
}

// AppliedCount returns how many distinct transactions have been applied
func (s *MockService) AppliedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.applied)
}

// Balance returns the user's balance
func (s *MockService) Balance(ctx context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[userID], nil
}

// Debit removes amount from the user's balance, idempotent by txnID
func (s *MockService) Debit(ctx context.Context, userID int64, amount int64, txnID string) (int64, error) {
	return s.apply(userID, -amount, txnID)
}

// Credit adds amount to the user's balance, idempotent by txnID
func (s *MockService) Credit(ctx context.Context, userID int64, amount int64, txnID string) (int64, error) {
	return s.apply(userID, amount, txnID)
}

func (s *MockService) apply(userID int64, delta int64, txnID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext > 0 {
		s.failNext--
		return 0, s.failErr
	}

	balance := s.balances[userID]
	if _, done := s.applied[txnID]; done {
		return balance, nil
	}
	if delta < 0 && balance+delta < 0 {
		return balance, ErrInsufficientFunds
	}

	balance += delta
	s.balances[userID] = balance
	s.applied[txnID] = delta
	return balance, nil
}
