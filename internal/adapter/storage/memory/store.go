package memory

import (
	"context"
	"sync"

	"points-ledger/internal/core/domain"
)

// Store implements ports.TransactionStore with an in-process append-only
// slice. This is the canonical backend: the ledger is a single logical
// in-memory sequence and insertion order is the tie-break for equal
// timestamps.
type Store struct {
	mu   sync.RWMutex
	txns []domain.Transaction
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Append adds one already-validated transaction to the end of the sequence.
func (s *Store) Append(_ context.Context, txn domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = append(s.txns, txn)
	return nil
}

// List returns a snapshot copy of the full ordered sequence. Readers never
// observe a mutation in progress and cannot alias the internal slice.
func (s *Store) List(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Transaction, len(s.txns))
	copy(out, s.txns)
	return out, nil
}
