package postgres

import (
	"context"
	"fmt"

	"points-ledger/internal/core/domain"
)

// LedgerStore implements ports.TransactionStore on PostgreSQL. The serial
// primary key preserves insertion order, which is the tie-break for equal
// timestamps.
type LedgerStore struct {
	pool Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// EnsureSchema creates the ledger table if it does not exist yet.
func (s *LedgerStore) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ledger_transactions (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL,
		payer TEXT NOT NULL,
		points BIGINT NOT NULL,
		ts TIMESTAMPTZ NOT NULL
	)`

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

// Append inserts one already-validated transaction at the end of the ledger.
func (s *LedgerStore) Append(ctx context.Context, txn domain.Transaction) error {
	query := `INSERT INTO ledger_transactions (id, payer, points, ts) VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query, txn.ID, txn.Payer, txn.Points, txn.Timestamp)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// List fetches the full ordered sequence.
func (s *LedgerStore) List(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT id, payer, points, ts FROM ledger_transactions ORDER BY seq`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.Payer, &t.Points, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}
