package ports

import (
	"context"

	"points-ledger/internal/core/domain"
)

// TransactionStore is the append-only ordered ledger of transactions.
// Append adds one already-validated transaction to the end of the
// sequence; List returns the full sequence as a consistent snapshot
// (implementations must not hand out their internal slice). Insertion
// order is the tie-break for equal timestamps and must be preserved.
type TransactionStore interface {
	Append(ctx context.Context, txn domain.Transaction) error
	List(ctx context.Context) ([]domain.Transaction, error)
}
