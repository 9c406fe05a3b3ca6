package ports

import (
	"context"
	"time"

	"points-ledger/internal/core/domain"
)

// LedgerService is the core points ledger business logic.
type LedgerService interface {
	// AddPoints records a credit. The candidate must already be
	// structurally valid (see domain.NewTransaction); AddPoints rejects
	// non-positive amounts and enforces the balance invariants.
	AddPoints(ctx context.Context, candidate domain.Transaction) (*domain.Transaction, error)

	// Balances returns the derived per-payer totals, one entry per payer
	// ever seen, including zero balances.
	Balances(ctx context.Context) (map[string]int64, error)

	// SpendPoints consumes points oldest-first across payers and returns
	// the (negative) amount deducted per payer. Payers with zero
	// consumption are omitted.
	SpendPoints(ctx context.Context, points int64) (map[string]int64, error)
}

// BalanceCache is an optional read-through cache of the derived balances
// map. It must be invalidated on every ledger append so cached reads are
// indistinguishable from recomputation.
type BalanceCache interface {
	// Get returns the cached balances, or a nil map on miss.
	Get(ctx context.Context) (map[string]int64, error)
	Set(ctx context.Context, balances map[string]int64, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}
