package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"points-ledger/internal/core/domain"
	"points-ledger/internal/core/ports"
	"points-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

const balancesTTL = 5 * time.Minute

// LedgerServiceImpl implements ports.LedgerService.
//
// Mutating operations (AddPoints, SpendPoints) are serialized by a mutex so
// that the validate-then-append sequence is atomic: no two mutations may
// interleave against the same ledger or the non-negative balance invariants
// could be violated. Cache hits are served lock-free; a cache-miss read
// recomputes and repopulates under the same mutex, otherwise an append's
// invalidation could land between the compute and the cache fill and the
// stale fill would survive until the TTL.
type LedgerServiceImpl struct {
	store ports.TransactionStore
	cache ports.BalanceCache // nil = balance caching disabled
	log   zerolog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(store ports.TransactionStore, cache ports.BalanceCache, log zerolog.Logger) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		store: store,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// AddPoints records a credit transaction. Spends go through SpendPoints, so
// non-positive amounts are rejected up front; the candidate then passes full
// transaction validation against the current ledger before being appended.
func (s *LedgerServiceImpl) AddPoints(ctx context.Context, candidate domain.Transaction) (*domain.Transaction, error) {
	if candidate.Points <= 0 {
		return nil, apperror.ErrNonPositivePoints()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validate(ctx, candidate); err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, candidate); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append transaction: %w", err))
	}
	s.invalidateBalances(ctx)

	s.log.Info().
		Str("payer", candidate.Payer).
		Int64("points", candidate.Points).
		Str("timestamp", domain.FormatTimestamp(candidate.Timestamp)).
		Msg("points added")

	return &candidate, nil
}

// Balances returns the derived per-payer totals, one entry per payer ever
// seen (zero balances included). Served from the cache when one is wired;
// the cache is invalidated on every append so results are identical to
// recomputation.
func (s *LedgerServiceImpl) Balances(ctx context.Context) (map[string]int64, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("balance cache read failed, recomputing")
		}
		if cached != nil {
			return cached, nil
		}
	}

	// Compute and repopulate under the mutation lock. Appends invalidate
	// the cache while holding it, so a Set here can never trail an
	// invalidation for a newer ledger state.
	s.mu.Lock()
	defer s.mu.Unlock()

	balances, err := s.computeBalances(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, balances, balancesTTL); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache balances")
		}
	}
	return balances, nil
}

// validate admission-checks a candidate against the current ledger state,
// not including the candidate itself. Structural checks (field presence,
// types, timestamp format) already happened in domain.NewTransaction; the
// cheap temporal check runs before recomputing balances.
func (s *LedgerServiceImpl) validate(ctx context.Context, candidate domain.Transaction) error {
	if candidate.Timestamp.After(s.now()) {
		return apperror.ErrFutureTimestamp()
	}

	balances, err := s.computeBalances(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	var total int64
	for _, b := range balances {
		total += b
	}
	if total+candidate.Points < 0 {
		return apperror.ErrInsufficientTotalBalance()
	}
	// Unseen payers have balance zero.
	if balances[candidate.Payer]+candidate.Points < 0 {
		return apperror.ErrInsufficientPayerBalance()
	}
	return nil
}

// computeBalances derives the per-payer totals by a single pass over the
// ledger. O(n); callers needing consistency hold the mutation lock.
func (s *LedgerServiceImpl) computeBalances(ctx context.Context) (map[string]int64, error) {
	txns, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	balances := make(map[string]int64)
	for _, t := range txns {
		balances[t.Payer] += t.Points
	}
	return balances, nil
}

// invalidateBalances drops the cached balances after an append. Best-effort:
// a stale-cache TTL bounds the damage if redis is unreachable.
func (s *LedgerServiceImpl) invalidateBalances(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate balance cache")
	}
}
