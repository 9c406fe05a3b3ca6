package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"points-ledger/internal/core/domain"
	"points-ledger/pkg/apperror"
)

// lot is the unspent remainder of a single credit transaction. Lots exist
// only during allocation; they are rebuilt from the ledger on every spend.
type lot struct {
	origin    domain.Transaction
	remaining int64
}

// payerSpend is one payer's share of an allocation, in the order payers
// were first consumed. Commit order must be deterministic so the same
// ledger and request always produce the same ledger afterwards.
type payerSpend struct {
	payer  string
	points int64 // negative
}

// SpendPoints consumes points from the oldest unspent credit lots first,
// globally across payers, never driving any payer's balance negative.
//
// Preconditions are checked before any mutation; once they pass, the
// balance invariants guarantee a feasible allocation, so a validation
// failure while committing the synthesized debits is an internal
// consistency fault rather than a caller error.
func (s *LedgerServiceImpl) SpendPoints(ctx context.Context, points int64) (map[string]int64, error) {
	if points <= 0 {
		return nil, apperror.ErrNonPositiveSpend()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.store.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	balances := make(map[string]int64)
	for _, t := range txns {
		balances[t.Payer] += t.Points
	}
	var total int64
	for _, b := range balances {
		total += b
	}
	if points > total {
		return nil, apperror.ErrInsufficientBalance()
	}

	live := liveLots(txns, balances)

	// Global oldest-first order. The per-payer pass above scrambled the
	// ledger order, so re-sort by origin timestamp; the stable sort keeps
	// insertion order as the tie-break for equal timestamps.
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].origin.Timestamp.Before(live[j].origin.Timestamp)
	})

	allocation := allocate(live, points)

	now := s.now().UTC().Truncate(time.Second)
	spends := make(map[string]int64, len(allocation))
	for _, ps := range allocation {
		debit, err := domain.NewTransaction(ps.payer, ps.points, domain.FormatTimestamp(now))
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("build debit for %s: %w", ps.payer, err))
		}
		if err := s.validate(ctx, debit); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("commit debit for %s: %w", ps.payer, err))
		}
		if err := s.store.Append(ctx, debit); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append debit for %s: %w", ps.payer, err))
		}
		spends[ps.payer] = ps.points
	}
	s.invalidateBalances(ctx)

	s.log.Info().
		Int64("points", points).
		Int("payers", len(spends)).
		Msg("points spent")

	return spends, nil
}

// liveLots reconstructs, for every payer with a positive balance, which
// credit lots are still (partially) unspent. Payers are walked in order of
// first appearance in the ledger so the pre-sort lot order is stable.
func liveLots(txns []domain.Transaction, balances map[string]int64) []lot {
	var payers []string
	seen := make(map[string]bool)
	for _, t := range txns {
		if seen[t.Payer] {
			continue
		}
		seen[t.Payer] = true
		// A payer at exactly zero has no spendable lots.
		if balances[t.Payer] > 0 {
			payers = append(payers, t.Payer)
		}
	}

	var live []lot
	for _, p := range payers {
		live = append(live, payerLiveLots(txns, p)...)
	}
	return live
}

// payerLiveLots replays one payer's history: debits consume credits
// oldest-first, reducing each credit's remainder in place. Everything from
// the first credit with points left onward is live.
func payerLiveLots(txns []domain.Transaction, payer string) []lot {
	var history []domain.Transaction
	for _, t := range txns {
		if t.Payer == payer {
			history = append(history, t)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})

	var credits []lot
	var debits []domain.Transaction
	for _, t := range history {
		if t.IsCredit() {
			credits = append(credits, lot{origin: t, remaining: t.Points})
		} else {
			debits = append(debits, t)
		}
	}

	i := 0
	for _, d := range debits {
		rem := -d.Points
		for rem > 0 && i < len(credits) {
			take := min(rem, credits[i].remaining)
			credits[i].remaining -= take
			rem -= take
			if credits[i].remaining == 0 {
				i++
			}
		}
	}
	return credits[i:]
}

// allocate walks the merged oldest-first lots, consuming the requested
// amount and accumulating a negative total per payer. Payers whose
// consumption is zero never appear in the result.
func allocate(live []lot, amount int64) []payerSpend {
	var order []string
	consumed := make(map[string]int64)

	for i := 0; i < len(live) && amount > 0; i++ {
		take := min(amount, live[i].remaining)
		live[i].remaining -= take
		amount -= take

		p := live[i].origin.Payer
		if _, ok := consumed[p]; !ok {
			order = append(order, p)
		}
		consumed[p] -= take
	}

	out := make([]payerSpend, 0, len(order))
	for _, p := range order {
		if consumed[p] != 0 {
			out = append(out, payerSpend{payer: p, points: consumed[p]})
		}
	}
	return out
}
