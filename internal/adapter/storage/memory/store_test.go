package memory

import (
	"context"
	"sync"
	"testing"

	"points-ledger/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTxn(t *testing.T, payer string, points int64, ts string) domain.Transaction {
	t.Helper()
	txn, err := domain.NewTransaction(payer, points, ts)
	require.NoError(t, err)
	return txn
}

func TestStore_AppendAndList(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	a := mustTxn(t, "DANNON", 300, "2020-10-31T10:00:00Z")
	b := mustTxn(t, "UNILEVER", 200, "2020-10-31T11:00:00Z")

	require.NoError(t, s.Append(ctx, a))
	require.NoError(t, s.Append(ctx, b))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}

func TestStore_ListReturnsSnapshot(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, mustTxn(t, "DANNON", 300, "2020-10-31T10:00:00Z")))

	snap, err := s.List(ctx)
	require.NoError(t, err)

	// Mutating the snapshot must not touch the store.
	snap[0].Points = -999

	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300), again[0].Points)
}

func TestStore_PreservesInsertionOrderForEqualTimestamps(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := mustTxn(t, "A", 100, "2020-10-31T10:00:00Z")
	second := mustTxn(t, "B", 100, "2020-10-31T10:00:00Z")
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", got[0].Payer)
	assert.Equal(t, "B", got[1].Payer)
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, mustTxn(t, "DANNON", 300, "2020-10-31T10:00:00Z")))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.List(ctx)
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	wg.Wait()
}
