package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"points-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(payer string, points int64) domain.Transaction {
	return domain.Transaction{
		ID:        uuid.New(),
		Payer:     payer,
		Points:    points,
		Timestamp: time.Date(2020, 10, 31, 10, 0, 0, 0, time.UTC),
	}
}

func TestLedgerStore_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewLedgerStore(mock)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ledger_transactions").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewLedgerStore(mock)
	txn := newTestTransaction("DANNON", 300)

	mock.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(txn.ID, txn.Payer, txn.Points, txn.Timestamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.Append(context.Background(), txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_Append_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewLedgerStore(mock)
	txn := newTestTransaction("DANNON", 300)

	mock.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(txn.ID, txn.Payer, txn.Points, txn.Timestamp).
		WillReturnError(errors.New("connection reset"))

	err = store.Append(context.Background(), txn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert transaction")
}

func TestLedgerStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewLedgerStore(mock)
	a := newTestTransaction("DANNON", 300)
	b := newTestTransaction("UNILEVER", -200)

	rows := pgxmock.NewRows([]string{"id", "payer", "points", "ts"}).
		AddRow(a.ID, a.Payer, a.Points, a.Timestamp).
		AddRow(b.ID, b.Payer, b.Points, b.Timestamp)

	mock.ExpectQuery("SELECT id, payer, points, ts FROM ledger_transactions ORDER BY seq").
		WillReturnRows(rows)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, int64(300), got[0].Points)
	assert.Equal(t, "UNILEVER", got[1].Payer)
	assert.Equal(t, int64(-200), got[1].Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_List_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewLedgerStore(mock)

	mock.ExpectQuery("SELECT id, payer, points, ts FROM ledger_transactions").
		WillReturnRows(pgxmock.NewRows([]string{"id", "payer", "points", "ts"}))

	got, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHealthCheck_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgresql", hc.Name())

	mock.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	assert.NoError(t, hc.Ping(context.Background()))
}
