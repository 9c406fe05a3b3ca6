package domain

import (
	"time"

	"points-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// TimestampLayout is the wire format for transaction timestamps:
// YYYY-MM-DDTHH:MM:SSZ, UTC, second precision. The trailing Z is a
// literal, so only UTC timestamps parse — a compatibility contract
// with external callers.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Transaction is an immutable ledger entry. Positive Points is a credit
// (points earned from a payer), negative is a debit (points spent).
// Entries are never edited or deleted once appended.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	Payer     string    `json:"payer"`
	Points    int64     `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransaction builds a validated Transaction from raw field values.
// It performs the structural checks only — presence, type/value, and
// timestamp format. Balance checks belong to the ledger service, which
// sees the current ledger state.
func NewTransaction(payer string, points int64, timestamp string) (Transaction, error) {
	if payer == "" {
		return Transaction{}, apperror.ErrMissingField("payer")
	}
	if points == 0 {
		return Transaction{}, apperror.ErrInvalidType("points", "nonzero integer")
	}
	ts, err := ParseTimestamp(timestamp)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:        uuid.New(),
		Payer:     payer,
		Points:    points,
		Timestamp: ts,
	}, nil
}

// ParseTimestamp parses the wire timestamp format.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, apperror.ErrMalformedTimestamp()
	}
	return ts, nil
}

// FormatTimestamp renders t in the wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// IsCredit reports whether the transaction earns points.
func (t Transaction) IsCredit() bool {
	return t.Points > 0
}

// IsDebit reports whether the transaction spends points.
func (t Transaction) IsDebit() bool {
	return t.Points < 0
}
