package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"points-ledger/internal/core/domain"
	"points-ledger/pkg/apperror"
)

// seedFile mirrors the transactions.json layout: a single object with a
// "transactions" array of {payer, points, timestamp}.
type seedFile struct {
	Transactions []seedTransaction `json:"transactions"`
}

type seedTransaction struct {
	Payer     *string `json:"payer"`
	Points    *int64  `json:"points"`
	Timestamp *string `json:"timestamp"`
}

// LoadSeedFile reads a seed transaction list from path. Each entry passes
// the structural checks (field presence, nonzero points, timestamp
// format); balance history in the file is trusted as-is, matching the
// behavior of loading a previously valid ledger.
func LoadSeedFile(path string) ([]domain.Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f seedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	txns := make([]domain.Transaction, 0, len(f.Transactions))
	for i, st := range f.Transactions {
		txn, err := parseSeedTransaction(st)
		if err != nil {
			return nil, fmt.Errorf("seed transaction %d: %w", i, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseSeedTransaction(st seedTransaction) (domain.Transaction, error) {
	if st.Payer == nil {
		return domain.Transaction{}, apperror.ErrMissingField("payer")
	}
	if st.Points == nil {
		return domain.Transaction{}, apperror.ErrMissingField("points")
	}
	if st.Timestamp == nil {
		return domain.Transaction{}, apperror.ErrMissingField("timestamp")
	}
	return domain.NewTransaction(*st.Payer, *st.Points, *st.Timestamp)
}
