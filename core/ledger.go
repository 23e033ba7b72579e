package core

import (
	"context"
	"time"
)

// IssuedBatch is one saved workbook's code range.
type IssuedBatch struct {
	Start     int64
	End       int64 // inclusive
	Sheets    int
	Output    string
	CreatedAt time.Time
}

// Ledger records issued code ranges so a later run can continue after them.
type Ledger interface {
	// LastIssued returns the highest code recorded; ok is false for an empty ledger.
	LastIssued(ctx context.Context) (code int64, ok bool, err error)
	Record(ctx context.Context, batch IssuedBatch) error
}

// NextStart returns the first code after the ledger's last issued one, or
// fallback when nothing has been issued yet.
func NextStart(ctx context.Context, l Ledger, fallback int64) (int64, error) {
	last, ok, err := l.LastIssued(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallback, nil
	}
	return last + 1, nil
}
