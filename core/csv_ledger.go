package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
)

var csvLedgerHeader = []string{"start", "end", "sheets", "output", "created_at"}

// CSVLedger implements Ledger on a local CSV file, one batch per line.
type CSVLedger struct {
	Path string
}

func NewCSVLedger(path string) *CSVLedger {
	return &CSVLedger{Path: path}
}

func (l *CSVLedger) LastIssued(ctx context.Context) (int64, bool, error) {
	file, err := os.Open(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to open ledger %s: %w", l.Path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read ledger content: %w", err)
	}

	var last int64
	found := false
	for i, row := range records {
		if i == 0 || len(row) < 2 {
			continue // header
		}
		end, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("ledger line %d: invalid end code %q", i+1, row[1])
		}
		if !found || end > last {
			last, found = end, true
		}
	}
	return last, found, nil
}

func (l *CSVLedger) Record(ctx context.Context, b IssuedBatch) error {
	file, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger %s: %w", l.Path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(csvLedgerHeader); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		strconv.FormatInt(b.Start, 10),
		strconv.FormatInt(b.End, 10),
		strconv.Itoa(b.Sheets),
		b.Output,
		b.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return file.Close()
}
