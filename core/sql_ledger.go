package core

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLLedger implements Ledger using a generic SQL database (MySQL, PostgreSQL).
type SQLLedger struct {
	DB         *sql.DB
	DriverName string // "mysql" or "postgres"
	Table      string
}

// NewSQLLedger creates a ledger on table; the table name must be a plain identifier.
func NewSQLLedger(db *sql.DB, driverName, table string) (*SQLLedger, error) {
	if !sqlIdentifier.MatchString(table) {
		return nil, fmt.Errorf("invalid ledger table name: %q", table)
	}
	return &SQLLedger{
		DB:         db,
		DriverName: driverName,
		Table:      table,
	}, nil
}

// EnsureSchema creates the ledger table if it does not exist.
func (l *SQLLedger) EnsureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	start_code BIGINT NOT NULL,
	end_code BIGINT NOT NULL,
	sheets INTEGER NOT NULL,
	output VARCHAR(1024) NOT NULL,
	created_at VARCHAR(64) NOT NULL
)`, l.Table)
	if _, err := l.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create ledger table: %w", err)
	}
	return nil
}

func (l *SQLLedger) LastIssued(ctx context.Context) (int64, bool, error) {
	var last sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(end_code) FROM %s", l.Table)
	if err := l.DB.QueryRowContext(ctx, query).Scan(&last); err != nil {
		return 0, false, fmt.Errorf("query failed: %w", err)
	}
	return last.Int64, last.Valid, nil
}

func (l *SQLLedger) Record(ctx context.Context, b IssuedBatch) error {
	stmt := fmt.Sprintf("INSERT INTO %s (start_code, end_code, sheets, output, created_at) VALUES (%s)",
		l.Table, placeholders(l.DriverName, 5))
	_, err := l.DB.ExecContext(ctx, stmt,
		b.Start, b.End, b.Sheets, b.Output, b.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

// placeholders returns n bind parameters in the driver's syntax.
func placeholders(driverName string, n int) string {
	marks := make([]string, n)
	for i := range marks {
		if driverName == "postgres" {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			// MySQL and others usually use ?
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}
