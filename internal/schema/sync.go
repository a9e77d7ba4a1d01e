package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// Synchronizer brings the logical tables up to date with a projection.
// It borrows the database handle and never closes it.
type Synchronizer struct {
	db *sql.DB
}

// NewSynchronizer creates a Synchronizer over db.
func NewSynchronizer(db *sql.DB) *Synchronizer {
	return &Synchronizer{db: db}
}

// Sync ensures both logical tables exist with at least the projected columns
// and returns the resulting Registry.
//
// Tables are created with the base columns and one index per base column.
// Projected names missing from a table are added as TEXT columns without an
// index. Existing tables and columns are never dropped or altered, so Sync is
// idempotent and the column set only grows across calls.
//
// All DDL of one call runs in a single transaction.
func (s *Synchronizer) Sync(ctx context.Context, p Projection) (*Registry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &SchemaError{Op: "begin", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	reg := newRegistry()
	for _, table := range Tables {
		if err := syncTable(ctx, tx, reg, table, p); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &SchemaError{Op: "commit", Err: err}
	}

	return reg, nil
}

func syncTable(ctx context.Context, tx *sql.Tx, reg *Registry, table string, p Projection) error {
	t := reg.table(table)
	t.wants = p.Wants(table)

	existing, err := probeColumns(ctx, tx, table)
	if err != nil {
		return &SchemaError{Op: "probe", Table: table, Err: err}
	}

	if len(existing) == 0 {
		if err := createTable(ctx, tx, table); err != nil {
			return err
		}
		existing = BaseColumns
		slog.Info("table created", "table", table)
	}

	for _, col := range existing {
		t.add(col)
	}

	added := 0
	for _, key := range p.ForTable(table) {
		if _, ok := t.lookup(key); ok {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", QuoteIdent(table), QuoteIdent(key))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &SchemaError{Op: "add column", Table: table, Column: key, Err: err}
		}
		t.add(key)
		added++
		slog.Debug("column added", "table", table, "column", key)
	}

	slog.Debug("table synchronized",
		"table", table,
		"columns", len(t.columns),
		"added", added,
		"wants", t.wants,
	)
	return nil
}

// probeColumns returns the column names of table in table order.
// An empty result means the table does not exist.
func probeColumns(ctx context.Context, tx *sql.Tx, table string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func createTable(ctx context.Context, tx *sql.Tx, table string) error {
	defs := make([]string, len(BaseColumns))
	for i, col := range BaseColumns {
		defs[i] = QuoteIdent(col) + " TEXT"
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return &SchemaError{Op: "create table", Table: table, Err: err}
	}

	for _, col := range BaseColumns {
		stmt := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			QuoteIdent(IndexName(table, col)), QuoteIdent(table), QuoteIdent(col))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &SchemaError{Op: "create index", Table: table, Column: col, Err: err}
		}
	}
	return nil
}

// IndexName returns the name of the index on a base column.
// Index names share one namespace per database, so the table is part of the name.
func IndexName(table, column string) string {
	return "idx_" + table + "_" + column
}

// QuoteIdent quotes an identifier for use in statement text.
// Callers must only pass names taken from BaseColumns, Tables, or a Registry.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
