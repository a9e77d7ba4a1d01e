package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/eventchain/internal/event"
	"github.com/roach88/eventchain/internal/schema"
)

// Write inserts the items of records, one row per item.
//
// Inputs go to the "in" table and outputs to the "out" table, but only for
// tables the synchronized projection named at least one field of. Each item
// is flattened, its paths are prefixed with the table name, and paths that
// are not known columns are dropped. The row also carries category, the
// ingestion timestamp, the txid, and the block index (NULL when unconfirmed).
//
// There is no transaction around the call: on the first failed insert Write
// returns a *StorageError and rows already inserted stay.
func (s *Store) Write(ctx context.Context, category string, records []event.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := BatchFromContext(ctx)
	inserted := 0

	for _, rec := range records {
		targets := []struct {
			table string
			items []event.Item
		}{
			{schema.TableIn, rec.Inputs},
			{schema.TableOut, rec.Outputs},
		}

		for _, target := range targets {
			if !s.reg.Wants(target.table) || len(target.items) == 0 {
				continue
			}
			for i, item := range target.items {
				stmt, args := buildInsert(s.reg, target.table, category, s.now().UnixMilli(), rec, item)
				if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
					return &StorageError{
						Table: target.table,
						TxID:  rec.TxID,
						Item:  i,
						Batch: batch,
						Err:   err,
					}
				}
				inserted++
			}
		}
	}

	slog.Debug("records stored",
		"category", category,
		"batch", batch,
		"records", len(records),
		"rows", inserted,
	)
	return nil
}

// buildInsert renders the INSERT for one item.
//
// Column names come only from reg; every value is a bound parameter.
// When several flattened paths resolve to the same column the first wins.
func buildInsert(
	reg *schema.Registry,
	table string,
	category string,
	nowMillis int64,
	rec event.Record,
	item event.Item,
) (string, []any) {
	fields := event.Flatten(item)

	columns := make([]string, 0, len(fields)+len(schema.BaseColumns))
	args := make([]any, 0, len(fields)+len(schema.BaseColumns))
	seen := make(map[string]bool, len(fields))

	for _, f := range fields {
		col, ok := reg.Column(table, table+event.PathSeparator+f.Path)
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		columns = append(columns, col)
		args = append(args, sqlValue(f.Value))
	}

	var blockIndex any
	if rec.BlockIndex != nil {
		blockIndex = strconv.FormatInt(*rec.BlockIndex, 10)
	}

	columns = append(columns,
		schema.ColumnType,
		schema.ColumnTimestamp,
		schema.ColumnTxID,
		schema.ColumnBlockIndex,
	)
	args = append(args,
		category,
		strconv.FormatInt(nowMillis, 10),
		rec.TxID,
		blockIndex,
	)

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = schema.QuoteIdent(col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.QuoteIdent(table), strings.Join(quoted, ", "), placeholders)
	return stmt, args
}

// sqlValue converts a flattened leaf to its bound parameter.
// Scalars are stored as text; Null is stored as NULL.
func sqlValue(v event.Value) any {
	if text, ok := event.Text(v); ok {
		return text
	}
	return nil
}
