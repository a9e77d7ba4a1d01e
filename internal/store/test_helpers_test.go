package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/eventchain/internal/event"
	"github.com/roach88/eventchain/internal/schema"
	"github.com/roach88/eventchain/internal/testutil"
)

// testEpoch is the first ingestion timestamp handed out by test clocks.
var testEpoch = time.UnixMilli(1_700_000_000_000)

// createTestStore opens a store in a temp dir with a step clock.
func createTestStore(t *testing.T, keys ...string) (*Store, *testutil.StepClock) {
	t.Helper()
	clock := testutil.NewStepClock(testEpoch)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, schema.NewProjection(keys...), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// confirmed builds a confirmed record with the given items.
func confirmed(txid string, height int64, inputs, outputs []event.Item) event.Record {
	return event.Record{
		TxID:       txid,
		BlockIndex: &height,
		Inputs:     inputs,
		Outputs:    outputs,
	}
}

// unconfirmed builds an unconfirmed record with the given items.
func unconfirmed(txid string, inputs, outputs []event.Item) event.Record {
	return event.Record{
		TxID:    txid,
		Inputs:  inputs,
		Outputs: outputs,
	}
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + schema.QuoteIdent(table)).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// readRows returns every row of table as column → value, NULL as nil.
func readRows(t *testing.T, db *sql.DB, table string) []map[string]*string {
	t.Helper()
	rows, err := db.Query("SELECT * FROM " + schema.QuoteIdent(table) + " ORDER BY rowid")
	if err != nil {
		t.Fatalf("select %s: %v", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		t.Fatalf("columns %s: %v", table, err)
	}

	var out []map[string]*string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatalf("scan %s: %v", table, err)
		}
		row := make(map[string]*string, len(cols))
		for i, c := range cols {
			if vals[i].Valid {
				v := vals[i].String
				row[c] = &v
			} else {
				row[c] = nil
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows %s: %v", table, err)
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
