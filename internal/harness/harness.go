package harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/eventchain/internal/engine"
	"github.com/roach88/eventchain/internal/schema"
	"github.com/roach88/eventchain/internal/source"
	"github.com/roach88/eventchain/internal/store"
	"github.com/roach88/eventchain/internal/testutil"
)

// Epoch is the first ingestion timestamp of every scenario run.
var Epoch = time.UnixMilli(1_700_000_000_000)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool

	// Errors contains assertion failure messages.
	Errors []string

	// Tables holds the final contents of each table.
	Tables map[string]*Table

	// Skipped counts deliveries that sources would drop (empty block batches).
	Skipped int
}

// Table is a snapshot of one table in rowid order.
type Table struct {
	Columns []string
	Rows    [][]*string // nil marks NULL
}

// Value returns row i's value for column, and whether the column exists.
func (t *Table) Value(i int, column string) (*string, bool) {
	for c, name := range t.Columns {
		if name == column {
			return t.Rows[i][c], true
		}
	}
	return nil, false
}

// AddError records an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Open a fresh in-memory database and synchronize the projection
// 2. Apply each step in order: decode and write a delivery, or resync
// 3. Snapshot both tables
// 4. Evaluate assertions against the snapshot
//
// A failing step is an error; failing assertions are reported in Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	db, err := sql.Open(store.DriverCGO, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	defer db.Close()
	// One connection keeps the in-memory database alive for the whole run.
	db.SetMaxOpenConns(1)

	clock := testutil.NewStepClock(Epoch)
	st, err := store.New(ctx, db, schema.NewProjection(scenario.Project...), store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var batches engine.BatchIDGenerator = testutil.NewFixedBatchGenerator(scenario.Name)
	result := &Result{Pass: true}

	for i, step := range scenario.Deliveries {
		if len(step.Resync) > 0 {
			if err := st.Resync(ctx, schema.NewProjection(step.Resync...)); err != nil {
				return nil, fmt.Errorf("step %d: resync: %w", i, err)
			}
			continue
		}

		data, err := step.envelope()
		if err != nil {
			return nil, fmt.Errorf("step %d: encode delivery: %w", i, err)
		}
		d, err := source.DecodeDelivery(data)
		if errors.Is(err, source.ErrEmptyBatch) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		wctx := store.WithBatch(ctx, batches.Generate())
		if err := st.Write(wctx, d.Category, d.Records); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	result.Tables = make(map[string]*Table, len(schema.Tables))
	for _, name := range schema.Tables {
		table, err := snapshot(ctx, db, name)
		if err != nil {
			return nil, err
		}
		result.Tables[name] = table
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// snapshot reads every row of table.
func snapshot(ctx context.Context, db *sql.DB, table string) (*Table, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+schema.QuoteIdent(table)+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", table, err)
	}

	t := &Table{Columns: cols}
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", table, err)
		}

		row := make([]*string, len(cols))
		for i, v := range vals {
			if v.Valid {
				s := v.String
				row[i] = &s
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, rows.Err()
}
