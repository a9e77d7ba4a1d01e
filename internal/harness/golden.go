package harness

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/eventchain/internal/schema"
)

// nullText renders SQL NULL in snapshots.
const nullText = "<null>"

// Render formats the result's tables for golden comparison:
//
//	table in
//	  columns: type | timestamp | blockindex | txid | in.e.a
//	  ONMEMPOOL | 1700000000000 | <null> | tx1 | 1AddrX
func (r *Result) Render() []byte {
	var buf strings.Builder
	names := make([]string, 0, len(r.Tables))
	for _, name := range schema.Tables {
		if _, ok := r.Tables[name]; ok {
			names = append(names, name)
		}
	}
	for i, name := range names {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "table %s\n", name)
		writeTable(&buf, r.Tables[name])
	}
	return []byte(buf.String())
}

func writeTable(w io.Writer, t *Table) {
	fmt.Fprintf(w, "  columns: %s\n", strings.Join(t.Columns, " | "))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = nullText
			} else {
				cells[i] = *v
			}
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(cells, " | "))
	}
}

// RunWithGolden executes a scenario, fails t for any failed assertion, and
// compares the final tables against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, result.Render())
}
