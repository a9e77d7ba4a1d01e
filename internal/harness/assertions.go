package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the table contents to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Table    *Table // Table the assertion ran against
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Table != nil {
		fmt.Fprintf(&buf, "\nTable:\n")
		writeTable(&buf, e.Table)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against result's tables and
// returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	table, ok := result.Tables[a.Table]
	if !ok {
		return fmt.Errorf("unknown table %q", a.Table)
	}

	switch a.Type {
	case AssertRowCount:
		return assertRowCount(table, a)
	case AssertRow:
		return assertRow(table, a)
	case AssertColumns:
		return assertColumns(table, a)
	case AssertNoColumn:
		return assertNoColumn(table, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRowCount(table *Table, a Assertion) error {
	if len(table.Rows) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRowCount,
		Expected: fmt.Sprintf("%d rows in %q", a.Count, a.Table),
		Actual:   fmt.Sprintf("%d rows", len(table.Rows)),
		Table:    table,
	}
}

// assertRow finds the first row matching every Where value and checks the
// Expect values on it (subset match).
func assertRow(table *Table, a Assertion) error {
	for i := range table.Rows {
		if !rowMatches(table, i, a.Where) {
			continue
		}
		for col, want := range a.Expect {
			got, ok := table.Value(i, col)
			if !ok {
				return &AssertionError{
					Type:     AssertRow,
					Expected: fmt.Sprintf("column %q", col),
					Actual:   "no such column",
					Table:    table,
				}
			}
			if !equalValue(got, want) {
				return &AssertionError{
					Type:     AssertRow,
					Expected: fmt.Sprintf("%s = %s", col, display(want)),
					Actual:   fmt.Sprintf("%s = %s", col, display(got)),
					Table:    table,
				}
			}
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertRow,
		Expected: fmt.Sprintf("a row in %q matching %v", a.Table, a.Where),
		Actual:   "no matching row",
		Table:    table,
	}
}

func rowMatches(table *Table, i int, where map[string]string) bool {
	for col, want := range where {
		got, ok := table.Value(i, col)
		if !ok || got == nil || *got != want {
			return false
		}
	}
	return true
}

func assertColumns(table *Table, a Assertion) error {
	var missing []string
	for _, col := range a.Columns {
		if !slices.Contains(table.Columns, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertColumns,
		Expected: fmt.Sprintf("columns %v in %q", a.Columns, a.Table),
		Actual:   fmt.Sprintf("missing %v", missing),
	}
}

func assertNoColumn(table *Table, a Assertion) error {
	var present []string
	for _, col := range a.Columns {
		if slices.Contains(table.Columns, col) {
			present = append(present, col)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoColumn,
		Expected: fmt.Sprintf("no columns %v in %q", a.Columns, a.Table),
		Actual:   fmt.Sprintf("found %v", present),
	}
}

func equalValue(got, want *string) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}
	return *got == *want
}

func display(v *string) string {
	if v == nil {
		return nullText
	}
	return fmt.Sprintf("%q", *v)
}
