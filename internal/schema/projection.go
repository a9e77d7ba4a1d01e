package schema

import (
	"slices"
	"strings"

	"github.com/roach88/eventchain/internal/event"
)

// Logical table names. Both tables always exist after synchronization.
const (
	TableIn  = "in"
	TableOut = "out"
)

// Tables lists the logical tables in synchronization order.
var Tables = []string{TableIn, TableOut}

// Base columns carried by every row.
const (
	ColumnType       = "type"
	ColumnTimestamp  = "timestamp"
	ColumnBlockIndex = "blockindex"
	ColumnTxID       = "txid"
)

// BaseColumns lists the bookkeeping columns in creation order.
var BaseColumns = []string{ColumnType, ColumnTimestamp, ColumnBlockIndex, ColumnTxID}

// Projection is the set of dotted field names to persist.
// Each name is prefixed with the table it belongs to ("in.e.a", "out.s2").
type Projection struct {
	keys []string // sorted, unique, NFC-normalized
}

// ParseProjection builds a Projection from a name → marker mapping.
// Only key presence matters; marker values are not interpreted.
func ParseProjection(project map[string]any) Projection {
	keys := make([]string, 0, len(project))
	for k := range project {
		keys = append(keys, k)
	}
	return NewProjection(keys...)
}

// NewProjection builds a Projection from field names.
func NewProjection(keys ...string) Projection {
	normalized := make([]string, 0, len(keys))
	for _, k := range keys {
		normalized = append(normalized, event.NormalizePath(k))
	}
	slices.Sort(normalized)
	return Projection{keys: slices.Compact(normalized)}
}

// Keys returns all projected names in sorted order.
func (p Projection) Keys() []string {
	return slices.Clone(p.keys)
}

// ForTable returns the projected names that belong to table.
func (p Projection) ForTable(table string) []string {
	prefix := table + event.PathSeparator
	var keys []string
	for _, k := range p.keys {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Wants reports whether any projected name belongs to table.
func (p Projection) Wants(table string) bool {
	return len(p.ForTable(table)) > 0
}

// Validate checks that the projection names at least one table field.
func (p Projection) Validate() error {
	for _, table := range Tables {
		if p.Wants(table) {
			return nil
		}
	}
	return &ConfigurationError{
		Field:   "project",
		Message: `projection required to derive columns: at least one "in." or "out." field must be listed`,
	}
}
