package schema

import "slices"

// Registry holds the known columns of each logical table.
//
// It is populated by Synchronizer.Sync and is the only source of identifiers
// that may appear in statement text. A Registry is never mutated after Sync
// returns; resynchronizing produces a new one.
type Registry struct {
	tables map[string]*tableColumns
}

type tableColumns struct {
	columns []string          // in table order
	byName  map[string]string // exact or case-folded name → column name
	wants   bool
}

func newRegistry() *Registry {
	return &Registry{tables: make(map[string]*tableColumns, len(Tables))}
}

func (r *Registry) table(name string) *tableColumns {
	t, ok := r.tables[name]
	if !ok {
		t = &tableColumns{byName: make(map[string]string)}
		r.tables[name] = t
	}
	return t
}

// add registers a column. SQLite compares identifiers ignoring ASCII case,
// so the folded form is registered too.
func (t *tableColumns) add(column string) {
	t.columns = append(t.columns, column)
	t.byName[column] = column
	folded := foldASCII(column)
	if _, ok := t.byName[folded]; !ok {
		t.byName[folded] = column
	}
}

// lookup resolves a name to the column that stores it.
func (t *tableColumns) lookup(name string) (string, bool) {
	if col, ok := t.byName[name]; ok {
		return col, true
	}
	col, ok := t.byName[foldASCII(name)]
	return col, ok
}

// foldASCII lowercases A-Z and leaves every other byte alone, matching how
// SQLite compares identifiers.
func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Tables returns the synchronized table names in synchronization order.
func (r *Registry) Tables() []string {
	var names []string
	for _, name := range Tables {
		if _, ok := r.tables[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Columns returns the known columns of table in table order.
func (r *Registry) Columns(table string) []string {
	t, ok := r.tables[table]
	if !ok {
		return nil
	}
	return slices.Clone(t.columns)
}

// Column resolves name to a known column of table.
// Names differing only in case from a known column resolve to that column.
func (r *Registry) Column(table, name string) (string, bool) {
	t, ok := r.tables[table]
	if !ok {
		return "", false
	}
	return t.lookup(name)
}

// Has reports whether name resolves to a known column of table.
func (r *Registry) Has(table, name string) bool {
	_, ok := r.Column(table, name)
	return ok
}

// Wants reports whether the synchronized projection named any field of table.
func (r *Registry) Wants(table string) bool {
	t, ok := r.tables[table]
	return ok && t.wants
}
