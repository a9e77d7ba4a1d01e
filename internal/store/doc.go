// Package store provides the SQLite-backed write path for event records.
//
// Open owns the database handle: it creates the file (and its directory),
// configures SQLite for a single writer, and synchronizes the "in" and "out"
// tables with the caller's projection before returning. Write then inserts
// one row per input or output item, keeping only fields the projection made
// into columns.
//
// # Write Semantics
//
//   - Identifiers in statement text come from the schema.Registry only
//   - Values are always bound parameters, stored as text (NULL for JSON null)
//   - No transaction wraps a Write call; the first failure stops the call
//   - Write and Resync are serialized by the Store mutex
//
// # Drivers
//
// DriverCGO (github.com/mattn/go-sqlite3) is the default. DriverPure
// (modernc.org/sqlite) needs no C toolchain.
package store
