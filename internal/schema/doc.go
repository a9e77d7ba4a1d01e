// Package schema derives and maintains the relational layout of the store.
//
// A Projection lists the dotted field names to persist, each prefixed by the
// logical table it belongs to ("in." or "out."). Synchronizer.Sync creates the
// two logical tables on first use and adds one TEXT column per projected name
// that is not already present. Columns are never removed or renamed.
//
// # Tables
//
// Both tables carry four base columns, each indexed:
//   - type: delivery category label
//   - timestamp: ingestion time in milliseconds since epoch
//   - blockindex: block height, NULL for unconfirmed records
//   - txid: transaction identifier
//
// Dynamic columns are named by their full dotted path ("in.e.a") and are not
// indexed.
//
// The Registry returned by Sync is the process-held record of known columns.
// The store filters flattened fields against it and takes every identifier it
// writes into statement text from it.
package schema
