package store

import (
	"context"
	"errors"
	"fmt"
)

// StorageError reports a failed insert.
//
// Rows inserted earlier in the same Write call are kept; the remaining items
// of the call are not attempted.
type StorageError struct {
	Table string
	TxID  string

	// Item is the index of the failing item within the record's input or
	// output list.
	Item int

	// Batch identifies the delivery, if the caller attached one with WithBatch.
	Batch string

	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Batch != "" {
		return fmt.Sprintf("storage error: insert into %q (txid=%s, item=%d, batch=%s): %v",
			e.Table, e.TxID, e.Item, e.Batch, e.Err)
	}
	return fmt.Sprintf("storage error: insert into %q (txid=%s, item=%d): %v",
		e.Table, e.TxID, e.Item, e.Err)
}

// Unwrap returns the underlying database error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError returns true if err is or wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

type batchKey struct{}

// WithBatch attaches a delivery identifier to ctx.
// Write logs it and copies it into any StorageError it returns.
func WithBatch(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchKey{}, id)
}

// BatchFromContext returns the identifier attached by WithBatch, or "".
func BatchFromContext(ctx context.Context) string {
	id, _ := ctx.Value(batchKey{}).(string)
	return id
}
