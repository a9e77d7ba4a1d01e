// Package source adapts event transports into Deliveries.
//
// A Source calls its handler once per delivery, in arrival order, and waits
// for the handler to return before reading the next one. Malformed payloads
// are logged and skipped; a handler error stops the source.
package source

import (
	"context"
	"errors"
	"log/slog"
)

// Handler receives each delivery.
type Handler func(ctx context.Context, d Delivery) error

// Source produces deliveries until its input ends, ctx is cancelled, or the
// handler returns an error.
type Source interface {
	Run(ctx context.Context, handle Handler) error
}

// dispatch decodes one payload and hands it to handle.
// Decode failures are logged and swallowed.
func dispatch(ctx context.Context, data []byte, origin string, handle Handler) error {
	d, err := DecodeDelivery(data)
	if errors.Is(err, ErrEmptyBatch) {
		slog.Debug("skipping empty block batch", "origin", origin)
		return nil
	}
	if err != nil {
		slog.Warn("skipping malformed delivery", "origin", origin, "error", err)
		return nil
	}
	return handle(ctx, d)
}
