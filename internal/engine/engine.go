package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/eventchain/internal/event"
	"github.com/roach88/eventchain/internal/source"
	"github.com/roach88/eventchain/internal/store"
)

// BatchIDGenerator generates delivery identifiers for log correlation.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type BatchIDGenerator interface {
	Generate() string
}

// Writer persists the records of one delivery. Implemented by *store.Store.
type Writer interface {
	Write(ctx context.Context, category string, records []event.Record) error
}

// Appender records the raw payload of one delivery. Implemented by
// *chainlog.Log.
type Appender interface {
	Append(category, id string, payload json.RawMessage) error
}

// ErrStopped is returned by Handle after Stop.
var ErrStopped = errors.New("engine stopped")

// Engine is the single-writer delivery loop.
//
// Sources call Handle (or Enqueue) from any goroutine; Run processes the
// queued deliveries one at a time, in FIFO order. Each delivery is appended to
// the chain log, if one is configured, and then written to the store.
//
// Thread-safety model:
//   - Enqueue(), Handle(), Stop(), Stats(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	writer   Writer
	chain    Appender
	queue    *deliveryQueue
	batchGen BatchIDGenerator
	clock    *Clock

	delivered atomic.Int64
	failed    atomic.Int64
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithChainLog appends every delivery's raw payload to a before it is stored.
func WithChainLog(a Appender) EngineOption {
	return func(e *Engine) {
		e.chain = a
	}
}

// WithBatchIDs overrides the batch identifier generator.
// Default: UUIDv7Generator.
func WithBatchIDs(gen BatchIDGenerator) EngineOption {
	return func(e *Engine) {
		e.batchGen = gen
	}
}

// New creates an Engine writing through w.
func New(w Writer, opts ...EngineOption) *Engine {
	e := &Engine{
		writer:   w,
		queue:    newDeliveryQueue(),
		batchGen: UUIDv7Generator{},
		clock:    NewClock(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Stats counts processed deliveries.
type Stats struct {
	Delivered int64 // deliveries written without error
	Failed    int64 // deliveries whose write failed
}

// Stats returns the delivery counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Delivered: e.delivered.Load(),
		Failed:    e.failed.Load(),
	}
}

// Enqueue submits a delivery for processing by the Run loop.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(d source.Delivery) bool {
	return e.queue.Enqueue(d)
}

// Handle implements source.Handler by enqueueing d.
func (e *Engine) Handle(_ context.Context, d source.Delivery) error {
	if !e.Enqueue(d) {
		return ErrStopped
	}
	return nil
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled, or until Stop() has been called and the
// queue is drained. Cancelling ctx closes the queue; deliveries already
// queued are still written before Run returns ctx.Err().
//
// A failed write is logged with the delivery's identifiers and processing
// continues with the next delivery. The store keeps rows written before the
// failure; retrying is left to whoever replays the chain log.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")

	for {
		d, ok := e.queue.TryDequeue()
		if ok {
			e.process(ctx, d)
			continue
		}

		select {
		case <-ctx.Done():
			e.queue.Close()
			n := e.drain(ctx)
			slog.Info("engine stopping: context cancelled", "drained", n)
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue; an empty closed
			// queue ends the loop.
			if e.queue.Len() == 0 && e.isClosed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once queued deliveries are processed.
func (e *Engine) Stop() {
	e.queue.Close()
}

// drain processes whatever is left in a closed queue.
func (e *Engine) drain(ctx context.Context) int {
	n := 0
	for {
		d, ok := e.queue.TryDequeue()
		if !ok {
			return n
		}
		e.process(ctx, d)
		n++
	}
}

func (e *Engine) isClosed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

// process handles one delivery.
// Called only from the Run goroutine. The write ignores cancellation of ctx:
// a delivery appended to the chain log must also reach the store.
func (e *Engine) process(ctx context.Context, d source.Delivery) {
	seq := e.clock.Next()
	batch := e.batchGen.Generate()
	ctx = store.WithBatch(context.WithoutCancel(ctx), batch)

	slog.Debug("processing delivery",
		"seq", seq,
		"batch", batch,
		"category", d.Category,
		"id", d.ID,
		"records", len(d.Records),
	)

	if e.chain != nil && len(d.Payload) > 0 {
		if err := e.chain.Append(d.Category, d.ID, d.Payload); err != nil {
			slog.Warn("chain log append failed", "seq", seq, "batch", batch, "error", err)
		}
	}

	if err := e.writer.Write(ctx, d.Category, d.Records); err != nil {
		e.failed.Add(1)
		slog.Error("delivery not stored",
			"seq", seq,
			"batch", batch,
			"category", d.Category,
			"id", d.ID,
			"error", err,
		)
		return
	}

	e.delivered.Add(1)
	slog.Info("delivery stored",
		"seq", seq,
		"batch", batch,
		"category", d.Category,
		"id", d.ID,
		"records", len(d.Records),
	)
}
