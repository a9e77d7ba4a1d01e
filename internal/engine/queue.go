package engine

import (
	"sync"

	"github.com/roach88/eventchain/internal/source"
)

// deliveryQueue is a thread-safe FIFO queue of deliveries.
//
// Sources enqueue from their own goroutine while the Engine's Run loop
// dequeues. The queue is unbounded so a slow store never blocks a source
// callback.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type deliveryQueue struct {
	mu     sync.Mutex
	items  []source.Delivery
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

func newDeliveryQueue() *deliveryQueue {
	return &deliveryQueue{
		items:  make([]source.Delivery, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a delivery to the back of the queue.
// Returns false if the queue is closed.
func (q *deliveryQueue) Enqueue(d source.Delivery) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, d)

	// Non-blocking: buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front delivery without blocking.
// Returns false if the queue is empty.
func (q *deliveryQueue) TryDequeue() (source.Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return source.Delivery{}, false
	}

	d := q.items[0]

	// Clear the slot so the records can be collected.
	q.items[0] = source.Delivery{}

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return d, true
}

// Wait returns a channel that signals when deliveries may be available.
// The channel is closed when the queue is closed.
func (q *deliveryQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *deliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close signals that no more deliveries will be enqueued.
func (q *deliveryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
