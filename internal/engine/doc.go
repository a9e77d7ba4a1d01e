// Package engine serializes event deliveries into the store.
//
// Single-Writer Loop:
// Sources may deliver from their own goroutines, but every delivery passes
// through one FIFO queue and is processed by one Run goroutine. Schema
// resynchronization and inserts therefore never interleave, and the store
// sees deliveries in arrival order.
//
// Delivery Processing Flow:
// 1. A source calls Handle, which enqueues the delivery
// 2. Run dequeues deliveries one at a time
// 3. The delivery gets a sequence number and a UUIDv7 batch id
// 4. The raw payload is appended to the chain log (failures are logged only)
// 5. The records are written to the store; a failed write is logged with
//    the batch id and processing continues
package engine
