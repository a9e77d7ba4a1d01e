package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic wall clock for tests.
//
// Each call to Now returns the start time advanced by one millisecond per
// previous call, so ingestion timestamps are predictable and strictly
// increasing.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	ticks int64
}

// NewStepClock creates a clock whose first Now() returns start.
func NewStepClock(start time.Time) *StepClock {
	return &StepClock{start: start}
}

// Now returns the current time and advances the clock by one millisecond.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.ticks) * time.Millisecond)
	c.ticks++
	return t
}

// Ticks returns how many times Now has been called.
func (c *StepClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock so the next Now() returns start again.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
