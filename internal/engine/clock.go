package engine

import "sync/atomic"

// Clock numbers deliveries in arrival order, starting at 1.
// Only the Run loop calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
