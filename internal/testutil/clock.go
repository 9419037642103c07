package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a thread-safe test clock that advances by a fixed
// step on every reading.
//
// The first call to Now returns start; each later call returns the previous
// reading plus step. Two clocks built with the same arguments produce the
// same sequence, which keeps sync event timestamps reproducible.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int64
}

// DefaultStart is the reading a NewDeterministicClock(time.Time{}, 0) starts at.
var DefaultStart = time.UnixMilli(1700000000000).UTC()

// NewDeterministicClock creates a clock. A zero start uses DefaultStart and a
// zero step uses one millisecond.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	if start.IsZero() {
		start = DefaultStart
	}
	if step == 0 {
		step = time.Millisecond
	}
	return &DeterministicClock{start: start, step: step}
}

// Now returns the next reading.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Readings returns how many times Now has been called.
func (c *DeterministicClock) Readings() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock so the next Now returns start again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
