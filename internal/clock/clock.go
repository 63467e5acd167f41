package clock

import (
	"sync"
	"time"
)

// Clock provides the current time so callers can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// New creates a new RealClock.
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock is a settable Clock for tests.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ Clock = (*FixedClock)(nil)

// NewFixed creates a FixedClock set to t.
func NewFixed(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the fixed time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set sets the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
