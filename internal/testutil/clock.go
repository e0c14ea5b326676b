// Package testutil holds helpers shared by the shelf tests.
package testutil

import (
	"sync"
	"time"
)

// Start is the instant every new Clock begins at.
var Start = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// Clock is a manually advanced clock. Pass its Now method wherever a
// func() time.Time is expected. Safe for concurrent use.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to Start.
func NewClock() *Clock {
	return &Clock{current: Start}
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)

	return c.current
}

// AdvanceDays moves the clock forward by n days.
func (c *Clock) AdvanceDays(n int) time.Time {
	return c.Advance(time.Duration(n) * 24 * time.Hour)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = t
}
