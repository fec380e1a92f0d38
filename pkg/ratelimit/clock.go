package ratelimit

import "time"

// Clock provides time operations for the limiter. Production code uses
// SystemClock; tests inject a fake to drive the window deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
