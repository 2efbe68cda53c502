// Package clock abstracts "now" so the token endpoint driver and the
// token codecs never call time.Now directly, letting tests inject a fixed
// instant (spec.md §5, "Timeouts: ... time is always read via the
// configured clock abstraction").
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

// Now returns time.Now().UTC().
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a test double that always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant.
func (f FixedClock) Now() time.Time { return f.T }
