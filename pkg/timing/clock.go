// Package timing records how long items spend transitioning between
// pipeline stages. A Recorder opens a record when a transition begins
// and closes it when it ends; a Tracker lists the records still open.
//
// Recording is observability, never a correctness gate: a Complete call
// for a missing or already-closed record is a logged no-op, and the
// Tracker degrades to empty results when the store misbehaves.
package timing

import "time"

// Clock abstracts the current-time source so tests can freeze or
// advance time deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used in production.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
