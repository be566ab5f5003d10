// Package datasource provides persistence for stage-timing records.
// Two implementations ship: a SQLite store (the normal deployment) and
// an in-memory store for tests and short-lived embedding.
//
// All writes are single-row: one insert when a transition starts, one
// guarded update when it completes. The completion update only touches
// rows that are still open, which is what backs the write-once
// invariant on completed records.
package datasource

import (
	"errors"
	"time"

	"github.com/vanderheijden86/cascadework/pkg/model"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("timing record not found")

// ErrAlreadyCompleted is returned when a completion update targets a
// record that has already been completed. Completed records are
// immutable; callers treat this as a logged no-op.
var ErrAlreadyCompleted = errors.New("timing record already completed")

// Store is the persistence interface for timing records.
// Abstracted so the monitor can be tested against the memory store.
type Store interface {
	// Insert persists a new open record.
	Insert(rec model.TimingRecord) error

	// Complete closes an open record, setting completion time,
	// duration, success, and optional error message exactly once.
	// Returns ErrNotFound or ErrAlreadyCompleted accordingly.
	Complete(id string, completedAt time.Time, durationSeconds float64, success bool, errorMessage string) error

	// Get returns a single record by id, or ErrNotFound.
	Get(id string) (model.TimingRecord, error)

	// CompletedInWindow returns all completed records for the stage
	// pair with completed_at inside [since, until], both successes and
	// failures, sorted by duration ascending.
	CompletedInWindow(fromStage, toStage string, since, until time.Time) ([]model.TimingRecord, error)

	// OpenRecords returns every record with no completion time,
	// oldest started first.
	OpenRecords() ([]model.TimingRecord, error)

	// OpenRecordsForItem returns the open records for one item.
	OpenRecordsForItem(itemID string) ([]model.TimingRecord, error)

	// Close releases any underlying resources.
	Close() error
}
