// Package testutil provides deterministic fixtures for timing-monitor
// tests: a settable clock, timing-record builders, and assertion
// helpers. All generators produce deterministic output for
// reproducible tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/vanderheijden86/cascadework/pkg/model"
)

// RecordID generates a standard test record ID with the given index.
// Format: "rec-{index}" for consistency across tests.
func RecordID(index int) string {
	return fmt.Sprintf("rec-%d", index)
}

// OpenRecord builds an open timing record started at the given instant.
func OpenRecord(id, itemID, from, to string, startedAt time.Time) model.TimingRecord {
	return model.TimingRecord{
		ID:        id,
		ItemID:    itemID,
		FromStage: from,
		ToStage:   to,
		StartedAt: startedAt.UTC(),
	}
}

// CompletedRecord builds a completed record whose completion time is
// startedAt + duration.
func CompletedRecord(id, itemID, from, to string, startedAt time.Time, durationSeconds float64, success bool) model.TimingRecord {
	rec := OpenRecord(id, itemID, from, to, startedAt)
	completed := startedAt.UTC().Add(time.Duration(durationSeconds * float64(time.Second)))
	rec.CompletedAt = &completed
	rec.DurationSeconds = &durationSeconds
	rec.Success = success
	return rec
}

// Seeder inserts fixtures into a store, failing the test on error.
type Seeder struct {
	t     *testing.T
	store interface {
		Insert(rec model.TimingRecord) error
		Complete(id string, completedAt time.Time, durationSeconds float64, success bool, errorMessage string) error
	}
	next int
}

// NewSeeder wraps a store for fixture seeding.
func NewSeeder(t *testing.T, store interface {
	Insert(rec model.TimingRecord) error
	Complete(id string, completedAt time.Time, durationSeconds float64, success bool, errorMessage string) error
}) *Seeder {
	return &Seeder{t: t, store: store}
}

// Open inserts an open record and returns its id.
func (s *Seeder) Open(itemID, from, to string, startedAt time.Time) string {
	s.t.Helper()
	s.next++
	id := RecordID(s.next)
	if err := s.store.Insert(OpenRecord(id, itemID, from, to, startedAt)); err != nil {
		s.t.Fatalf("seeding open record: %v", err)
	}
	return id
}

// Completed inserts and completes a record with the given duration.
func (s *Seeder) Completed(itemID, from, to string, startedAt time.Time, durationSeconds float64, success bool) string {
	s.t.Helper()
	id := s.Open(itemID, from, to, startedAt)
	completedAt := startedAt.UTC().Add(time.Duration(durationSeconds * float64(time.Second)))
	if err := s.store.Complete(id, completedAt, durationSeconds, success, ""); err != nil {
		s.t.Fatalf("seeding completed record: %v", err)
	}
	return id
}

// CompletedBatch completes one record per duration, all for the same
// stage pair, each completing at completedAt.
func (s *Seeder) CompletedBatch(from, to string, durations []float64, completedAt time.Time) {
	s.t.Helper()
	for i, d := range durations {
		started := completedAt.UTC().Add(-time.Duration(d * float64(time.Second)))
		s.Completed(fmt.Sprintf("batch-item-%d", i), from, to, started, d, true)
	}
}
