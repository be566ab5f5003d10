package datasource

import (
	"sort"
	"sync"
	"time"

	"github.com/vanderheijden86/cascadework/pkg/model"
)

// MemoryStore is an in-memory Store for tests and short-lived
// embedding. Semantics mirror SQLiteStore exactly, including the
// open-rows-only completion guard.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.TimingRecord
	order   []string // insertion order for stable iteration
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.TimingRecord)}
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Insert persists a new open record.
func (s *MemoryStore) Insert(rec model.TimingRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	rec.StartedAt = rec.StartedAt.UTC()
	s.records[rec.ID] = rec
	return nil
}

// Complete closes an open record exactly once.
func (s *MemoryStore) Complete(id string, completedAt time.Time, durationSeconds float64, success bool, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.CompletedAt != nil {
		return ErrAlreadyCompleted
	}

	t := completedAt.UTC()
	rec.CompletedAt = &t
	rec.DurationSeconds = &durationSeconds
	rec.Success = success
	if errorMessage != "" {
		msg := errorMessage
		rec.ErrorMessage = &msg
	}
	s.records[id] = rec
	return nil
}

// Get returns a single record by id.
func (s *MemoryStore) Get(id string) (model.TimingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return model.TimingRecord{}, ErrNotFound
	}
	return rec, nil
}

// CompletedInWindow returns completed records for the stage pair inside
// the window, sorted by duration ascending.
func (s *MemoryStore) CompletedInWindow(fromStage, toStage string, since, until time.Time) ([]model.TimingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []model.TimingRecord
	for _, id := range s.order {
		rec := s.records[id]
		if rec.FromStage != fromStage || rec.ToStage != toStage {
			continue
		}
		if rec.CompletedAt == nil {
			continue
		}
		if rec.CompletedAt.Before(since) || rec.CompletedAt.After(until) {
			continue
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		var di, dj float64
		if recs[i].DurationSeconds != nil {
			di = *recs[i].DurationSeconds
		}
		if recs[j].DurationSeconds != nil {
			dj = *recs[j].DurationSeconds
		}
		return di < dj
	})
	return recs, nil
}

// OpenRecords returns every open record, oldest started first.
func (s *MemoryStore) OpenRecords() ([]model.TimingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []model.TimingRecord
	for _, id := range s.order {
		rec := s.records[id]
		if rec.CompletedAt == nil {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].StartedAt.Before(recs[j].StartedAt)
	})
	return recs, nil
}

// OpenRecordsForItem returns the open records for one item.
func (s *MemoryStore) OpenRecordsForItem(itemID string) ([]model.TimingRecord, error) {
	all, err := s.OpenRecords()
	if err != nil {
		return nil, err
	}
	var recs []model.TimingRecord
	for _, rec := range all {
		if rec.ItemID == itemID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
