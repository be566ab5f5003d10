package timing

import (
	"github.com/vanderheijden86/cascadework/internal/datasource"
	"github.com/vanderheijden86/cascadework/pkg/debug"
	"github.com/vanderheijden86/cascadework/pkg/model"
)

// Tracker lists currently open timing records with their age. All
// methods are best-effort: store failures are debug-logged and degrade
// to empty results so dashboards never crash on a backend hiccup.
type Tracker struct {
	store datasource.Store
	clock Clock
}

// NewTracker builds a Tracker. A nil clock defaults to the system
// clock.
func NewTracker(store datasource.Store, clock Clock) *Tracker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Tracker{store: store, clock: clock}
}

// Active returns every open record with its elapsed seconds, oldest
// first.
func (t *Tracker) Active() []model.ActiveTiming {
	recs, err := t.store.OpenRecords()
	if err != nil {
		debug.Log("tracker: open records query failed: %v", err)
		return nil
	}
	return t.withElapsed(recs)
}

// ActiveForItem returns the open records for a single item.
func (t *Tracker) ActiveForItem(itemID string) []model.ActiveTiming {
	recs, err := t.store.OpenRecordsForItem(itemID)
	if err != nil {
		debug.Log("tracker: open records for %s query failed: %v", itemID, err)
		return nil
	}
	return t.withElapsed(recs)
}

func (t *Tracker) withElapsed(recs []model.TimingRecord) []model.ActiveTiming {
	now := t.clock.Now()
	out := make([]model.ActiveTiming, 0, len(recs))
	for _, rec := range recs {
		elapsed := now.Sub(rec.StartedAt).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		out = append(out, model.ActiveTiming{Record: rec, ElapsedSeconds: elapsed})
	}
	return out
}
