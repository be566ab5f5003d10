package timing

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/vanderheijden86/cascadework/internal/datasource"
	"github.com/vanderheijden86/cascadework/pkg/debug"
	"github.com/vanderheijden86/cascadework/pkg/model"
	"github.com/vanderheijden86/cascadework/pkg/stage"
)

// ErrInvalidStage is returned by Start when the (from, to) pair is not
// part of the configured topology. Unlike store hiccups this is
// surfaced loudly: it signals a configuration mistake in the embedding
// application, not a transient condition.
var ErrInvalidStage = errors.New("invalid stage transition")

// Recorder opens and closes timing records around stage transitions.
type Recorder struct {
	store datasource.Store
	topo  *stage.Topology
	clock Clock
}

// NewRecorder builds a Recorder. A nil clock defaults to the system
// clock.
func NewRecorder(store datasource.Store, topo *stage.Topology, clock Clock) *Recorder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Recorder{store: store, topo: topo, clock: clock}
}

// Start opens a timing record for an item beginning the (from, to)
// transition and returns the record id. workerPID optionally links the
// worker process doing the work so stuck detection can probe its
// health later.
//
// A store failure is returned to the caller (it signals a real
// persistence problem) but must not abort the stage work itself.
func (r *Recorder) Start(itemID, fromStage, toStage string, workerPID *int) (string, error) {
	if !r.topo.ValidTransition(fromStage, toStage) {
		return "", fmt.Errorf("%w: %s->%s", ErrInvalidStage, fromStage, toStage)
	}

	rec := model.TimingRecord{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		FromStage: fromStage,
		ToStage:   toStage,
		StartedAt: r.clock.Now(),
		WorkerPID: workerPID,
	}
	if err := r.store.Insert(rec); err != nil {
		return "", fmt.Errorf("starting timing for %s: %w", itemID, err)
	}

	debug.Log("timing started: %s %s->%s (record %s)", itemID, fromStage, toStage, rec.ID)
	return rec.ID, nil
}

// Complete closes the record, computing its duration from the injected
// clock. A missing record and a duplicate completion are both logged
// no-ops: completed values are write-once and timing must never fail
// the pipeline it observes.
func (r *Recorder) Complete(timingID string, success bool, errorMessage string) error {
	rec, err := r.store.Get(timingID)
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			log.Printf("timing: complete called for unknown record %s, ignoring", timingID)
			return nil
		}
		return fmt.Errorf("completing timing %s: %w", timingID, err)
	}

	now := r.clock.Now()
	duration := now.Sub(rec.StartedAt).Seconds()

	err = r.store.Complete(timingID, now, duration, success, errorMessage)
	if err != nil {
		if errors.Is(err, datasource.ErrAlreadyCompleted) {
			log.Printf("warning: timing record %s already completed, keeping stored values", timingID)
			return nil
		}
		if errors.Is(err, datasource.ErrNotFound) {
			log.Printf("timing: record %s vanished before completion, ignoring", timingID)
			return nil
		}
		return fmt.Errorf("completing timing %s: %w", timingID, err)
	}

	debug.Log("timing completed: record %s success=%v duration=%.1fs", timingID, success, duration)
	return nil
}
