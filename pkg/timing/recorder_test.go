package timing

import (
	"errors"
	"testing"
	"time"

	"github.com/vanderheijden86/cascadework/internal/datasource"
	"github.com/vanderheijden86/cascadework/pkg/stage"
	"github.com/vanderheijden86/cascadework/pkg/testutil"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newRecorder(t *testing.T) (*Recorder, *datasource.MemoryStore, *testutil.Clock) {
	t.Helper()
	store := datasource.NewMemoryStore()
	clock := testutil.NewClock(testStart)
	return NewRecorder(store, stage.Default(), clock), store, clock
}

func TestStartCreatesOpenRecord(t *testing.T) {
	rec, store, _ := newRecorder(t)

	pid := 1234
	id, err := rec.Start("item-1", "idea", "prompt", &pid)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if id == "" {
		t.Fatal("Start returned empty id")
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Open() {
		t.Error("started record should be open")
	}
	if !got.StartedAt.Equal(testStart) {
		t.Errorf("StartedAt = %v, want clock time %v", got.StartedAt, testStart)
	}
	if got.WorkerPID == nil || *got.WorkerPID != 1234 {
		t.Errorf("worker pid not recorded: %+v", got.WorkerPID)
	}
}

func TestStartRejectsUnknownTransition(t *testing.T) {
	rec, _, _ := newRecorder(t)

	_, err := rec.Start("item-1", "idea", "done", nil)
	if !errors.Is(err, ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage, got %v", err)
	}
	_, err = rec.Start("item-1", "bogus", "prompt", nil)
	if !errors.Is(err, ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage for unknown stage, got %v", err)
	}
}

func TestCompleteComputesDuration(t *testing.T) {
	rec, store, clock := newRecorder(t)

	id, err := rec.Start("item-1", "idea", "prompt", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	clock.Advance(90 * time.Second)
	if err := rec.Complete(id, true, ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Open() {
		t.Fatal("record should be completed")
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 90 {
		t.Errorf("duration = %v, want 90", got.DurationSeconds)
	}
	if !got.Success {
		t.Error("success flag not set")
	}
}

func TestCompleteFailureRecordsMessage(t *testing.T) {
	rec, store, clock := newRecorder(t)

	id, _ := rec.Start("item-1", "idea", "prompt", nil)
	clock.Advance(10 * time.Second)
	if err := rec.Complete(id, false, "agent crashed"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, _ := store.Get(id)
	if got.Success {
		t.Error("failed completion marked successful")
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "agent crashed" {
		t.Errorf("error message = %v, want 'agent crashed'", got.ErrorMessage)
	}
}

func TestCompleteUnknownRecordIsNoOp(t *testing.T) {
	rec, _, _ := newRecorder(t)

	if err := rec.Complete("no-such-record", true, ""); err != nil {
		t.Errorf("Complete for unknown record should be a no-op, got %v", err)
	}
}

func TestCompleteTwiceKeepsFirstValues(t *testing.T) {
	rec, store, clock := newRecorder(t)

	id, _ := rec.Start("item-1", "idea", "prompt", nil)
	clock.Advance(60 * time.Second)
	if err := rec.Complete(id, true, ""); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}

	clock.Advance(300 * time.Second)
	if err := rec.Complete(id, false, "late duplicate"); err != nil {
		t.Errorf("duplicate Complete should be a logged no-op, got %v", err)
	}

	got, _ := store.Get(id)
	if got.DurationSeconds == nil || *got.DurationSeconds != 60 {
		t.Errorf("duration changed by duplicate completion: %v", got.DurationSeconds)
	}
	if !got.Success {
		t.Error("success changed by duplicate completion")
	}
	if got.ErrorMessage != nil {
		t.Errorf("error message changed by duplicate completion: %v", *got.ErrorMessage)
	}
}
