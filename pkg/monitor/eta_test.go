package monitor

import (
	"testing"

	"github.com/vanderheijden86/cascadework/internal/datasource"
	"github.com/vanderheijden86/cascadework/pkg/stats"
	"github.com/vanderheijden86/cascadework/pkg/testutil"
)

func newEstimator(t *testing.T) (*Estimator, *testutil.Seeder) {
	t.Helper()
	topo := newTestTopology(t)
	store := datasource.NewMemoryStore()
	clock := testutil.NewClock(testNow)
	engine := stats.NewEngine(store, topo, clock, 0)
	return NewEstimator(engine, topo), testutil.NewSeeder(t, store)
}

func TestRemainingNoHistoryUsesBaseline(t *testing.T) {
	est, _ := newEstimator(t)

	// idea baseline is 60s.
	got, ok := est.Remaining("idea", "prompt", 20)
	if !ok || got != 40 {
		t.Errorf("Remaining(20s elapsed) = %v, %v; want 40, true", got, ok)
	}
}

func TestRemainingNoHistoryBaselineSpent(t *testing.T) {
	est, _ := newEstimator(t)

	if _, ok := est.Remaining("idea", "prompt", 60); ok {
		t.Error("Remaining at baseline should give no estimate")
	}
	if _, ok := est.Remaining("idea", "prompt", 500); ok {
		t.Error("Remaining past baseline should give no estimate")
	}
}

func TestRemainingWithHistory(t *testing.T) {
	est, seed := newEstimator(t)
	// median 30, p95 50.
	seed.CompletedBatch("idea", "prompt", []float64{10, 20, 30, 40, 50}, testNow)

	got, ok := est.Remaining("idea", "prompt", 10)
	if !ok || got != 20 {
		t.Errorf("Remaining(10s) = %v, %v; want 20 (median 30 minus elapsed), true", got, ok)
	}
}

func TestRemainingPastMedianAimsForP95(t *testing.T) {
	est, seed := newEstimator(t)
	seed.CompletedBatch("idea", "prompt", []float64{10, 20, 30, 40, 50}, testNow)

	got, ok := est.Remaining("idea", "prompt", 40)
	if !ok || got != 10 {
		t.Errorf("Remaining(40s) = %v, %v; want 10 (p95 50 minus elapsed), true", got, ok)
	}
}

func TestRemainingPastCeilingGivesNone(t *testing.T) {
	est, seed := newEstimator(t)
	seed.CompletedBatch("idea", "prompt", []float64{10, 20, 30, 40, 50}, testNow)

	if _, ok := est.Remaining("idea", "prompt", 50); ok {
		t.Error("Remaining at p95 should give no estimate")
	}
	if _, ok := est.Remaining("idea", "prompt", 30); ok {
		t.Error("Remaining exactly at median should give no estimate, not zero")
	}
	if got, ok := est.Remaining("idea", "prompt", 1000); ok || got < 0 {
		t.Errorf("Remaining far past ceiling = %v, %v; want 0, false", got, ok)
	}
}
