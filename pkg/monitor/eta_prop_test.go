package monitor

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

// Remaining must never be negative, must report zero alongside a
// no-estimate result, and any estimate it does give must land exactly
// on one of its targets: the baseline without history, the median or
// p95 with it.
func TestRemainingInvariantsRapid(t *testing.T) {
	est, seed := newEstimator(t)
	// median 30, p95 50 for idea->prompt; prompt->draft has no history
	// and a 300s baseline.
	seed.CompletedBatch("idea", "prompt", []float64{10, 20, 30, 40, 50}, testNow)

	rapid.Check(t, func(t *rapid.T) {
		elapsed := rapid.Float64Range(0, 10000).Draw(t, "elapsed")

		if rapid.Bool().Draw(t, "useBaselinePair") {
			remaining, ok := est.Remaining("prompt", "draft", elapsed)
			if remaining < 0 {
				t.Fatalf("Remaining = %v, negative", remaining)
			}
			if !ok {
				if remaining != 0 {
					t.Fatalf("no-estimate result should carry zero, got %v", remaining)
				}
				if elapsed < 300 {
					t.Fatalf("estimate missing with %v of the 300s baseline unspent", 300-elapsed)
				}
				return
			}
			if got := elapsed + remaining; !near(got, 300) {
				t.Fatalf("baseline estimate should aim at 300s, elapsed+remaining = %v", got)
			}
			return
		}

		remaining, ok := est.Remaining("idea", "prompt", elapsed)
		if remaining < 0 {
			t.Fatalf("Remaining = %v, negative", remaining)
		}
		if !ok {
			if remaining != 0 {
				t.Fatalf("no-estimate result should carry zero, got %v", remaining)
			}
			return
		}
		if got := elapsed + remaining; !near(got, 30) && !near(got, 50) {
			t.Fatalf("estimate should aim at the median (30) or p95 (50), elapsed+remaining = %v", got)
		}
	})
}

func near(got, want float64) bool {
	return math.Abs(got-want) < 1e-6
}
