package stats

import (
	"sort"
	"testing"

	"pgregory.net/rapid"
)

func TestPercentilePropertiesRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		durations := rapid.SliceOfN(rapid.Float64Range(0, 1e6), 1, 200).Draw(t, "durations")
		sort.Float64s(durations)

		med := median(durations)
		p95 := percentile(durations, 95)
		lo := durations[0]
		hi := durations[len(durations)-1]

		if med < lo || med > hi {
			t.Fatalf("median %v outside [%v, %v]", med, lo, hi)
		}
		if p95 < lo || p95 > hi {
			t.Fatalf("p95 %v outside [%v, %v]", p95, lo, hi)
		}
		if p95 < med && len(durations) > 1 {
			// The clamped-index p95 picks at least the middle element,
			// so it can never fall below the median.
			t.Fatalf("p95 %v below median %v for n=%d", p95, med, len(durations))
		}
		if p0 := percentile(durations, 0); p0 != lo {
			t.Fatalf("p0 = %v, want min %v", p0, lo)
		}
		if p100 := percentile(durations, 100); p100 != hi {
			t.Fatalf("p100 = %v, want max %v", p100, hi)
		}
	})
}
