// Package stats computes rolling-window duration statistics for stage
// transitions. Statistics are derived on every query from completed
// records; nothing here is cached state.
package stats

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/cascadework/internal/datasource"
	"github.com/vanderheijden86/cascadework/pkg/debug"
	"github.com/vanderheijden86/cascadework/pkg/metrics"
	"github.com/vanderheijden86/cascadework/pkg/model"
	"github.com/vanderheijden86/cascadework/pkg/stage"
	"github.com/vanderheijden86/cascadework/pkg/timing"
)

// DefaultWindowDays is the rolling window used when none is configured.
const DefaultWindowDays = 30

// Engine derives StageStats from the timing store. Queries are
// best-effort: a store failure is debug-logged and reported as "no
// stats", so threshold and ETA consumers degrade instead of failing.
type Engine struct {
	store      datasource.Store
	topo       *stage.Topology
	clock      timing.Clock
	windowDays int
}

// NewEngine builds an Engine. windowDays <= 0 selects
// DefaultWindowDays; a nil clock defaults to the system clock.
func NewEngine(store datasource.Store, topo *stage.Topology, clock timing.Clock, windowDays int) *Engine {
	if clock == nil {
		clock = timing.SystemClock{}
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Engine{store: store, topo: topo, clock: clock, windowDays: windowDays}
}

// WindowDays returns the configured rolling window.
func (e *Engine) WindowDays() int {
	return e.windowDays
}

// Stats returns statistics for one stage pair over the configured
// window, or nil when there are no successful samples.
func (e *Engine) Stats(fromStage, toStage string) *model.StageStats {
	return e.StatsWindow(fromStage, toStage, e.windowDays)
}

// StatsWindow is Stats with an explicit window.
func (e *Engine) StatsWindow(fromStage, toStage string, windowDays int) *model.StageStats {
	defer metrics.Timer(metrics.StatsCompute)()

	now := e.clock.Now()
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	recs, err := e.store.CompletedInWindow(fromStage, toStage, since, now)
	if err != nil {
		debug.Log("stats: window query %s->%s failed: %v", fromStage, toStage, err)
		return nil
	}

	// Durations come from successful completions only; the success
	// rate is computed over everything that completed in the window.
	var durations []float64
	completed := 0
	succeeded := 0
	for _, rec := range recs {
		if rec.CompletedAt == nil || rec.DurationSeconds == nil {
			continue
		}
		completed++
		if rec.Success {
			succeeded++
			durations = append(durations, *rec.DurationSeconds)
		}
	}
	if len(durations) == 0 {
		return nil
	}

	// The store returns records duration-ascending, and filtering
	// preserves that order, so durations is already sorted.
	successRate := 1.0
	if completed > 0 {
		successRate = float64(succeeded) / float64(completed)
	}

	return &model.StageStats{
		FromStage:     fromStage,
		ToStage:       toStage,
		Count:         len(durations),
		AvgSeconds:    stat.Mean(durations, nil),
		MedianSeconds: median(durations),
		P95Seconds:    percentile(durations, 95),
		MinSeconds:    durations[0],
		MaxSeconds:    durations[len(durations)-1],
		SuccessRate:   successRate,
	}
}

// AllStats returns statistics for every configured transition that has
// samples, in topology order.
func (e *Engine) AllStats() []model.StageStats {
	var out []model.StageStats
	for _, tr := range e.topo.Transitions() {
		if s := e.Stats(tr.From, tr.To); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// median implements the standard median rule: the middle element for
// odd n, the average of the two middle elements for even n. This is
// deliberately not the clamped-index rule used for other percentiles.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// percentile picks index floor(n*p/100), clamped to the valid range.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p / 100))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}
