package monitor

import (
	"github.com/vanderheijden86/cascadework/pkg/stage"
	"github.com/vanderheijden86/cascadework/pkg/stats"
)

// Estimator predicts remaining time for an in-flight transition from
// historical medians, falling back to the configured baseline when no
// history exists.
type Estimator struct {
	engine *stats.Engine
	topo   *stage.Topology
}

// NewEstimator builds an Estimator over the given stats engine and
// topology.
func NewEstimator(engine *stats.Engine, topo *stage.Topology) *Estimator {
	return &Estimator{engine: engine, topo: topo}
}

// Remaining estimates seconds left for a transition that has been
// running for elapsedSeconds. The second return is false when no
// estimate can be given: either the baseline is already spent with no
// history to extrapolate from, or elapsed time has passed the p95
// ceiling of the history we do have.
//
// The estimate is never negative.
func (e *Estimator) Remaining(fromStage, toStage string, elapsedSeconds float64) (float64, bool) {
	s := e.engine.Stats(fromStage, toStage)
	if s == nil {
		baseline := e.topo.BaselineFor(fromStage, toStage)
		if elapsedSeconds >= baseline {
			return 0, false
		}
		return baseline - elapsedSeconds, true
	}

	remaining := s.MedianSeconds - elapsedSeconds
	if elapsedSeconds > s.MedianSeconds {
		// Past the typical duration; assume a slow run and aim for
		// the p95 ceiling instead.
		remaining = s.P95Seconds - elapsedSeconds
	}
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}
