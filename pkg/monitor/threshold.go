// Package monitor classifies in-flight stage transitions: adaptive
// stuck thresholds from historical medians, severity-graded stuck
// detection cross-referenced with worker process health, remaining-time
// estimation, and opt-in cleanup of critically stuck items.
package monitor

import (
	"github.com/vanderheijden86/cascadework/pkg/stage"
	"github.com/vanderheijden86/cascadework/pkg/stats"
)

// DefaultMultiplier scales the historical median (or baseline) into
// the stuck threshold.
const DefaultMultiplier = 2.0

// DefaultMinSamples is how much history a transition needs before its
// median replaces the configured baseline.
const DefaultMinSamples = 3

// ThresholdPolicy derives the stuck cutoff for each transition.
type ThresholdPolicy struct {
	engine     *stats.Engine
	topo       *stage.Topology
	multiplier float64
	minSamples int
}

// ThresholdOptions tunes a ThresholdPolicy. Zero values select the
// defaults.
type ThresholdOptions struct {
	Multiplier float64
	MinSamples int
}

// NewThresholdPolicy builds a policy over the stats engine and
// topology.
func NewThresholdPolicy(engine *stats.Engine, topo *stage.Topology, opts ThresholdOptions) *ThresholdPolicy {
	if opts.Multiplier <= 0 {
		opts.Multiplier = DefaultMultiplier
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = DefaultMinSamples
	}
	return &ThresholdPolicy{
		engine:     engine,
		topo:       topo,
		multiplier: opts.Multiplier,
		minSamples: opts.MinSamples,
	}
}

// Threshold returns the stuck cutoff in seconds for a transition:
// historical median × multiplier once enough samples exist, otherwise
// the configured baseline × multiplier.
func (p *ThresholdPolicy) Threshold(fromStage, toStage string) float64 {
	if s := p.engine.Stats(fromStage, toStage); s != nil && s.Count >= p.minSamples {
		return s.MedianSeconds * p.multiplier
	}
	return p.topo.BaselineFor(fromStage, toStage) * p.multiplier
}

// MaxTimeout returns the absolute per-stage ceiling. It escalates
// severity only; it never feeds the base threshold.
func (p *ThresholdPolicy) MaxTimeout(fromStage string) float64 {
	return p.topo.MaxTimeout(fromStage)
}
