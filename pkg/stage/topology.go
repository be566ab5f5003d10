// Package stage describes the pipeline topology the monitor observes:
// which stage transitions are legal, the expected baseline duration per
// stage, and the absolute per-stage ceiling used for severity
// escalation. The monitor itself is topology-agnostic; the embedding
// application injects a Topology at construction time.
package stage

import (
	"fmt"
	"sort"
	"strings"
)

// Transition is one legal (from, to) stage pair.
type Transition struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Key renders the transition as "from->to", the form used for
// per-transition baseline overrides.
func (t Transition) Key() string {
	return t.From + "->" + t.To
}

// FallbackBaselineSeconds is used when a stage has no configured
// baseline at all. Deliberately generous: an unconfigured stage should
// not spray false stuck warnings.
const FallbackBaselineSeconds = 300.0

// FallbackMaxTimeoutSeconds caps stages with no configured ceiling.
const FallbackMaxTimeoutSeconds = 3600.0

// Topology holds the ordered legal transitions plus the timing tables
// that feed threshold and ETA computation.
type Topology struct {
	transitions []Transition
	valid       map[Transition]bool

	// stageBaselines maps stage name -> expected seconds for leaving
	// that stage. transitionBaselines maps "from->to" -> expected
	// seconds and, when present, wins over the stage table.
	stageBaselines      map[string]float64
	transitionBaselines map[string]float64
	maxTimeouts         map[string]float64
}

// Options configures a Topology. Transitions is required; the timing
// tables may be partial; lookups fall back per BaselineFor.
type Options struct {
	Transitions         []Transition
	StageBaselines      map[string]float64
	TransitionBaselines map[string]float64
	MaxTimeouts         map[string]float64
}

// New builds a validated Topology.
func New(opts Options) (*Topology, error) {
	if len(opts.Transitions) == 0 {
		return nil, fmt.Errorf("topology needs at least one transition")
	}

	valid := make(map[Transition]bool, len(opts.Transitions))
	for i, tr := range opts.Transitions {
		if strings.TrimSpace(tr.From) == "" || strings.TrimSpace(tr.To) == "" {
			return nil, fmt.Errorf("transition %d has empty stage name", i)
		}
		if tr.From == tr.To {
			return nil, fmt.Errorf("transition %d is a self-loop (%s)", i, tr.From)
		}
		if valid[tr] {
			return nil, fmt.Errorf("duplicate transition %s", tr.Key())
		}
		valid[tr] = true
	}

	for stage, secs := range opts.StageBaselines {
		if secs <= 0 {
			return nil, fmt.Errorf("baseline for stage %q must be positive, got %v", stage, secs)
		}
	}
	for key, secs := range opts.TransitionBaselines {
		if secs <= 0 {
			return nil, fmt.Errorf("baseline for transition %q must be positive, got %v", key, secs)
		}
	}
	for stage, secs := range opts.MaxTimeouts {
		if secs <= 0 {
			return nil, fmt.Errorf("max timeout for stage %q must be positive, got %v", stage, secs)
		}
	}

	return &Topology{
		transitions:         append([]Transition(nil), opts.Transitions...),
		valid:               valid,
		stageBaselines:      copyTable(opts.StageBaselines),
		transitionBaselines: copyTable(opts.TransitionBaselines),
		maxTimeouts:         copyTable(opts.MaxTimeouts),
	}, nil
}

func copyTable(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidTransition reports whether (from, to) is a configured pair.
func (t *Topology) ValidTransition(from, to string) bool {
	return t.valid[Transition{From: from, To: to}]
}

// Transitions returns the configured pairs in declaration order.
func (t *Topology) Transitions() []Transition {
	return append([]Transition(nil), t.transitions...)
}

// Stages returns every stage name that appears in the topology, sorted.
func (t *Topology) Stages() []string {
	seen := make(map[string]bool)
	for _, tr := range t.transitions {
		seen[tr.From] = true
		seen[tr.To] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// BaselineFor returns the expected seconds for the (from, to)
// transition when no history exists. A per-transition override wins
// over the per-stage table; an unconfigured stage falls back to
// FallbackBaselineSeconds.
func (t *Topology) BaselineFor(from, to string) float64 {
	if secs, ok := t.transitionBaselines[Transition{From: from, To: to}.Key()]; ok {
		return secs
	}
	return t.Baseline(from)
}

// Baseline returns the per-stage expected seconds for leaving a stage.
func (t *Topology) Baseline(stage string) float64 {
	if secs, ok := t.stageBaselines[stage]; ok {
		return secs
	}
	return FallbackBaselineSeconds
}

// MaxTimeout returns the absolute ceiling for a stage. Breaching it
// escalates a stuck item to critical; it never feeds the base
// threshold.
func (t *Topology) MaxTimeout(stage string) float64 {
	if secs, ok := t.maxTimeouts[stage]; ok {
		return secs
	}
	return FallbackMaxTimeoutSeconds
}
