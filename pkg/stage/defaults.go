package stage

// The knowledge cascade the stock tooling ships with. Embedders with a
// different pipeline build their own Topology (or load one from YAML)
// instead of using these.
var DefaultTransitions = []Transition{
	{From: "idea", To: "prompt"},
	{From: "prompt", To: "draft"},
	{From: "draft", To: "review"},
	{From: "review", To: "done"},
}

// DefaultStageBaselines is the per-stage expected-seconds table.
//
// The historical tooling carried two disagreeing default tables: this
// per-stage one (idea=60s) and the older per-transition table below
// (idea->prompt=30s). They are kept as two separately named tables so
// an embedder chooses explicitly; when both are configured, the
// per-transition entry wins (see Topology.BaselineFor).
var DefaultStageBaselines = map[string]float64{
	"idea":   60,
	"prompt": 300,
	"draft":  600,
	"review": 300,
}

// DefaultTransitionBaselines is the older per-transition table. Not
// applied by Default(); pass it via Options.TransitionBaselines to
// restore the legacy behavior.
var DefaultTransitionBaselines = map[string]float64{
	"idea->prompt":  30,
	"prompt->draft": 240,
	"draft->review": 480,
	"review->done":  120,
}

// DefaultMaxTimeouts is the absolute per-stage ceiling table.
var DefaultMaxTimeouts = map[string]float64{
	"idea":   1800,
	"prompt": 3600,
	"draft":  7200,
	"review": 3600,
}

// Default returns the stock cascade topology using the per-stage
// baseline table.
func Default() *Topology {
	t, err := New(Options{
		Transitions:    DefaultTransitions,
		StageBaselines: DefaultStageBaselines,
		MaxTimeouts:    DefaultMaxTimeouts,
	})
	if err != nil {
		// The default tables are static; a construction failure is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return t
}
