package stage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRejectsBadTopologies(t *testing.T) {
	cases := []struct {
		name string
		opts Options
	}{
		{"no transitions", Options{}},
		{"empty stage name", Options{Transitions: []Transition{{From: "", To: "b"}}}},
		{"self loop", Options{Transitions: []Transition{{From: "a", To: "a"}}}},
		{"duplicate", Options{Transitions: []Transition{{From: "a", To: "b"}, {From: "a", To: "b"}}}},
		{"negative baseline", Options{
			Transitions:    []Transition{{From: "a", To: "b"}},
			StageBaselines: map[string]float64{"a": -1},
		}},
		{"zero max timeout", Options{
			Transitions: []Transition{{From: "a", To: "b"}},
			MaxTimeouts: map[string]float64{"a": 0},
		}},
	}

	for _, tc := range cases {
		if _, err := New(tc.opts); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestValidTransition(t *testing.T) {
	topo := Default()

	if !topo.ValidTransition("idea", "prompt") {
		t.Error("idea->prompt should be valid")
	}
	if topo.ValidTransition("prompt", "idea") {
		t.Error("reversed transition should be invalid")
	}
	if topo.ValidTransition("idea", "done") {
		t.Error("stage-skipping transition should be invalid")
	}
}

func TestBaselineLookupOrder(t *testing.T) {
	topo, err := New(Options{
		Transitions:         []Transition{{From: "idea", To: "prompt"}, {From: "prompt", To: "draft"}},
		StageBaselines:      map[string]float64{"idea": 60},
		TransitionBaselines: map[string]float64{"idea->prompt": 30},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Per-transition override wins over the stage table.
	if got := topo.BaselineFor("idea", "prompt"); got != 30 {
		t.Errorf("BaselineFor(idea,prompt) = %v, want 30 (transition override)", got)
	}
	// No override: stage table.
	if got := topo.Baseline("idea"); got != 60 {
		t.Errorf("Baseline(idea) = %v, want 60", got)
	}
	// Unconfigured stage: fallback.
	if got := topo.BaselineFor("prompt", "draft"); got != FallbackBaselineSeconds {
		t.Errorf("BaselineFor(prompt,draft) = %v, want fallback %v", got, FallbackBaselineSeconds)
	}
}

func TestMaxTimeoutFallback(t *testing.T) {
	topo := Default()
	if got := topo.MaxTimeout("idea"); got != DefaultMaxTimeouts["idea"] {
		t.Errorf("MaxTimeout(idea) = %v, want %v", got, DefaultMaxTimeouts["idea"])
	}
	if got := topo.MaxTimeout("nonexistent"); got != FallbackMaxTimeoutSeconds {
		t.Errorf("MaxTimeout(nonexistent) = %v, want fallback %v", got, FallbackMaxTimeoutSeconds)
	}
}

func TestStages(t *testing.T) {
	topo := Default()
	want := []string{"done", "draft", "idea", "prompt", "review"}
	got := topo.Stages()
	if len(got) != len(want) {
		t.Fatalf("Stages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Stages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	content := `
transitions:
  - {from: idea, to: prompt}
  - {from: prompt, to: done}
baselines:
  idea: 45
transition_baselines:
  prompt->done: 90
max_timeouts:
  idea: 600
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	topo, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !topo.ValidTransition("idea", "prompt") {
		t.Error("loaded topology missing idea->prompt")
	}
	if got := topo.Baseline("idea"); got != 45 {
		t.Errorf("Baseline(idea) = %v, want 45", got)
	}
	if got := topo.BaselineFor("prompt", "done"); got != 90 {
		t.Errorf("BaselineFor(prompt,done) = %v, want 90", got)
	}
	if got := topo.MaxTimeout("idea"); got != 600 {
		t.Errorf("MaxTimeout(idea) = %v, want 600", got)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("transitions: [not a transition"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
