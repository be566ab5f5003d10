package stage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileTopology is the YAML shape for topology files:
//
//	transitions:
//	  - {from: idea, to: prompt}
//	  - {from: prompt, to: draft}
//	baselines:
//	  idea: 60
//	  prompt: 300
//	transition_baselines:
//	  idea->prompt: 30
//	max_timeouts:
//	  idea: 1800
type fileTopology struct {
	Transitions         []Transition       `yaml:"transitions"`
	Baselines           map[string]float64 `yaml:"baselines,omitempty"`
	TransitionBaselines map[string]float64 `yaml:"transition_baselines,omitempty"`
	MaxTimeouts         map[string]float64 `yaml:"max_timeouts,omitempty"`
}

// LoadFile reads a Topology from a YAML file.
func LoadFile(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology file: %w", err)
	}

	var ft fileTopology
	if err := yaml.Unmarshal(data, &ft); err != nil {
		return nil, fmt.Errorf("parsing topology file %s: %w", path, err)
	}

	topo, err := New(Options{
		Transitions:         ft.Transitions,
		StageBaselines:      ft.Baselines,
		TransitionBaselines: ft.TransitionBaselines,
		MaxTimeouts:         ft.MaxTimeouts,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid topology in %s: %w", path, err)
	}
	return topo, nil
}
