package recommend

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weight bounds for the optimizer and for loaded config: no algorithm
// is ever silenced entirely, and none may dominate the ensemble.
const (
	MinAlgorithmWeight = 0.02
	MaxAlgorithmWeight = 0.40
)

// Weights maps algorithm name to its ensemble weight. Weights need not
// sum to 1; combined scores are clamped after summation.
type Weights map[string]float64

// DefaultWeights favor the mastery-aware algorithms; mastery_progression
// carries the single largest weight because progression-correctness
// matters more than popularity signals.
func DefaultWeights() Weights {
	return Weights{
		AlgProgression:    0.20,
		AlgSkillGap:       0.15,
		AlgPrerequisite:   0.15,
		AlgContentBased:   0.12,
		AlgExternalOracle: 0.12,
		AlgCollaborative:  0.10,
		AlgTemporal:       0.08,
		AlgSocial:         0.08,
	}
}

// Clamp bounds every weight to [MinAlgorithmWeight, MaxAlgorithmWeight].
func (w Weights) Clamp() Weights {
	out := make(Weights, len(w))
	for name, v := range w {
		if v < MinAlgorithmWeight {
			v = MinAlgorithmWeight
		}
		if v > MaxAlgorithmWeight {
			v = MaxAlgorithmWeight
		}
		out[name] = v
	}
	return out
}

// Clone returns a copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for name, v := range w {
		out[name] = v
	}
	return out
}

// LoadWeights reads a YAML file mapping algorithm names to weights,
// overlaying the defaults. Unknown algorithm names are rejected so a
// typo cannot silently drop a configured weight.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}

	var loaded map[string]float64
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse weights file: %w", err)
	}

	known := make(map[string]bool, len(AllAlgorithms))
	for _, name := range AllAlgorithms {
		known[name] = true
	}

	w := DefaultWeights()
	for name, v := range loaded {
		if !known[name] {
			return nil, fmt.Errorf("unknown algorithm %q in weights file", name)
		}
		w[name] = v
	}
	return w.Clamp(), nil
}
