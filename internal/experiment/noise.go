package experiment

import (
	"fmt"

	"github.com/argonlab/campaign-core/pkg/utils"
)

// Noisy wraps an experiment with additive Gaussian observation noise. The
// wrapper owns its own seeded source so noise draws never perturb the design
// or optimizer randomness.
type Noisy struct {
	inner Experiment
	scale []float64
	rng   *utils.RandSource
}

// NewNoisy wraps inner with per-output noise scales. A single scale is
// broadcast across all outputs.
func NewNoisy(inner Experiment, scale []float64, seed int64) (*Noisy, error) {
	switch len(scale) {
	case 1:
		broadcast := make([]float64, inner.OutputDim())
		for i := range broadcast {
			broadcast[i] = scale[0]
		}
		scale = broadcast
	case inner.OutputDim():
		scale = utils.CopyVector(scale)
	default:
		return nil, fmt.Errorf("noise scale has %d entries, want 1 or %d", len(scale), inner.OutputDim())
	}
	for _, s := range scale {
		if s < 0 {
			return nil, fmt.Errorf("noise scale cannot be negative, got %f", s)
		}
	}
	return &Noisy{inner: inner, scale: scale, rng: utils.NewRandSource(seed)}, nil
}

func (e *Noisy) Name() string { return e.inner.Name() + "+noise" }

func (e *Noisy) OutputDim() int { return e.inner.OutputDim() }

func (e *Noisy) Bounds() [][2]float64 { return e.inner.Bounds() }

func (e *Noisy) Evaluate(points [][]float64) ([][]float64, error) {
	out, err := e.inner.Evaluate(points)
	if err != nil {
		return nil, err
	}
	for _, row := range out {
		for c := range row {
			row[c] += e.rng.NormFloat64(0, e.scale[c])
		}
	}
	return out, nil
}

// Labels delegates to the wrapped experiment when it is Labeled
func (e *Noisy) Labels(points [][]float64) ([]int, error) {
	labeled, ok := e.inner.(Labeled)
	if !ok {
		return nil, fmt.Errorf("experiment %s has no labels", e.inner.Name())
	}
	return labeled.Labels(points)
}
