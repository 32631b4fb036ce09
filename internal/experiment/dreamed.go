package experiment

import (
	"fmt"

	"github.com/argonlab/campaign-core/internal/surrogate"
)

// Dreamed is an oracle created from data alone: a surrogate is fit to the
// seed dataset and its posterior mean becomes the ground truth. This gives a
// smooth, realistic synthetic function that resembles the measured system.
type Dreamed struct {
	model  surrogate.Model
	bounds [][2]float64
}

// NewDreamed fits the factory's model to the seed data and wraps its
// posterior mean as an experiment. Fails when fitting fails.
func NewDreamed(x [][]float64, y []float64, bounds [][2]float64, factory surrogate.Factory) (*Dreamed, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("dreamed experiment requires seed data")
	}
	if len(bounds) != len(x[0]) {
		return nil, fmt.Errorf("dreamed experiment: bounds have %d dims but X has %d", len(bounds), len(x[0]))
	}

	model := factory(x, y)
	if err := model.Fit(); err != nil {
		return nil, fmt.Errorf("fitting dreamed experiment: %w", err)
	}

	return &Dreamed{model: model, bounds: bounds}, nil
}

func (e *Dreamed) Name() string { return "dreamed" }

func (e *Dreamed) OutputDim() int { return 1 }

func (e *Dreamed) Bounds() [][2]float64 { return e.bounds }

func (e *Dreamed) Evaluate(points [][]float64) ([][]float64, error) {
	if err := ValidatePoints(e.bounds, points); err != nil {
		return nil, err
	}
	mean, _, err := e.model.Predict(points)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(points))
	for i, m := range mean {
		out[i] = []float64{m}
	}
	return out, nil
}
