// Package experiment defines the ground-truth oracle contract consumed by
// campaigns, together with a set of synthetic oracles useful for testing and
// benchmarking acquisition policies.
package experiment

import (
	"fmt"

	"github.com/argonlab/campaign-core/pkg/utils"
)

// Experiment is a source of truth for a campaign. Implementations are
// stateless with respect to the campaign: Evaluate is a pure function of the
// candidate points (up to configured observation noise).
type Experiment interface {
	// Name returns the experiment identifier
	Name() string

	// Bounds returns the experimental domain, one [min, max] pair per
	// input dimension
	Bounds() [][2]float64

	// OutputDim returns the number of response outputs per point
	OutputDim() int

	// Evaluate measures the given points and returns one response row per
	// point, aligned by index
	Evaluate(points [][]float64) ([][]float64, error)
}

// Labeled is implemented by experiments that expose a known auxiliary class
// label per point (e.g. the phase of a phase-boundary oracle).
type Labeled interface {
	Labels(points [][]float64) ([]int, error)
}

// OptimumAware is implemented by experiments with a known optimum, used for
// evaluating campaign performance.
type OptimumAware interface {
	Optimum() (x []float64, value float64)
}

// UnknownExperimentError indicates an unrecognized experiment name
type UnknownExperimentError struct {
	Name string
}

func (e *UnknownExperimentError) Error() string {
	return fmt.Sprintf("unknown experiment: %s", e.Name)
}

// New creates a built-in experiment from its name
func New(name string) (Experiment, error) {
	switch name {
	case "quadratic":
		return NewQuadratic(2), nil
	case "two_phase":
		return NewTwoPhase(), nil
	default:
		return nil, &UnknownExperimentError{Name: name}
	}
}

// ValidatePoints checks that every point matches the domain dimensionality.
// Points slightly outside the bounds are accepted; the acquisition optimizer
// already projects its candidates into the box.
func ValidatePoints(bounds [][2]float64, points [][]float64) error {
	for i, p := range points {
		if len(p) != len(bounds) {
			return fmt.Errorf("point %d has dimension %d, want %d", i, len(p), len(bounds))
		}
	}
	return nil
}

// RandomPoints draws n points uniformly from the experiment's domain using
// the given seed.
func RandomPoints(exp Experiment, n int, seed int64) [][]float64 {
	rng := utils.NewRandSource(seed)
	bounds := exp.Bounds()
	points := make([][]float64, n)
	for i := range points {
		points[i] = rng.UniformVector(bounds)
	}
	return points
}

// DenseGrid returns a dense cartesian grid over the bounds with ppd points
// per dimension. Used for visualization and posterior replay, not by the
// campaign loop itself.
func DenseGrid(bounds [][2]float64, ppd int) [][]float64 {
	if ppd < 2 || len(bounds) == 0 {
		return nil
	}

	d := len(bounds)
	axes := make([][]float64, d)
	for i, b := range bounds {
		axis := make([]float64, ppd)
		step := (b[1] - b[0]) / float64(ppd-1)
		for j := 0; j < ppd; j++ {
			axis[j] = b[0] + float64(j)*step
		}
		axes[i] = axis
	}

	total := 1
	for range axes {
		total *= ppd
	}

	grid := make([][]float64, total)
	for idx := 0; idx < total; idx++ {
		point := make([]float64, d)
		rem := idx
		// last dimension varies fastest
		for i := d - 1; i >= 0; i-- {
			point[i] = axes[i][rem%ppd]
			rem /= ppd
		}
		grid[idx] = point
	}
	return grid
}
