// Package design provides initial-design generators used to prime a
// campaign before any surrogate model exists. Generators are addressed by
// name so campaign configuration can select them declaratively.
package design

import (
	"fmt"

	"github.com/argonlab/campaign-core/pkg/utils"
)

// Generator produces n points over the given domain. Implementations must
// be deterministic for a fixed seed.
type Generator interface {
	// Name returns the generator identifier
	Name() string

	// Generate returns n points inside bounds using the given seed
	Generate(bounds [][2]float64, n int, seed int64) ([][]float64, error)
}

// UnknownDesignError indicates an unrecognized design generator name
type UnknownDesignError struct {
	Name string
}

func (e *UnknownDesignError) Error() string {
	return fmt.Sprintf("unknown initial design: %s", e.Name)
}

// New creates a generator from its name
func New(name string) (Generator, error) {
	switch name {
	case "random":
		return &Random{}, nil
	case "latin_hypercube":
		return &LatinHypercube{}, nil
	default:
		return nil, &UnknownDesignError{Name: name}
	}
}

// Random draws points uniformly and independently from the domain
type Random struct{}

func (g *Random) Name() string { return "random" }

func (g *Random) Generate(bounds [][2]float64, n int, seed int64) ([][]float64, error) {
	if err := validate(bounds, n); err != nil {
		return nil, err
	}
	rng := utils.NewRandSource(seed)
	points := make([][]float64, n)
	for i := range points {
		points[i] = rng.UniformVector(bounds)
	}
	return points, nil
}

// LatinHypercube draws a space-filling design: each dimension is divided
// into n equal strata and every stratum is sampled exactly once, with strata
// paired across dimensions by independent permutations.
type LatinHypercube struct{}

func (g *LatinHypercube) Name() string { return "latin_hypercube" }

func (g *LatinHypercube) Generate(bounds [][2]float64, n int, seed int64) ([][]float64, error) {
	if err := validate(bounds, n); err != nil {
		return nil, err
	}
	rng := utils.NewRandSource(seed)

	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, len(bounds))
	}

	for d, b := range bounds {
		perm := rng.Perm(n)
		width := (b[1] - b[0]) / float64(n)
		for i := 0; i < n; i++ {
			// jittered sample inside stratum perm[i]
			u := rng.Float64()
			points[i][d] = b[0] + (float64(perm[i])+u)*width
		}
	}
	return points, nil
}

func validate(bounds [][2]float64, n int) error {
	if n < 1 {
		return fmt.Errorf("design size must be >= 1, got %d", n)
	}
	if len(bounds) == 0 {
		return fmt.Errorf("design requires a non-empty domain")
	}
	for i, b := range bounds {
		if b[1] <= b[0] {
			return fmt.Errorf("invalid bounds for dimension %d: [%f, %f]", i, b[0], b[1])
		}
	}
	return nil
}
