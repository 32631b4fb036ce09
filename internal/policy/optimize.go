package policy

import (
	"math"
	"sort"
	"sync"

	"github.com/argonlab/campaign-core/internal/surrogate"
	"github.com/argonlab/campaign-core/pkg/utils"
)

// OptimizationError indicates the acquisition optimizer could not produce a
// finite-scoring candidate within its restart/sample budget.
type OptimizationError struct {
	Reason string
}

func (e *OptimizationError) Error() string {
	return "acquisition optimization failed: " + e.Reason
}

const (
	// local ascent limits
	maxAscentSteps  = 60
	initialStepFrac = 0.05
	minStepFrac     = 1e-7
	gradientEps     = 1e-5
)

// optimizeAcquisition runs the multi-start search over the acquisition
// surface: rawSamples uniform seeds are scored through the surrogate, the
// numRestarts most promising become starting points for projected gradient
// ascent with a numerically estimated gradient, and the best refined point
// wins. Restarts run in parallel; each one only reads the fitted surrogate
// and the bounds, and all randomness is drawn up front from rng, so results
// are deterministic for a fixed seed.
func optimizeAcquisition(
	model surrogate.Model,
	acq acquisitionFunc,
	bounds [][2]float64,
	rawSamples, numRestarts int,
	ascend bool,
	rng *utils.RandSource,
) ([]float64, float64, error) {
	seeds := make([][]float64, rawSamples)
	for i := range seeds {
		seeds[i] = rng.UniformVector(bounds)
	}

	scores, err := scorePoints(model, acq, seeds)
	if err != nil {
		return nil, 0, &OptimizationError{Reason: err.Error()}
	}

	// Rank seeds by score, finite scores only.
	order := make([]int, 0, len(seeds))
	for i, s := range scores {
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return nil, 0, &OptimizationError{Reason: "no finite-scoring seed among raw samples"}
	}
	sort.Slice(order, func(a, b int) bool {
		if scores[order[a]] == scores[order[b]] {
			return order[a] < order[b]
		}
		return scores[order[a]] > scores[order[b]]
	})
	if numRestarts < len(order) {
		order = order[:numRestarts]
	}

	// Stochastic criteria (Thompson sampling) have no stable surface to
	// ascend; the best seed is the answer.
	if !ascend {
		best := order[0]
		return utils.CopyVector(seeds[best]), scores[best], nil
	}

	type restart struct {
		point []float64
		score float64
	}
	results := make([]restart, len(order))

	var wg sync.WaitGroup
	for r, idx := range order {
		wg.Add(1)
		go func(slot int, start []float64, startScore float64) {
			defer wg.Done()
			point, score := ascendFrom(model, acq, bounds, start, startScore)
			results[slot] = restart{point: point, score: score}
		}(r, seeds[idx], scores[idx])
	}
	wg.Wait()

	bestScore := math.Inf(-1)
	var bestPoint []float64
	for _, r := range results {
		if r.point == nil || math.IsNaN(r.score) || math.IsInf(r.score, 0) {
			continue
		}
		if r.score > bestScore {
			bestScore = r.score
			bestPoint = r.point
		}
	}
	if bestPoint == nil {
		return nil, 0, &OptimizationError{Reason: "all restarts diverged"}
	}
	return bestPoint, bestScore, nil
}

// ascendFrom runs projected gradient ascent from a single start point.
// The gradient is estimated by central differences; the step length adapts
// by backtracking and every iterate is projected back into the bounds.
func ascendFrom(model surrogate.Model, acq acquisitionFunc, bounds [][2]float64, start []float64, startScore float64) ([]float64, float64) {
	d := len(bounds)
	current := utils.CopyVector(start)
	currentScore := startScore
	stepFrac := initialStepFrac

	grad := make([]float64, d)
	probe := make([][]float64, 0, 2*d+1)

	for step := 0; step < maxAscentSteps && stepFrac > minStepFrac; step++ {
		// Central-difference gradient, one batched prediction.
		probe = probe[:0]
		for i := 0; i < d; i++ {
			h := gradientEps * (bounds[i][1] - bounds[i][0])
			lo := utils.CopyVector(current)
			hi := utils.CopyVector(current)
			lo[i] = utils.Clamp(lo[i]-h, bounds[i][0], bounds[i][1])
			hi[i] = utils.Clamp(hi[i]+h, bounds[i][0], bounds[i][1])
			probe = append(probe, lo, hi)
		}
		probeScores, err := scorePoints(model, acq, probe)
		if err != nil {
			return nil, 0
		}

		norm := 0.0
		for i := 0; i < d; i++ {
			loPt, hiPt := probe[2*i], probe[2*i+1]
			span := hiPt[i] - loPt[i]
			if span == 0 {
				grad[i] = 0
				continue
			}
			grad[i] = (probeScores[2*i+1] - probeScores[2*i]) / span
			norm += grad[i] * grad[i]
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			break
		}

		// Candidate step along the normalized gradient, scaled per
		// dimension by the domain width.
		candidate := make([]float64, d)
		for i := 0; i < d; i++ {
			width := bounds[i][1] - bounds[i][0]
			candidate[i] = utils.Clamp(current[i]+stepFrac*width*grad[i]/norm, bounds[i][0], bounds[i][1])
		}

		candScores, err := scorePoints(model, acq, [][]float64{candidate})
		if err != nil {
			return nil, 0
		}
		if candScores[0] > currentScore {
			current = candidate
			currentScore = candScores[0]
			stepFrac *= 1.2
		} else {
			stepFrac *= 0.5
		}
	}

	return current, currentScore
}
