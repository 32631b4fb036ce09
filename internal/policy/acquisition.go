package policy

import (
	"math"

	"github.com/argonlab/campaign-core/internal/surrogate"
	"github.com/argonlab/campaign-core/pkg/utils"
)

// acquisitionFunc scores a single candidate from its posterior mean and
// variance. Campaigns maximize the objective, so higher scores mark more
// promising candidates.
type acquisitionFunc func(mean, variance float64) float64

// normalCDF computes the standard normal cumulative distribution at x
func normalCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// normalPDF computes the standard normal density at x
func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2.0) / math.Sqrt(2.0*math.Pi)
}

// bindCriterion builds the scoring function for a fitted surrogate.
// bestObserved is the incumbent value used by EI and PI; rng drives
// Thompson sampling draws.
func bindCriterion(spec AcquisitionSpec, bestObserved float64, rng *utils.RandSource) acquisitionFunc {
	switch spec.Criterion {
	case CriterionEI:
		return func(mean, variance float64) float64 {
			sigma := math.Sqrt(variance)
			if sigma < 1e-12 {
				return 0
			}
			improvement := mean - bestObserved - spec.Parameter
			z := improvement / sigma
			return improvement*normalCDF(z) + sigma*normalPDF(z)
		}
	case CriterionPI:
		return func(mean, variance float64) float64 {
			sigma := math.Sqrt(variance)
			if sigma < 1e-12 {
				return 0
			}
			return normalCDF((mean - bestObserved - spec.Parameter) / sigma)
		}
	case CriterionTS:
		return func(mean, variance float64) float64 {
			return mean + math.Sqrt(variance)*rng.NormFloat64(0, 1)
		}
	default: // CriterionUCB
		return func(mean, variance float64) float64 {
			return mean + spec.Parameter*math.Sqrt(variance)
		}
	}
}

// scorePoints evaluates the acquisition at each point through the surrogate
func scorePoints(model surrogate.Model, acq acquisitionFunc, points [][]float64) ([]float64, error) {
	mean, variance, err := model.Predict(points)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(points))
	for i := range points {
		scores[i] = acq(mean[i], variance[i])
	}
	return scores, nil
}
