package surrogate

import (
	"fmt"
	"math"

	"github.com/argonlab/campaign-core/pkg/utils"
)

// GP is an exact Gaussian process regressor with an RBF kernel. Fitting
// standardizes the targets and selects the kernel length scale by maximizing
// the log marginal likelihood over a fixed grid; refitting from scratch each
// iteration keeps hyperparameter selection honest as the dataset grows.
type GP struct {
	x [][]float64
	y []float64

	// hyperparameter search space
	lengthScales []float64
	noiseVar     float64

	// fitted state
	lengthScale float64
	yMean       float64
	yStd        float64
	chol        [][]float64
	alpha       []float64
	logML       float64
	fitted      bool
}

// GPOption configures a GP before fitting
type GPOption func(*GP)

// WithLengthScales overrides the length-scale candidates searched during Fit
func WithLengthScales(scales []float64) GPOption {
	return func(gp *GP) {
		if len(scales) > 0 {
			gp.lengthScales = utils.CopyVector(scales)
		}
	}
}

// WithNoiseVariance overrides the observation noise variance (jitter)
func WithNoiseVariance(v float64) GPOption {
	return func(gp *GP) {
		if v > 0 {
			gp.noiseVar = v
		}
	}
}

// NewGP constructs an unfit GP over copies of the given observations
func NewGP(x [][]float64, y []float64, opts ...GPOption) *GP {
	gp := &GP{
		x:            utils.CopyMatrix(x),
		y:            utils.CopyVector(y),
		lengthScales: []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		noiseVar:     1e-6,
	}
	for _, opt := range opts {
		opt(gp)
	}
	return gp
}

// NewGPFactory returns a Factory producing GPs with the given options
func NewGPFactory(opts ...GPOption) Factory {
	return func(x [][]float64, y []float64) Model {
		return NewGP(x, y, opts...)
	}
}

// rbf computes the RBF kernel value between two points for a length scale
func rbf(x1, x2 []float64, lengthScale float64) float64 {
	var sum float64
	for i := range x1 {
		diff := x1[i] - x2[i]
		sum += diff * diff
	}
	return math.Exp(-sum / (2 * lengthScale * lengthScale))
}

// Fit selects the best length scale by log marginal likelihood and caches
// the Cholesky factor of the kernel matrix. It fails with *FitError when no
// candidate yields a positive-definite kernel matrix.
func (gp *GP) Fit() error {
	n := len(gp.x)
	if n == 0 {
		return &FitError{Reason: "no observations"}
	}
	if len(gp.y) != n {
		return &FitError{Reason: fmt.Sprintf("X has %d rows but y has %d", n, len(gp.y))}
	}

	// Standardize targets so the unit signal variance assumption holds.
	gp.yMean = utils.Mean(gp.y)
	gp.yStd = utils.StdDev(gp.y)
	if gp.yStd < 1e-12 {
		gp.yStd = 1
	}
	z := make([]float64, n)
	for i, v := range gp.y {
		z[i] = (v - gp.yMean) / gp.yStd
	}

	bestML := math.Inf(-1)
	found := false
	for _, ls := range gp.lengthScales {
		k := gp.kernelMatrix(ls)
		l, ok := cholesky(k)
		if !ok {
			continue
		}
		alpha := cholSolve(l, z)

		// log p(y) = -1/2 z^T alpha - sum log L_ii - n/2 log 2pi
		ml := 0.0
		for i := 0; i < n; i++ {
			ml -= 0.5 * z[i] * alpha[i]
			ml -= math.Log(l[i][i])
		}
		ml -= 0.5 * float64(n) * math.Log(2*math.Pi)

		if ml > bestML {
			bestML = ml
			gp.lengthScale = ls
			gp.chol = l
			gp.alpha = alpha
			found = true
		}
	}

	if !found {
		return &FitError{Reason: "kernel matrix not positive definite for any length scale"}
	}

	gp.logML = bestML
	gp.fitted = true
	return nil
}

// kernelMatrix builds K + noise*I for the given length scale
func (gp *GP) kernelMatrix(lengthScale float64) [][]float64 {
	n := len(gp.x)
	k := make([][]float64, n)
	for i := 0; i < n; i++ {
		k[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			v := rbf(gp.x[i], gp.x[j], lengthScale)
			k[i][j] = v
			k[j][i] = v
		}
		k[i][i] += gp.noiseVar
	}
	return k
}

// Predict returns the posterior mean and variance at each query point
func (gp *GP) Predict(points [][]float64) ([]float64, []float64, error) {
	if !gp.fitted {
		return nil, nil, &NotFittedError{}
	}

	mean := make([]float64, len(points))
	variance := make([]float64, len(points))
	kstar := make([]float64, len(gp.x))

	for p, pt := range points {
		if len(pt) != len(gp.x[0]) {
			return nil, nil, fmt.Errorf("query point %d has dimension %d, want %d", p, len(pt), len(gp.x[0]))
		}
		for i := range gp.x {
			kstar[i] = rbf(pt, gp.x[i], gp.lengthScale)
		}

		var mu float64
		for i := range kstar {
			mu += kstar[i] * gp.alpha[i]
		}
		mean[p] = mu*gp.yStd + gp.yMean

		// var = k(x,x) - k*^T K^-1 k*, in standardized space
		v := solveLower(gp.chol, kstar)
		varz := 1.0 + gp.noiseVar
		for i := range v {
			varz -= v[i] * v[i]
		}
		if varz < 1e-12 {
			varz = 1e-12
		}
		variance[p] = varz * gp.yStd * gp.yStd
	}

	return mean, variance, nil
}

// Params describes the fitted hyperparameters of a GP, suitable for
// iteration metadata and persistence.
type Params struct {
	LengthScale   float64 `json:"length_scale"`
	NoiseVariance float64 `json:"noise_variance"`
	LogMarginal   float64 `json:"log_marginal"`
	Observations  int     `json:"observations"`
}

// Params returns the fitted hyperparameters. Zero value before Fit.
func (gp *GP) Params() Params {
	if !gp.fitted {
		return Params{}
	}
	return Params{
		LengthScale:   gp.lengthScale,
		NoiseVariance: gp.noiseVar,
		LogMarginal:   gp.logML,
		Observations:  len(gp.x),
	}
}
