// Package surrogate provides probabilistic regression models used to guide
// sequential experiment campaigns. A model is fit to the full observation
// history collected so far and queried for posterior mean and variance at
// candidate points.
package surrogate

// Model is the surrogate contract consumed by acquisition policies.
type Model interface {
	// Fit trains the model on the data it was constructed with.
	// It fails with *FitError when the underlying numerics do not converge.
	Fit() error

	// Predict returns the posterior mean and variance at each query point.
	// The model must be fit first.
	Predict(points [][]float64) (mean []float64, variance []float64, err error)
}

// Factory builds a fresh, unfit model from the accumulated observations.
// Policies invoke the factory once per iteration; the model is always refit
// from scratch on the full history rather than updated incrementally.
type Factory func(X [][]float64, y []float64) Model

// FitError indicates that model fitting failed to converge
type FitError struct {
	Reason string
}

func (e *FitError) Error() string {
	return "surrogate fit failed: " + e.Reason
}

// NotFittedError indicates Predict was called before a successful Fit
type NotFittedError struct{}

func (e *NotFittedError) Error() string {
	return "surrogate model is not fitted"
}
