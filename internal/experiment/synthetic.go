package experiment

import "math"

// Quadratic is a smooth single-output bowl with a known maximum at the
// center of the unit box. Useful as a sanity-check oracle: any reasonable
// policy should concentrate samples near the center.
type Quadratic struct {
	dim int
}

// NewQuadratic creates a quadratic experiment on [0,1]^dim
func NewQuadratic(dim int) *Quadratic {
	if dim < 1 {
		dim = 1
	}
	return &Quadratic{dim: dim}
}

func (q *Quadratic) Name() string { return "quadratic" }

func (q *Quadratic) OutputDim() int { return 1 }

func (q *Quadratic) Bounds() [][2]float64 {
	bounds := make([][2]float64, q.dim)
	for i := range bounds {
		bounds[i] = [2]float64{0, 1}
	}
	return bounds
}

func (q *Quadratic) Evaluate(points [][]float64) ([][]float64, error) {
	if err := ValidatePoints(q.Bounds(), points); err != nil {
		return nil, err
	}
	out := make([][]float64, len(points))
	for i, p := range points {
		v := 1.0
		for _, x := range p {
			diff := x - 0.5
			v -= diff * diff
		}
		out[i] = []float64{v}
	}
	return out, nil
}

func (q *Quadratic) Optimum() ([]float64, float64) {
	x := make([]float64, q.dim)
	for i := range x {
		x[i] = 0.5
	}
	return x, 1.0
}

// TwoPhase is a two-dimensional phase-boundary oracle on [0,1]^2. The phase
// boundary is a sine curve; the response transitions smoothly across it and
// Labels reports which phase a point sits in.
type TwoPhase struct {
	// sharpness of the transition across the boundary
	steepness float64
}

// NewTwoPhase creates the sine-boundary two-phase experiment
func NewTwoPhase() *TwoPhase {
	return &TwoPhase{steepness: 20.0}
}

func (tp *TwoPhase) Name() string { return "two_phase" }

func (tp *TwoPhase) OutputDim() int { return 1 }

func (tp *TwoPhase) Bounds() [][2]float64 {
	return [][2]float64{{0, 1}, {0, 1}}
}

// boundary returns the x2 coordinate of the phase boundary at x1
func (tp *TwoPhase) boundary(x1 float64) float64 {
	return 0.5 + 0.25*math.Sin(2*math.Pi*x1)
}

func (tp *TwoPhase) Evaluate(points [][]float64) ([][]float64, error) {
	if err := ValidatePoints(tp.Bounds(), points); err != nil {
		return nil, err
	}
	out := make([][]float64, len(points))
	for i, p := range points {
		// signed distance to the boundary, squashed to (0, 1)
		d := p[1] - tp.boundary(p[0])
		out[i] = []float64{1 / (1 + math.Exp(-tp.steepness*d))}
	}
	return out, nil
}

func (tp *TwoPhase) Labels(points [][]float64) ([]int, error) {
	if err := ValidatePoints(tp.Bounds(), points); err != nil {
		return nil, err
	}
	labels := make([]int, len(points))
	for i, p := range points {
		if p[1] >= tp.boundary(p[0]) {
			labels[i] = 1
		}
	}
	return labels, nil
}
