package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/argonlab/campaign-core/pkg/utils"
)

// KNN is an oracle fit from an existing dataset: evaluating a point returns
// the average response of its k nearest recorded neighbours. This turns any
// measured dataset into a reusable ground-truth function.
type KNN struct {
	x      [][]float64
	y      [][]float64
	k      int
	bounds [][2]float64
}

// NewKNN builds a k-nearest-neighbour oracle over copies of the dataset
func NewKNN(x [][]float64, y [][]float64, k int, bounds [][2]float64) (*KNN, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("knn experiment requires at least one observation")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("knn experiment: X has %d rows but Y has %d", len(x), len(y))
	}
	if k < 1 {
		return nil, fmt.Errorf("knn experiment: k must be >= 1, got %d", k)
	}
	if k > len(x) {
		k = len(x)
	}
	if len(bounds) != len(x[0]) {
		return nil, fmt.Errorf("knn experiment: bounds have %d dims but X has %d", len(bounds), len(x[0]))
	}
	return &KNN{
		x:      utils.CopyMatrix(x),
		y:      utils.CopyMatrix(y),
		k:      k,
		bounds: bounds,
	}, nil
}

func (e *KNN) Name() string { return "knn" }

func (e *KNN) OutputDim() int { return len(e.y[0]) }

func (e *KNN) Bounds() [][2]float64 { return e.bounds }

func (e *KNN) Evaluate(points [][]float64) ([][]float64, error) {
	if err := ValidatePoints(e.bounds, points); err != nil {
		return nil, err
	}

	out := make([][]float64, len(points))
	for i, p := range points {
		idx := e.nearest(p)
		row := make([]float64, e.OutputDim())
		for _, j := range idx {
			for c := range row {
				row[c] += e.y[j][c]
			}
		}
		for c := range row {
			row[c] /= float64(len(idx))
		}
		out[i] = row
	}
	return out, nil
}

// nearest returns the indices of the k nearest dataset rows to p
func (e *KNN) nearest(p []float64) []int {
	type entry struct {
		idx  int
		dist float64
	}
	entries := make([]entry, len(e.x))
	for i, row := range e.x {
		var d float64
		for c := range p {
			diff := p[c] - row[c]
			d += diff * diff
		}
		entries[i] = entry{idx: i, dist: math.Sqrt(d)}
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].dist == entries[b].dist {
			return entries[a].idx < entries[b].idx
		}
		return entries[a].dist < entries[b].dist
	})

	idx := make([]int, e.k)
	for i := 0; i < e.k; i++ {
		idx[i] = entries[i].idx
	}
	return idx
}
