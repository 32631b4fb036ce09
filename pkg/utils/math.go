package utils

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Min returns the minimum of two ordered values
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two ordered values
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Clamp clamps a value between min and max
func Clamp[T constraints.Ordered](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Sum calculates the sum of a slice of float64 values
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// Mean calculates the mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Variance calculates the population variance of a slice of float64 values
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// ArgMax returns the index of the largest value, -1 for an empty slice.
// NaN values are skipped; ties resolve to the earliest index.
func ArgMax(values []float64) int {
	best := -1
	bestVal := math.Inf(-1)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if best == -1 || v > bestVal {
			best = i
			bestVal = v
		}
	}
	return best
}

// ArgMin returns the index of the smallest value, -1 for an empty slice.
// NaN values are skipped; ties resolve to the earliest index.
func ArgMin(values []float64) int {
	best := -1
	bestVal := math.Inf(1)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if best == -1 || v < bestVal {
			best = i
			bestVal = v
		}
	}
	return best
}

// CopyVector returns a copy of a float64 slice
func CopyVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// CopyBounds returns a copy of a list of [min, max] interval pairs
func CopyBounds(b [][2]float64) [][2]float64 {
	out := make([][2]float64, len(b))
	copy(out, b)
	return out
}

// CopyMatrix returns a deep copy of a row-major matrix
func CopyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = CopyVector(row)
	}
	return out
}
