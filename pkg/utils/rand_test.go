package utils

import (
	"testing"
)

func TestRandSourceDeterminism(t *testing.T) {
	a := NewRandSource(42)
	b := NewRandSource(42)

	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("same seed produced diverging sequences at draw %d", i)
		}
	}
}

func TestRandSourceDistinctSeeds(t *testing.T) {
	a := NewRandSource(1)
	b := NewRandSource(2)

	same := true
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			same = false
		}
	}
	if same {
		t.Fatalf("different seeds produced identical sequences")
	}
}

func TestUniformFloat64Range(t *testing.T) {
	r := NewRandSource(7)
	for i := 0; i < 1000; i++ {
		v := r.UniformFloat64(-2, 3)
		if v < -2 || v >= 3 {
			t.Fatalf("value %f out of [-2, 3)", v)
		}
	}
}

func TestUniformVector(t *testing.T) {
	r := NewRandSource(7)
	bounds := [][2]float64{{0, 1}, {10, 20}, {-1, 1}}
	for i := 0; i < 100; i++ {
		p := r.UniformVector(bounds)
		if len(p) != 3 {
			t.Fatalf("expected 3 dims, got %d", len(p))
		}
		for d, b := range bounds {
			if p[d] < b[0] || p[d] >= b[1] {
				t.Fatalf("dim %d value %f out of [%f, %f)", d, p[d], b[0], b[1])
			}
		}
	}
}

func TestPerm(t *testing.T) {
	r := NewRandSource(11)
	p := r.Perm(10)
	seen := make(map[int]bool)
	for _, v := range p {
		if v < 0 || v >= 10 || seen[v] {
			t.Fatalf("invalid permutation %v", p)
		}
		seen[v] = true
	}
}
