package design

import (
	"errors"
	"testing"
)

var unitSquare = [][2]float64{{0, 1}, {0, 1}}

func TestNewKnownGenerators(t *testing.T) {
	for _, name := range []string{"random", "latin_hypercube"} {
		g, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if g.Name() != name {
			t.Fatalf("expected name %q, got %q", name, g.Name())
		}
	}
}

func TestNewUnknownGenerator(t *testing.T) {
	_, err := New("sobol")
	if err == nil {
		t.Fatalf("expected error")
	}
	var unknown *UnknownDesignError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownDesignError, got %T", err)
	}
}

func TestGeneratorsValidateArguments(t *testing.T) {
	for _, name := range []string{"random", "latin_hypercube"} {
		g, _ := New(name)
		if _, err := g.Generate(unitSquare, 0, 1); err == nil {
			t.Fatalf("%s: expected error for n = 0", name)
		}
		if _, err := g.Generate(nil, 3, 1); err == nil {
			t.Fatalf("%s: expected error for empty domain", name)
		}
		if _, err := g.Generate([][2]float64{{1, 0}}, 3, 1); err == nil {
			t.Fatalf("%s: expected error for inverted bounds", name)
		}
	}
}

func TestGeneratorsDeterministicAndInBounds(t *testing.T) {
	bounds := [][2]float64{{-2, 2}, {10, 11}}
	for _, name := range []string{"random", "latin_hypercube"} {
		g, _ := New(name)

		a, err := g.Generate(bounds, 8, 42)
		if err != nil {
			t.Fatalf("%s: generate failed: %v", name, err)
		}
		b, _ := g.Generate(bounds, 8, 42)
		c, _ := g.Generate(bounds, 8, 43)

		if len(a) != 8 {
			t.Fatalf("%s: expected 8 points, got %d", name, len(a))
		}
		diverged := false
		for i := range a {
			for d := range a[i] {
				if a[i][d] < bounds[d][0] || a[i][d] >= bounds[d][1] {
					t.Fatalf("%s: point %v outside bounds", name, a[i])
				}
				if a[i][d] != b[i][d] {
					t.Fatalf("%s: same seed produced different designs", name)
				}
				if a[i][d] != c[i][d] {
					diverged = true
				}
			}
		}
		if !diverged {
			t.Fatalf("%s: different seeds produced identical designs", name)
		}
	}
}

func TestLatinHypercubeStratification(t *testing.T) {
	g := &LatinHypercube{}
	n := 10
	points, err := g.Generate(unitSquare, n, 7)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// Every stratum of every dimension must be hit exactly once.
	for d := 0; d < 2; d++ {
		hit := make([]bool, n)
		for _, p := range points {
			stratum := int(p[d] * float64(n))
			if stratum == n {
				stratum = n - 1
			}
			if hit[stratum] {
				t.Fatalf("dimension %d stratum %d hit twice", d, stratum)
			}
			hit[stratum] = true
		}
	}
}
