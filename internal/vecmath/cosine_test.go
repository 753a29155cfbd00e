package vecmath

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"empty a", nil, []float32{1}, 0},
		{"empty both", nil, nil, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Cosine(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Cosine(%v, %v) = %f, want %f", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCosine_SymmetricAndBounded(t *testing.T) {
	vecs := [][]float32{
		{0.3, -0.7, 0.1},
		{1, 1, 1},
		{-2, 0.5, 4},
		{0.0001, 0, -0.0001},
	}
	for i := range vecs {
		for j := range vecs {
			ab := Cosine(vecs[i], vecs[j])
			ba := Cosine(vecs[j], vecs[i])
			if ab != ba {
				t.Errorf("not symmetric for %d,%d: %f vs %f", i, j, ab, ba)
			}
			if ab < -1 || ab > 1 {
				t.Errorf("out of bounds for %d,%d: %f", i, j, ab)
			}
		}
	}
}
