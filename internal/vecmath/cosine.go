// Package vecmath holds the vector primitives shared by ranking and clustering.
package vecmath

import "math"

// Cosine returns the cosine similarity of a and b.
// Empty vectors, mismatched lengths and zero norms all yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push parallel vectors a hair past 1.
	return math.Max(-1, math.Min(1, sim))
}
