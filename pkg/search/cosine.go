package search

import (
	"fmt"
	"math"
)

// CosineSimilarity computes dot(a,b) / (‖a‖·‖b‖) in [-1, 1]. A zero vector
// yields 0. Vectors must be equal length: a mismatch means the index holds
// vectors from a differently configured provider, which is a programmer
// error, so it panics rather than soft-skipping.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vector dimension mismatch: %d vs %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
