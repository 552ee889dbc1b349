// Package vector provides the numeric routines behind semantic search:
// cosine similarity, ranking of stored embeddings and their text encoding.
package vector

import (
	"errors"
	"math"
)

var (
	// ErrDimensionMismatch is returned when two vectors have different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyVector is returned when a vector has no components.
	ErrEmptyVector = errors.New("empty vector")
)

// Similarity returns the cosine similarity of a and b, clamped to [-1, 1].
// A zero-magnitude vector carries no signal and yields 0.
func Similarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrEmptyVector
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) {
		return 0, nil
	}
	return clamp(score), nil
}

func clamp(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}
