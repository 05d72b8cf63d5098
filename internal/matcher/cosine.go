package matcher

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch indicates two embeddings of different lengths were
// compared. The vector dimension is fixed by the embedding model upstream.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// CosineDistance returns 1 − (a·b)/(‖a‖·‖b‖).
// The range is [0, 2] for arbitrary real vectors; no particular range is
// assumed. A zero-norm operand yields the maximum dissimilarity of 1 rather
// than NaN.
func CosineDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	dot := floats.Dot(a, b)
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 1, nil
	}
	return 1 - dot/(normA*normB), nil
}
