package matcher

import (
	"errors"
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float64{1, 2, 3},
			b:    []float64{1, 2, 3},
			want: 0,
		},
		{
			name: "identical direction different magnitude",
			a:    []float64{1, 2, 3},
			b:    []float64{2, 4, 6},
			want: 0,
		},
		{
			name: "orthogonal vectors",
			a:    []float64{1, 0},
			b:    []float64{0, 1},
			want: 1,
		},
		{
			name: "opposite vectors",
			a:    []float64{1, 0},
			b:    []float64{-1, 0},
			want: 2,
		},
		{
			name: "zero norm left operand",
			a:    []float64{0, 0, 0},
			b:    []float64{1, 2, 3},
			want: 1,
		},
		{
			name: "zero norm right operand",
			a:    []float64{1, 2, 3},
			b:    []float64{0, 0, 0},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineDistance(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CosineDistance() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineDistanceDimensionMismatch(t *testing.T) {
	_, err := CosineDistance([]float64{1, 2, 3}, []float64{1, 2})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
