package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Embedding backend names.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// ErrContractViolation means the provider returned a different number of
// vectors than texts, or vectors of the wrong dimensionality.
var ErrContractViolation = errors.New("embedding contract violation")

// Embedder maps texts to fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// CheckVectors verifies a provider response against the request.
func CheckVectors(vectors [][]float32, inputs, dim int) error {
	if len(vectors) != inputs {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrContractViolation, len(vectors), inputs)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrContractViolation, i, len(v), dim)
		}
	}
	return nil
}

// Normalize scales v to unit length in place. Zero vectors are left alone.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
