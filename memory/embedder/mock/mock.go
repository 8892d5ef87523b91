// Package mock provides a deterministic embedder for tests. Identical text
// always embeds to the same unit vector, so similarity queries behave
// predictably without a model.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder hashes text into a fixed-dimension unit vector.
type MockEmbedder struct {
	dimensions int
}

// New creates a mock embedder with 384 dimensions.
func New() *MockEmbedder {
	return &MockEmbedder{dimensions: 384}
}

// Embed derives a deterministic embedding from the text hash.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))

	embedding := make([]float32, m.dimensions)
	seed := h.Sum64()
	for i := 0; i < m.dimensions; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}
	return normalized
}
