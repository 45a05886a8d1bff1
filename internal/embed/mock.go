package embed

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/saptiva-ai/ragster/internal/logger"
)

// MockEmbedder produces deterministic pseudo-random unit vectors of a
// fixed dimension. Equal input text always yields the same vector (and a
// query for a stored text embeds to the stored vector), so retrieval
// round trips still work in tests and offline runs. It must never be
// substituted silently: construction is an explicit configuration choice.
type MockEmbedder struct {
	dim int
}

// NewMockEmbedder creates a mock embedder with the given dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	logger.Warn("Using mock embeddings (dimension=%d); retrieval quality will be degraded", dim)
	return &MockEmbedder{dim: dim}
}

// EmbedDocuments returns one deterministic vector per input text.
func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

// EmbedQuery returns the deterministic vector for text.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return m.vectorFor(text), nil
}

// Dim returns the embedding dimension.
func (m *MockEmbedder) Dim() int {
	return m.dim
}

// vectorFor seeds a PRNG from the text so the same text always maps to
// the same unit vector.
func (m *MockEmbedder) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	v := make([]float32, m.dim)
	for i := range v {
		v[i] = float32(rng.Float64()*2 - 1)
	}
	Normalize(v)
	return v
}
