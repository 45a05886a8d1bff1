package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedderDeterministicUnitVectors(t *testing.T) {
	mock := NewMockEmbedder(16)

	a, err := mock.EmbedDocuments(context.Background(), []string{"hello", "world", "hello"})
	require.NoError(t, err)
	require.Len(t, a, 3)

	for i, v := range a {
		assert.Len(t, v, 16, "vector %d", i)
		assert.InDelta(t, 1.0, norm(v), 1e-5, "vector %d", i)
	}
	assert.Equal(t, a[0], a[2], "equal text must embed to equal vectors")
	assert.NotEqual(t, a[0], a[1], "different text should embed differently")

	q, err := mock.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, a[0], q, "query and passage embeddings agree for the mock")
}

type failingEmbedder struct {
	dim int
}

func (f *failingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("model not loaded")
}

func (f *failingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("model not loaded")
}

func (f *failingEmbedder) Dim() int { return f.dim }

func TestServiceFailPolicyPropagatesError(t *testing.T) {
	svc := NewService(&failingEmbedder{dim: 4}, 4, Fail)

	_, err := svc.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)

	_, err = svc.EmbedQuery(context.Background(), "text")
	require.Error(t, err)
}

func TestServiceMockPolicySubstitutesVectors(t *testing.T) {
	svc := NewService(&failingEmbedder{dim: 4}, 4, UseMock)

	vectors, err := svc.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	for _, v := range vectors {
		assert.Len(t, v, 4)
		assert.InDelta(t, 1.0, norm(v), 1e-5)
	}

	q, err := svc.EmbedQuery(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, vectors[0], q)
}

func TestServiceMockOnly(t *testing.T) {
	svc := NewService(nil, 8, UseMock)
	assert.Equal(t, 8, svc.Dim())

	vectors, err := svc.EmbedDocuments(context.Background(), []string{"offline"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Len(t, vectors[0], 8)
}
