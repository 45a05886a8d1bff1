package embed

import (
	"context"

	"github.com/saptiva-ai/ragster/internal/core"
	"github.com/saptiva-ai/ragster/internal/logger"
)

// FailurePolicy decides what happens when the model cannot be invoked.
type FailurePolicy int

const (
	// Fail reports model failures to the caller.
	Fail FailurePolicy = iota
	// UseMock substitutes deterministic mock vectors on model failure.
	// The substitution is logged, never silent, since it corrupts
	// downstream retrieval quality.
	UseMock
)

// Service is the embedder handed to the pipeline. It wraps the real model
// client with the configured failure policy.
type Service struct {
	model  core.EmbedService
	mock   *MockEmbedder
	policy FailurePolicy
}

// NewService wraps model with the given failure policy. A nil model means
// mock-only operation (the -mock-embed configuration).
func NewService(model core.EmbedService, dim int, policy FailurePolicy) *Service {
	s := &Service{model: model, policy: policy}
	if model == nil || policy == UseMock {
		s.mock = NewMockEmbedder(dim)
	}
	return s
}

// EmbedDocuments embeds texts through the model, falling back to mock
// vectors only when the policy allows it.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if s.model == nil {
		return s.mock.EmbedDocuments(ctx, texts)
	}
	vectors, err := s.model.EmbedDocuments(ctx, texts)
	if err != nil {
		if s.policy == UseMock {
			logger.Warn("Model invocation failed, substituting mock embeddings for %d texts: %v", len(texts), err)
			return s.mock.EmbedDocuments(ctx, texts)
		}
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery embeds a single query through the model, subject to the same
// failure policy.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.model == nil {
		return s.mock.EmbedQuery(ctx, text)
	}
	vector, err := s.model.EmbedQuery(ctx, text)
	if err != nil {
		if s.policy == UseMock {
			logger.Warn("Model invocation failed, substituting mock embedding for query: %v", err)
			return s.mock.EmbedQuery(ctx, text)
		}
		return nil, err
	}
	return vector, nil
}

// Dim returns the embedding dimension.
func (s *Service) Dim() int {
	if s.model != nil {
		return s.model.Dim()
	}
	return s.mock.Dim()
}
