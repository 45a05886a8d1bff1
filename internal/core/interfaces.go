package core

import "context"

// EmbedService generates fixed-dimension, unit-normalized embeddings.
type EmbedService interface {
	// EmbedDocuments embeds a batch of passage texts. The result has one
	// vector per input, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dim returns the embedding dimension this service produces.
	Dim() int
}

// DocumentLoader reads a file and returns its raw text content.
type DocumentLoader interface {
	Load(path string) (string, error)
}

// VectorStore wraps index lifecycle plus per-namespace upsert, query and
// delete against a vector database.
type VectorStore interface {
	// ListIndexes returns the names of known indexes.
	ListIndexes(ctx context.Context) ([]string, error)

	// EnsureIndex creates the index if absent with the given vector
	// dimension and distance metric, and blocks until it is ready to
	// accept traffic. Calling it for an existing index is a no-op.
	EnsureIndex(ctx context.Context, name string, dim int, metric string) error

	// Upsert writes records in batches of at most batchSize. The first
	// failed batch aborts the operation; batches already written are not
	// rolled back.
	Upsert(ctx context.Context, index, namespace string, records []Record, batchSize int) error

	// Query returns up to topK matches ordered by decreasing similarity.
	// An empty result is valid, not an error.
	Query(ctx context.Context, index, namespace string, vector []float32, topK int, includeMetadata bool) ([]QueryMatch, error)

	// Delete removes records by ID. Absent IDs are ignored.
	Delete(ctx context.Context, index, namespace string, ids []string) error

	// Close releases the underlying connection.
	Close() error
}
