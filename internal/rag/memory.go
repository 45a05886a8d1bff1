package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/saptiva-ai/ragster/internal/core"
	"github.com/saptiva-ai/ragster/internal/logger"
)

// MemoryStore implements core.VectorStore in-process with an exact
// similarity scan. It backs pipeline tests and offline runs, and honors
// the same index state machine as the real store: an index created with
// an InitDelay rejects traffic with ErrIndexNotReady until the delay
// elapses.
type MemoryStore struct {
	mu      sync.Mutex
	indexes map[string]*memIndex

	// InitDelay simulates the initialization window of a freshly created
	// index. Zero means indexes are ready immediately.
	InitDelay time.Duration
}

type memIndex struct {
	dim     int
	metric  string
	readyAt time.Time
	// namespace -> record ID -> record
	namespaces map[string]map[string]core.Record
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{indexes: make(map[string]*memIndex)}
}

// ListIndexes returns the names of known indexes.
func (s *MemoryStore) ListIndexes(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// EnsureIndex creates the index if absent. Calling it again for an
// existing index is a no-op.
func (s *MemoryStore) EnsureIndex(ctx context.Context, name string, dim int, metric string) error {
	if dim <= 0 {
		dim = core.DefaultEmbeddingDim
	}
	if metric == "" {
		metric = core.MetricCosine
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[name]; ok {
		logger.Debug("Index %s already exists", name)
		return nil
	}

	s.indexes[name] = &memIndex{
		dim:        dim,
		metric:     metric,
		readyAt:    time.Now().Add(s.InitDelay),
		namespaces: make(map[string]map[string]core.Record),
	}
	logger.Debug("Created in-memory index %s (dim=%d, metric=%s)", name, dim, metric)
	return nil
}

// Upsert writes records with last-write-wins semantics per ID.
func (s *MemoryStore) Upsert(ctx context.Context, indexName, namespace string, records []core.Record, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readyIndex(indexName)
	if err != nil {
		return err
	}

	ns, ok := idx.namespaces[namespace]
	if !ok {
		ns = make(map[string]core.Record)
		idx.namespaces[namespace] = ns
	}

	totalBatches := (len(records) + batchSize - 1) / batchSize
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]
		batchNum := i/batchSize + 1

		for _, rec := range batch {
			if len(rec.Vector) != idx.dim {
				return core.Fatal(fmt.Errorf("upsert batch %d/%d (%d records, %d batches already written): record %s has dimension %d, want %d",
					batchNum, totalBatches, len(batch), batchNum-1, rec.ID, len(rec.Vector), idx.dim))
			}
		}
		for _, rec := range batch {
			ns[rec.ID] = rec
		}
	}

	return nil
}

// Query scans the namespace and returns the topK most similar records.
func (s *MemoryStore) Query(ctx context.Context, indexName, namespace string, vector []float32, topK int, includeMetadata bool) ([]core.QueryMatch, error) {
	if topK <= 0 {
		topK = 5
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readyIndex(indexName)
	if err != nil {
		return nil, err
	}
	if len(vector) != idx.dim {
		return nil, core.Fatal(fmt.Errorf("query vector has dimension %d, index %s wants %d", len(vector), indexName, idx.dim))
	}

	matches := []core.QueryMatch{}
	for _, rec := range idx.namespaces[namespace] {
		match := core.QueryMatch{
			ID:    rec.ID,
			Score: similarity(idx.metric, vector, rec.Vector),
		}
		if includeMetadata {
			match.Metadata = rec.Metadata
		}
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes records by ID. Absent IDs are ignored.
func (s *MemoryStore) Delete(ctx context.Context, indexName, namespace string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readyIndex(indexName)
	if err != nil {
		return err
	}

	ns := idx.namespaces[namespace]
	for _, id := range ids {
		delete(ns, id)
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// readyIndex enforces the index state machine. Callers hold the lock.
func (s *MemoryStore) readyIndex(name string) (*memIndex, error) {
	idx, ok := s.indexes[name]
	if !ok {
		return nil, core.Fatal(fmt.Errorf("index %s: %w", name, core.ErrIndexAbsent))
	}
	if time.Now().Before(idx.readyAt) {
		return nil, core.Retryable(fmt.Errorf("index %s: %w", name, core.ErrIndexNotReady))
	}
	return idx, nil
}

// similarity scores candidate against query for the index metric. Higher
// is always more similar, so L2 distances are negated.
func similarity(metric string, query, candidate []float32) float32 {
	switch metric {
	case core.MetricL2:
		var sum float64
		for i := range query {
			d := float64(query[i]) - float64(candidate[i])
			sum += d * d
		}
		return float32(-math.Sqrt(sum))
	case core.MetricIP:
		var dot float64
		for i := range query {
			dot += float64(query[i]) * float64(candidate[i])
		}
		return float32(dot)
	default:
		var dot, qq, cc float64
		for i := range query {
			dot += float64(query[i]) * float64(candidate[i])
			qq += float64(query[i]) * float64(query[i])
			cc += float64(candidate[i]) * float64(candidate[i])
		}
		if qq == 0 || cc == 0 {
			return 0
		}
		return float32(dot / (math.Sqrt(qq) * math.Sqrt(cc)))
	}
}
