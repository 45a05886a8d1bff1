// Package rag wraps vector database access: index lifecycle plus
// per-namespace upsert, query and delete. The Milvus mapping is one
// collection per index and one partition per namespace.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/saptiva-ai/ragster/internal/core"
	"github.com/saptiva-ai/ragster/internal/logger"
)

// Field names for the record collections
const (
	FieldID          = "id"
	FieldText        = "text"
	FieldDocumentID  = "document_id"
	FieldSource      = "source"
	FieldChunkNum    = "chunk_num"
	FieldTotalChunks = "total_chunks"
	FieldMetadata    = "metadata"
	FieldCreateTime  = "create_time"
	FieldVector      = "vector"
)

// VarChar limits
const (
	maxIDLength   = "255"
	maxTextLength = "65535"
)

// DefaultUpsertBatchSize bounds records per upsert call.
const DefaultUpsertBatchSize = 100

// readiness wait after index creation
const readyTimeout = 60 * time.Second

// MilvusStore implements core.VectorStore on a Milvus deployment.
type MilvusStore struct {
	client *milvusclient.Client
}

// NewMilvusStore connects to Milvus at addr. apiKey may be empty for
// unauthenticated deployments.
func NewMilvusStore(ctx context.Context, addr, apiKey string) (*MilvusStore, error) {
	logger.Info("Connecting to Milvus at %s", addr)

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: addr,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, core.Retryable(fmt.Errorf("failed to connect to Milvus: %w", err))
	}

	return &MilvusStore{client: c}, nil
}

// ListIndexes returns the names of known indexes.
func (s *MilvusStore) ListIndexes(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	if err != nil {
		return nil, core.Retryable(fmt.Errorf("failed to list indexes: %w", err))
	}
	return names, nil
}

// EnsureIndex creates the index if absent with the given dimension and
// metric, then loads it and waits until it accepts traffic. Existing
// indexes are loaded as-is; the call is otherwise a no-op for them.
func (s *MilvusStore) EnsureIndex(ctx context.Context, name string, dim int, metric string) error {
	if dim <= 0 {
		dim = core.DefaultEmbeddingDim
	}

	hasOpt := milvusclient.NewHasCollectionOption(name)
	exists, err := s.client.HasCollection(ctx, hasOpt)
	if err != nil {
		return core.Retryable(fmt.Errorf("failed to check if index %s exists: %w", name, err))
	}

	if !exists {
		metricType, err := metricTypeOf(metric)
		if err != nil {
			return core.Fatal(err)
		}

		schema := &entity.Schema{
			CollectionName: name,
			Description:    "Document chunk embeddings",
			Fields: []*entity.Field{
				{
					Name:       FieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{
						"max_length": maxIDLength,
					},
				},
				{
					Name:     FieldText,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": maxTextLength,
					},
				},
				{
					Name:     FieldDocumentID,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": maxIDLength,
					},
				},
				{
					Name:     FieldSource,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": maxTextLength,
					},
				},
				{
					Name:     FieldChunkNum,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     FieldTotalChunks,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     FieldMetadata,
					DataType: entity.FieldTypeJSON,
				},
				{
					Name:     FieldCreateTime,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     FieldVector,
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", dim),
					},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(name, schema)
		if err := s.client.CreateCollection(ctx, createOpt); err != nil {
			return core.Retryable(fmt.Errorf("failed to create index %s: %w", name, err))
		}

		vecIdx := index.NewHNSWIndex(metricType, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(name, FieldVector, vecIdx)
		if _, err := s.client.CreateIndex(ctx, indexOpt); err != nil {
			return core.Retryable(fmt.Errorf("failed to create vector index on %s: %w", name, err))
		}

		logger.Info("Created index %s (dim=%d, metric=%s)", name, dim, metric)
	} else {
		logger.Info("Index %s already exists", name)
	}

	// A newly created index is not immediately queryable: load it and
	// wait for readiness before reporting success.
	if err := s.waitReady(ctx, name); err != nil {
		return err
	}

	return nil
}

// waitReady loads the collection into memory and blocks until the load
// completes, retrying transient failures with exponential backoff.
func (s *MilvusStore) waitReady(ctx context.Context, name string) error {
	load := func() error {
		task, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
		if err != nil {
			return err
		}
		return task.Await(ctx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = readyTimeout
	if err := backoff.Retry(load, backoff.WithContext(bo, ctx)); err != nil {
		return core.Retryable(fmt.Errorf("index %s did not become ready: %w (%v)", name, core.ErrIndexNotReady, err))
	}

	logger.Debug("Index %s is loaded and ready", name)
	return nil
}

// Upsert writes records into the namespace in batches of at most
// batchSize. The first failed batch aborts the whole operation; the error
// reports the failed batch and how many batches were already written.
func (s *MilvusStore) Upsert(ctx context.Context, indexName, namespace string, records []core.Record, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}

	if err := s.requireIndex(ctx, indexName); err != nil {
		return err
	}
	if err := s.ensurePartition(ctx, indexName, namespace); err != nil {
		return err
	}

	dim := len(records[0].Vector)
	totalBatches := (len(records) + batchSize - 1) / batchSize

	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]
		batchNum := i/batchSize + 1
		logger.Info("Upserting batch %d/%d with %d records into %s/%s", batchNum, totalBatches, len(batch), indexName, namespace)

		columns, err := recordColumns(batch, dim)
		if err != nil {
			return core.Fatal(fmt.Errorf("upsert batch %d/%d (%d records): %w", batchNum, totalBatches, len(batch), err))
		}

		upsertOpt := milvusclient.NewColumnBasedInsertOption(indexName, columns...)
		if namespace != "" {
			upsertOpt = upsertOpt.WithPartition(namespace)
		}
		if _, err := s.client.Upsert(ctx, upsertOpt); err != nil {
			return core.Retryable(fmt.Errorf("upsert batch %d/%d (%d records, %d batches already written): %w",
				batchNum, totalBatches, len(batch), batchNum-1, err))
		}
	}

	logger.Info("Upserted %d records into %s/%s", len(records), indexName, namespace)
	return nil
}

// Query returns up to topK matches from the namespace, ordered by
// decreasing similarity. An empty result is valid.
func (s *MilvusStore) Query(ctx context.Context, indexName, namespace string, vector []float32, topK int, includeMetadata bool) ([]core.QueryMatch, error) {
	if topK <= 0 {
		topK = 5
	}

	if err := s.requireIndex(ctx, indexName); err != nil {
		return nil, err
	}

	searchOpt := milvusclient.NewSearchOption(indexName, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector)
	if namespace != "" {
		searchOpt = searchOpt.WithPartitions(namespace)
	}
	if includeMetadata {
		searchOpt = searchOpt.WithOutputFields(FieldMetadata)
	}

	results, err := s.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, core.Retryable(fmt.Errorf("failed to query %s/%s: %w", indexName, namespace, err))
	}

	matches := []core.QueryMatch{}
	if len(results) == 0 {
		return matches, nil
	}

	rs := results[0]
	for i := 0; i < rs.ResultCount; i++ {
		id, err := rs.IDs.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read match id at %d: %w", i, err)
		}

		match := core.QueryMatch{ID: id}
		if i < len(rs.Scores) {
			match.Score = rs.Scores[i]
		}

		if includeMetadata {
			if col := rs.GetColumn(FieldMetadata); col != nil {
				raw, err := col.GetAsString(i)
				if err == nil && raw != "" {
					var md map[string]interface{}
					if err := json.Unmarshal([]byte(raw), &md); err == nil {
						match.Metadata = md
					}
				}
			}
		}

		matches = append(matches, match)
	}

	return matches, nil
}

// Delete removes records by ID from the namespace. Absent IDs are
// ignored.
func (s *MilvusStore) Delete(ctx context.Context, indexName, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.requireIndex(ctx, indexName); err != nil {
		return err
	}

	deleteOpt := milvusclient.NewDeleteOption(indexName).WithStringIDs(FieldID, ids)
	if namespace != "" {
		deleteOpt = deleteOpt.WithPartition(namespace)
	}
	if _, err := s.client.Delete(ctx, deleteOpt); err != nil {
		return core.Retryable(fmt.Errorf("failed to delete %d records from %s/%s: %w", len(ids), indexName, namespace, err))
	}

	return nil
}

// Close closes the connection to Milvus.
func (s *MilvusStore) Close() error {
	return s.client.Close(context.Background())
}

// requireIndex fails with ErrIndexAbsent when the index does not exist.
func (s *MilvusStore) requireIndex(ctx context.Context, name string) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return core.Retryable(fmt.Errorf("failed to check index %s: %w", name, err))
	}
	if !exists {
		return core.Fatal(fmt.Errorf("index %s: %w", name, core.ErrIndexAbsent))
	}
	return nil
}

// ensurePartition creates the namespace partition on first use.
func (s *MilvusStore) ensurePartition(ctx context.Context, indexName, namespace string) error {
	if namespace == "" {
		return nil
	}

	has, err := s.client.HasPartition(ctx, milvusclient.NewHasPartitionOption(indexName, namespace))
	if err != nil {
		return core.Retryable(fmt.Errorf("failed to check namespace %s/%s: %w", indexName, namespace, err))
	}
	if has {
		return nil
	}

	if err := s.client.CreatePartition(ctx, milvusclient.NewCreatePartitionOption(indexName, namespace)); err != nil {
		return core.Retryable(fmt.Errorf("failed to create namespace %s/%s: %w", indexName, namespace, err))
	}
	logger.Debug("Created namespace %s in index %s", namespace, indexName)
	return nil
}

// recordColumns converts a record batch to Milvus columns. Scalar fields
// are mirrored out of metadata; the whole metadata map is also stored as
// JSON so query results can return it unchanged.
func recordColumns(records []core.Record, dim int) ([]column.Column, error) {
	n := len(records)
	ids := make([]string, n)
	texts := make([]string, n)
	docIDs := make([]string, n)
	sources := make([]string, n)
	chunkNums := make([]int64, n)
	totalChunks := make([]int64, n)
	metadatas := make([][]byte, n)
	createTimes := make([]int64, n)
	vectors := make([][]float32, n)

	now := time.Now().Unix()
	for i, rec := range records {
		if len(rec.Vector) != dim {
			return nil, fmt.Errorf("record %s has dimension %d, want %d", rec.ID, len(rec.Vector), dim)
		}
		ids[i] = rec.ID
		texts[i] = metaString(rec.Metadata, "text")
		docIDs[i] = metaString(rec.Metadata, "document_id")
		sources[i] = metaString(rec.Metadata, "source")
		chunkNums[i] = metaInt64(rec.Metadata, "chunk_num")
		totalChunks[i] = metaInt64(rec.Metadata, "total_chunks")
		createTimes[i] = now
		vectors[i] = rec.Vector

		md := rec.Metadata
		if md == nil {
			md = map[string]interface{}{}
		}
		raw, err := json.Marshal(md)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata for record %s: %w", rec.ID, err)
		}
		metadatas[i] = raw
	}

	return []column.Column{
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnVarChar(FieldText, texts),
		column.NewColumnVarChar(FieldDocumentID, docIDs),
		column.NewColumnVarChar(FieldSource, sources),
		column.NewColumnInt64(FieldChunkNum, chunkNums),
		column.NewColumnInt64(FieldTotalChunks, totalChunks),
		column.NewColumnJSONBytes(FieldMetadata, metadatas),
		column.NewColumnInt64(FieldCreateTime, createTimes),
		column.NewColumnFloatVector(FieldVector, dim, vectors),
	}, nil
}

func metaString(md map[string]interface{}, key string) string {
	if md == nil {
		return ""
	}
	if v, ok := md[key].(string); ok {
		return v
	}
	return ""
}

func metaInt64(md map[string]interface{}, key string) int64 {
	if md == nil {
		return 0
	}
	switch v := md[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func metricTypeOf(metric string) (entity.MetricType, error) {
	switch metric {
	case "", core.MetricCosine:
		return entity.COSINE, nil
	case core.MetricL2:
		return entity.L2, nil
	case core.MetricIP:
		return entity.IP, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", metric)
	}
}
