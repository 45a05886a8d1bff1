// Package pipeline composes loader, chunker, embedder and vector store
// into the ingest flow: load, chunk, embed, upsert, optional sample
// query. Collaborators are injected so tests can substitute a mock
// embedder or the in-memory store.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saptiva-ai/ragster/internal/chunker"
	"github.com/saptiva-ai/ragster/internal/core"
	"github.com/saptiva-ai/ragster/internal/docload"
	"github.com/saptiva-ai/ragster/internal/logger"
)

// Config carries the pipeline knobs shared by every run.
type Config struct {
	IndexName       string
	Namespace       string
	Metric          string
	ChunkSize       int
	ChunkOverlap    int
	UpsertBatchSize int
	// SampleQuery, when non-empty, is embedded and run against the
	// freshly written namespace after ingest.
	SampleQuery string
	TopK        int
}

// Pipeline drives one document through the ingest flow.
type Pipeline struct {
	loader   core.DocumentLoader
	embedder core.EmbedService
	store    core.VectorStore
	cfg      Config
}

// New wires a pipeline from its collaborators.
func New(loader core.DocumentLoader, embedder core.EmbedService, store core.VectorStore, cfg Config) *Pipeline {
	if cfg.IndexName == "" {
		cfg.IndexName = "ragster"
	}
	if cfg.Metric == "" {
		cfg.Metric = core.MetricCosine
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Pipeline{loader: loader, embedder: embedder, store: store, cfg: cfg}
}

// Process ingests the document at docPath: load, chunk, embed, upsert
// into the configured index and namespace, then run the sample query if
// one is configured. Any stage failure aborts the remaining stages;
// batches already upserted are not rolled back.
func (p *Pipeline) Process(ctx context.Context, docPath string) error {
	namespace := p.cfg.Namespace
	if namespace == "" {
		namespace = fmt.Sprintf("doc_%d", time.Now().Unix())
		logger.Info("No namespace given, using %s", namespace)
	}

	logger.Info("Processing document %s into %s/%s", docPath, p.cfg.IndexName, namespace)

	text, err := p.loader.Load(docPath)
	if err != nil {
		return fmt.Errorf("load stage: %w", err)
	}
	logger.Info("Loaded document with %d characters", len(text))

	markdown := docload.IsMarkdown(docPath) || chunker.LooksLikeMarkdown(text)
	var chunks []core.Chunk
	if markdown {
		logger.Info("Detected markdown content, splitting at header boundaries")
		chunks = chunker.SplitMarkdown(text)
	} else {
		chunks = chunker.SplitParagraphs(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	}
	if len(chunks) == 0 {
		logger.Warn("Document %s produced no chunks, nothing to upsert", docPath)
		return nil
	}
	logger.Info("Created %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed stage: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed stage: got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	records := buildRecords(docPath, chunks, embeddings, markdown)

	// The index dimension is fixed at creation from the first embedding.
	dim := len(embeddings[0])
	if err := p.store.EnsureIndex(ctx, p.cfg.IndexName, dim, p.cfg.Metric); err != nil {
		return fmt.Errorf("ensure index stage: %w", err)
	}

	if err := p.store.Upsert(ctx, p.cfg.IndexName, namespace, records, p.cfg.UpsertBatchSize); err != nil {
		return fmt.Errorf("upsert stage: %w", err)
	}

	if p.cfg.SampleQuery != "" {
		if err := p.runSampleQuery(ctx, namespace); err != nil {
			return fmt.Errorf("query stage: %w", err)
		}
	}

	return nil
}

// Query embeds text and searches the namespace.
func (p *Pipeline) Query(ctx context.Context, namespace, text string, topK int) ([]core.QueryMatch, error) {
	vector, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return p.store.Query(ctx, p.cfg.IndexName, namespace, vector, topK, true)
}

// RunQuery embeds text, searches the namespace and logs each match. It
/// needs no prior ingest in the same run: the index must already exist,
// otherwise the store reports it absent.
func (p *Pipeline) RunQuery(ctx context.Context, namespace, text string, topK int) error {
	logger.Info("Querying %s/%s: %q", p.cfg.IndexName, namespace, text)

	matches, err := p.Query(ctx, namespace, text, topK)
	if err != nil {
		return err
	}

	logger.Info("Query returned %d matches", len(matches))
	for i, m := range matches {
		logger.Info("Match %d: id=%s score=%.4f", i+1, m.ID, m.Score)
		if snippet := metaSnippet(m.Metadata, 150); snippet != "" {
			logger.Info("  Content: %s", snippet)
		}
	}
	return nil
}

func (p *Pipeline) runSampleQuery(ctx context.Context, namespace string) error {
	return p.RunQuery(ctx, namespace, p.cfg.SampleQuery, p.cfg.TopK)
}

// buildRecords assembles one record per chunk. Fallback-mode records get
// deterministic "{document_id}_chunk_{n}" IDs so re-ingesting a document
// overwrites its previous chunks; markdown sections get fresh UUIDs and
// carry their header path in metadata.
func buildRecords(docPath string, chunks []core.Chunk, embeddings [][]float32, markdown bool) []core.Record {
	filename := filepath.Base(docPath)
	docID := strings.TrimSuffix(filename, filepath.Ext(filename))

	records := make([]core.Record, len(chunks))
	for i, c := range chunks {
		id := fmt.Sprintf("%s_chunk_%d", docID, c.Num)
		if markdown {
			id = uuid.NewString()
		}

		metadata := map[string]interface{}{
			"text":         c.Text,
			"source":       docPath,
			"document_id":  docID,
			"chunk_num":    c.Num,
			"total_chunks": c.Total,
		}
		for header, value := range c.Headers {
			metadata[header] = value
		}

		records[i] = core.Record{ID: id, Vector: embeddings[i], Metadata: metadata}
	}
	return records
}

func metaSnippet(md map[string]interface{}, max int) string {
	text, ok := md["text"].(string)
	if !ok {
		return ""
	}
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
