package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/saptiva-ai/ragster/internal/core"
	"github.com/saptiva-ai/ragster/internal/docload"
	"github.com/saptiva-ai/ragster/internal/embed"
	"github.com/saptiva-ai/ragster/internal/logger"
	"github.com/saptiva-ai/ragster/internal/pipeline"
	"github.com/saptiva-ai/ragster/internal/rag"
)

func main() {
	var (
		indexName    = flag.String("index", "ragster", "Target index name")
		namespace    = flag.String("namespace", "", "Namespace within the index (default: doc_<timestamp>)")
		addr         = flag.String("addr", "", "Vector database address (env MILVUS_ADDR)")
		apiKey       = flag.String("api-key", "", "Vector database API key (env RAGSTER_API_KEY)")
		storeKind    = flag.String("store", "milvus", "Vector store backend: milvus or memory")
		metric       = flag.String("metric", core.MetricCosine, "Distance metric: cosine, l2 or ip")
		embedURL     = flag.String("embed-url", "", "Embedding service URL (env EMBED_URL)")
		embedBatch   = flag.Int("embed-batch", embed.DefaultBatchSize, "Texts per embedding batch")
		upsertBatch  = flag.Int("upsert-batch", rag.DefaultUpsertBatchSize, "Records per upsert batch")
		dim          = flag.Int("dim", core.DefaultEmbeddingDim, "Embedding dimension")
		chunkSize    = flag.Int("chunk-size", 1000, "Target chunk size in characters")
		chunkOverlap = flag.Int("chunk-overlap", 200, "Chunk overlap in characters")
		sampleQuery  = flag.String("query", "", "Sample query to run after ingest")
		topK         = flag.Int("top-k", 3, "Number of matches for the sample query")
		mockEmbed    = flag.Bool("mock-embed", false, "Skip the model and use mock embeddings")
		onFailure    = flag.String("on-model-failure", "fail", "Model failure policy: fail or mock")
		debug        = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <document path>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [flags] -query <text> -namespace <ns>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger.Init(*debug)

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded: %v", err)
	}

	// With no document path the query flag runs standalone against an
	// existing index, so the namespace must be given explicitly.
	docPath := ""
	if flag.NArg() > 0 {
		docPath = flag.Arg(0)
	} else if *sampleQuery == "" {
		flag.Usage()
		os.Exit(1)
	} else if *namespace == "" {
		logger.Error("Query-only mode needs -namespace to pick the records to search")
		os.Exit(1)
	}

	// Flags take precedence over environment variables.
	address := firstNonEmpty(*addr, os.Getenv("MILVUS_ADDR"), "localhost:19530")
	key := firstNonEmpty(*apiKey, os.Getenv("RAGSTER_API_KEY"))
	serviceURL := firstNonEmpty(*embedURL, os.Getenv("EMBED_URL"), "http://localhost:8080")

	ctx := context.Background()

	embedder, err := buildEmbedder(*mockEmbed, *onFailure, serviceURL, *dim, *embedBatch)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	store, err := buildStore(ctx, *storeKind, address, key)
	if err != nil {
		logger.Error("Failed to initialize vector store: %v", err)
		os.Exit(1)
	}

	p := pipeline.New(docload.NewLoader(), embedder, store, pipeline.Config{
		IndexName:       *indexName,
		Namespace:       *namespace,
		Metric:          *metric,
		ChunkSize:       *chunkSize,
		ChunkOverlap:    *chunkOverlap,
		UpsertBatchSize: *upsertBatch,
		SampleQuery:     *sampleQuery,
		TopK:            *topK,
	})

	// Close explicitly rather than defer: os.Exit skips deferred calls.
	runErr := run(ctx, p, docPath, *namespace, *sampleQuery, *topK)
	store.Close()
	if runErr != nil {
		logger.Error("%v", runErr)
		os.Exit(1)
	}
}

func run(ctx context.Context, p *pipeline.Pipeline, docPath, namespace, query string, topK int) error {
	if docPath == "" {
		return p.RunQuery(ctx, namespace, query, topK)
	}

	if err := p.Process(ctx, docPath); err != nil {
		return fmt.Errorf("failed to process document: %w", err)
	}
	logger.Info("Document processed and embedded successfully")
	return nil
}

func buildEmbedder(mockOnly bool, onFailure, serviceURL string, dim, batchSize int) (core.EmbedService, error) {
	if mockOnly {
		return embed.NewService(nil, dim, embed.UseMock), nil
	}

	var policy embed.FailurePolicy
	switch onFailure {
	case "fail":
		policy = embed.Fail
	case "mock":
		policy = embed.UseMock
	default:
		return nil, fmt.Errorf("unknown -on-model-failure value %q (want fail or mock)", onFailure)
	}

	return embed.NewService(embed.NewE5Client(serviceURL, dim, batchSize), dim, policy), nil
}

func buildStore(ctx context.Context, kind, address, apiKey string) (core.VectorStore, error) {
	switch kind {
	case "milvus":
		return rag.NewMilvusStore(ctx, address, apiKey)
	case "memory":
		return rag.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown -store value %q (want milvus or memory)", kind)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
