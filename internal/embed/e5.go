// Package embed generates unit-normalized embedding vectors for text,
// delegating the model computation to an E5-style embedding service.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/saptiva-ai/ragster/internal/core"
	"github.com/saptiva-ai/ragster/internal/logger"
)

// E5 task-instruction prefixes. The model requires every input to carry
// one of these markers.
const (
	PassagePrefix = "passage: "
	QueryPrefix   = "query: "
)

// DefaultBatchSize bounds how many texts go into one model invocation.
const DefaultBatchSize = 8

// E5Client talks to a text-embeddings-inference style HTTP service
// hosting a multilingual E5 model. Inputs longer than the model's
// 512-token window are truncated server-side.
type E5Client struct {
	baseURL    string
	dim        int
	batchSize  int
	httpClient *http.Client
}

// NewE5Client creates a client for the embedding service at baseURL.
func NewE5Client(baseURL string, dim, batchSize int) *E5Client {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &E5Client{
		baseURL:   baseURL,
		dim:       dim,
		batchSize: batchSize,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type embedRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

// EmbedDocuments embeds texts in batches of at most the configured batch
// size, prefixing each input with the passage marker. Output order equals
// input order; every vector is normalized to unit length.
func (c *E5Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	totalBatches := (len(texts) + c.batchSize - 1) / c.batchSize
	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += c.batchSize {
		end := i + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]
		logger.Info("Embedding batch %d/%d with %d texts", i/c.batchSize+1, totalBatches, len(batch))

		inputs := make([]string, len(batch))
		for j, text := range batch {
			inputs[j] = PassagePrefix + text
		}

		vectors, err := c.embed(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d/%d (%d texts): %w", i/c.batchSize+1, totalBatches, len(batch), err)
		}
		all = append(all, vectors...)
	}

	logger.Debug("Generated %d embeddings with dimension %d", len(all), len(all[0]))
	return all, nil
}

// EmbedQuery embeds a single search query with the query marker.
func (c *E5Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{QueryPrefix + text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vectors[0], nil
}

// Dim returns the embedding dimension.
func (c *E5Client) Dim() int {
	return c.dim
}

// embed performs one model invocation. The response body is fully read
// and closed before returning so no per-batch resources outlive the call.
func (c *E5Client) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Inputs: inputs, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.Retryable(fmt.Errorf("embedding service unreachable: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, core.Retryable(err)
		}
		return nil, err
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(vectors), len(inputs))
	}

	for _, v := range vectors {
		Normalize(v)
	}
	return vectors, nil
}

// Normalize scales v in place to unit Euclidean norm. Zero vectors are
// left untouched.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
