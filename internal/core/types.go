package core

// Distance metrics supported by vector indexes.
const (
	MetricCosine = "cosine"
	MetricL2     = "l2"
	MetricIP     = "ip"
)

// DefaultEmbeddingDim is the default dimension for embedding vectors
// (multilingual E5 large).
const DefaultEmbeddingDim = 1024

// Chunk is an ordered text segment produced from one document. Chunks are
// never mutated after creation.
type Chunk struct {
	// Text is the chunk content.
	Text string `json:"text"`
	// Num is the 1-based position of the chunk within its document.
	Num int `json:"chunk_num"`
	// Total is the number of chunks the document produced.
	Total int `json:"total_chunks"`
	// Headers carries the markdown header path ("Header 2" -> text) when
	// the chunk was produced by the markdown splitter. Nil otherwise.
	Headers map[string]string `json:"headers,omitempty"`
}

// Record is the unit persisted to the vector store. ID uniqueness within a
// namespace is the caller's responsibility; re-upserting the same ID
// overwrites.
type Record struct {
	ID       string                 `json:"id"`
	Vector   []float32              `json:"vector"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// QueryMatch is one similarity-search hit.
type QueryMatch struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
