package models

// Document is a raw document produced by the loader: plain text plus the
// metadata of the file (or page) it came from. Documents are immutable
// once loaded.
type Document struct {
	Text     string
	Metadata map[string]string
}

// Chunk is a size-bounded slice of a document. Metadata is inherited
// verbatim from the parent document.
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// ChunkRecord is the persisted form of a chunk. ID is a deterministic
// function of the chunk's text, metadata and ordinal, so re-ingesting
// identical input upserts instead of duplicating.
type ChunkRecord struct {
	ID        string
	Chunk     Chunk
	Embedding []float32
	Ordinal   int
}

// RetrievedDocument is a chunk returned by the vector store, carrying the
// store's relevance score.
type RetrievedDocument struct {
	Chunk Chunk
	Score float32
}

// Answer is the final response to a question. Sources keeps first
// occurrence order and contains no duplicates.
type Answer struct {
	Text       string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Source returns the chunk's source metadata field, or "unknown" when the
// loader did not set one.
func (c Chunk) Source() string {
	if src, ok := c.Metadata["source"]; ok && src != "" {
		return src
	}
	return "unknown"
}
