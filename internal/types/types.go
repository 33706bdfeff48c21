package types

import (
	"context"

	"github.com/docqa/qalocal/internal/models"
)

// DocumentLoader reads raw documents from some backing source. Files it
// cannot parse are logged and skipped, never fatal for the batch.
type DocumentLoader interface {
	Load(ctx context.Context) ([]models.Document, error)
}

// Splitter converts raw documents into ordered, size-bounded chunks.
type Splitter interface {
	Process(docs []models.Document) ([]models.Chunk, error)
}

// Embedder converts text into fixed-length vectors. Deterministic per
// model version; used for both chunks at ingestion and questions at
// retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists chunk records and serves nearest-neighbor queries.
// Upsert with an existing id replaces the record rather than appending.
type VectorStore interface {
	Upsert(ctx context.Context, records []models.ChunkRecord) error
	Query(ctx context.Context, embedding []float32, k int) ([]models.RetrievedDocument, error)
	Count(ctx context.Context) (int64, error)
	Close()
}
