package indexer

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/docqa/qalocal/internal/models"
	"github.com/docqa/qalocal/internal/types"
	"github.com/docqa/qalocal/pkg/processor"
)

const DefaultBatchSize = 100

type IndexerConfig struct {
	BatchSize  int
	RateLimit  float64 // batches per second, 0 means unlimited
	OnProgress func(indexed, total int)
}

// Indexer embeds chunks in fixed-size batches and writes them to the
// vector store. Batches are committed in input order, so a failure
// leaves a clean prefix of the input indexed; re-running the same input
// overwrites those rows rather than duplicating them.
type Indexer struct {
	config   IndexerConfig
	embedder types.Embedder
	store    types.VectorStore
	limiter  *rate.Limiter
}

func NewWithConfig(config IndexerConfig, embedder types.Embedder, store types.VectorStore) *Indexer {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &Indexer{
		config:   config,
		embedder: embedder,
		store:    store,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Index embeds and stores the chunks, returning how many were committed.
// On error the count covers the fully committed batches only.
func (ix *Indexer) Index(ctx context.Context, chunks []models.Chunk) (int, error) {
	total := len(chunks)
	indexed := 0

	for start := 0; start < total; start += ix.config.BatchSize {
		end := start + ix.config.BatchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]
		batchNum := start / ix.config.BatchSize

		if err := ix.limiter.Wait(ctx); err != nil {
			return indexed, err
		}

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddings, err := ix.embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("embedding batch %d (indexed %d/%d chunks): %w", batchNum, indexed, total, err)
		}
		if len(embeddings) != len(batch) {
			return indexed, fmt.Errorf("embedding batch %d: got %d vectors for %d texts", batchNum, len(embeddings), len(batch))
		}

		records := make([]models.ChunkRecord, len(batch))
		for i, chunk := range batch {
			ordinal := start + i
			records[i] = models.ChunkRecord{
				ID:        processor.ChunkID(chunk, ordinal),
				Chunk:     chunk,
				Embedding: embeddings[i],
				Ordinal:   ordinal,
			}
		}

		if err := ix.store.Upsert(ctx, records); err != nil {
			return indexed, fmt.Errorf("storing batch %d (indexed %d/%d chunks): %w", batchNum, indexed, total, err)
		}

		indexed += len(batch)
		if ix.config.OnProgress != nil {
			ix.config.OnProgress(indexed, total)
		}
	}

	return indexed, nil
}
