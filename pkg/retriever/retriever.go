package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/docqa/qalocal/internal/models"
	"github.com/docqa/qalocal/internal/types"
)

const (
	// DefaultTopK is used when the caller does not override k.
	DefaultTopK = 4
	// MinTopK and MaxTopK bound explicit overrides.
	MinTopK = 1
	MaxTopK = 10
)

type RetrieverConfig struct {
	TopK int
}

// Retriever embeds a question and asks the vector store for the nearest
// chunks. Results keep the store's own ranking; nothing is re-ranked
// locally.
type Retriever struct {
	config   RetrieverConfig
	embedder types.Embedder
	store    types.VectorStore
}

func NewWithConfig(config RetrieverConfig, embedder types.Embedder, store types.VectorStore) (*Retriever, error) {
	if config.TopK == 0 {
		config.TopK = DefaultTopK
	}
	if config.TopK < MinTopK || config.TopK > MaxTopK {
		return nil, fmt.Errorf("top_k must be between %d and %d, got %d", MinTopK, MaxTopK, config.TopK)
	}

	return &Retriever{
		config:   config,
		embedder: embedder,
		store:    store,
	}, nil
}

// Retrieve returns up to k chunks for the question. k == 0 uses the
// configured default; any other value outside [MinTopK, MaxTopK] is
// rejected before the store is queried.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]models.RetrievedDocument, error) {
	if k == 0 {
		k = r.config.TopK
	}
	if k < MinTopK || k > MaxTopK {
		return nil, fmt.Errorf("top_k must be between %d and %d, got %d", MinTopK, MaxTopK, k)
	}

	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question %q: %w", question, err)
	}

	docs, err := r.store.Query(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector store query failed: %w", err)
	}

	return docs, nil
}

// AssembleContext renders the retrieved chunks as labeled blocks in rank
// order, joined by blank lines. maxChunkLen > 0 shortens each chunk's
// displayed text with an ellipsis; no chunk is ever dropped for length.
func AssembleContext(docs []models.RetrievedDocument, maxChunkLen int) string {
	blocks := make([]string, 0, len(docs))

	for i, doc := range docs {
		text := doc.Chunk.Text
		if maxChunkLen > 0 {
			if runes := []rune(text); len(runes) > maxChunkLen {
				text = string(runes[:maxChunkLen]) + "..."
			}
		}
		blocks = append(blocks, fmt.Sprintf("[Source %d: %s]\n%s", i+1, doc.Chunk.Source(), text))
	}

	return strings.Join(blocks, "\n\n")
}

// Sources lists each retrieved chunk's source, deduplicated while
// preserving first-occurrence order.
func Sources(docs []models.RetrievedDocument) []string {
	sources := make([]string, 0, len(docs))
	seen := make(map[string]bool)

	for _, doc := range docs {
		src := doc.Chunk.Source()
		if seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}

	return sources
}
