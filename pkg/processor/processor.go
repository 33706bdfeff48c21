package processor

import (
	"fmt"
	"strings"

	"github.com/docqa/qalocal/internal/models"
)

// DefaultSeparators is the hierarchy of delimiters tried from coarsest to
// finest. The trailing empty string splits per character, which makes the
// recursion terminate on any input.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", " ", ""}

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// Processor splits documents into overlapping, size-bounded chunks. It is
// pure and stateless: identical input always yields identical output.
type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) (Processor, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 800
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 120
	}
	if len(config.Separators) == 0 {
		config.Separators = DefaultSeparators
	}

	if config.ChunkSize < 1 {
		return Processor{}, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	if config.ChunkOverlap < 0 {
		return Processor{}, fmt.Errorf("chunk overlap must be non-negative, got %d", config.ChunkOverlap)
	}
	if config.ChunkOverlap >= config.ChunkSize {
		return Processor{}, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)",
			config.ChunkOverlap, config.ChunkSize)
	}

	return Processor{config: config}, nil
}

// Process splits each document into chunks that inherit the document's
// metadata. Empty documents are dropped.
func (p *Processor) Process(docs []models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk

	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}
		for _, text := range p.Split(doc.Text) {
			chunks = append(chunks, models.Chunk{
				Text:     text,
				Metadata: doc.Metadata,
			})
		}
	}

	return chunks, nil
}

// Split cuts text into chunks of at most ChunkSize runes, adjacent chunks
// sharing a ChunkOverlap-rune boundary. A segment that no separator can
// break below ChunkSize is emitted unchanged as its own chunk.
func (p *Processor) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= p.config.ChunkSize {
		return []string{text}
	}
	return p.pack(p.refine(text, 0))
}

// refine recursively splits text on the separator at the given depth
// until every segment fits in ChunkSize minus the overlap, so that a
// segment appended after an overlap seed never pushes a chunk past the
// size bound. Each segment keeps its trailing separator so concatenating
// the segments reproduces the input.
func (p *Processor) refine(text string, depth int) []string {
	limit := p.config.ChunkSize - p.config.ChunkOverlap
	if len([]rune(text)) <= limit {
		return []string{text}
	}
	if depth >= len(p.config.Separators) {
		// nothing left to split on, the oversized run stays whole
		return []string{text}
	}

	sep := p.config.Separators[depth]
	var parts []string
	if sep == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		parts = splitKeepSeparator(text, sep)
	}

	var segments []string
	for _, part := range parts {
		if len([]rune(part)) > limit {
			segments = append(segments, p.refine(part, depth+1)...)
		} else {
			segments = append(segments, part)
		}
	}
	return segments
}

// pack greedily fills a buffer with consecutive segments. When a segment
// no longer fits, the buffer is emitted and the next one starts from the
// previous chunk's overlap suffix.
func (p *Processor) pack(segments []string) []string {
	var chunks []string
	var buf []rune

	for _, seg := range segments {
		segRunes := []rune(seg)

		if len(segRunes) > p.config.ChunkSize {
			// irreducible oversized segment: flush, then emit it as-is
			if len(buf) > 0 {
				chunks = append(chunks, string(buf))
			}
			chunks = append(chunks, seg)
			buf = p.overlapSuffix(segRunes)
			continue
		}

		if len(buf) > 0 && len(buf)+len(segRunes) > p.config.ChunkSize {
			chunks = append(chunks, string(buf))
			buf = p.overlapSuffix(buf)
		}
		buf = append(buf, segRunes...)
	}

	if len(buf) > 0 {
		chunks = append(chunks, string(buf))
	}
	return chunks
}

func (p *Processor) overlapSuffix(runes []rune) []rune {
	if p.config.ChunkOverlap <= 0 {
		return nil
	}
	start := len(runes) - p.config.ChunkOverlap
	if start < 0 {
		start = 0
	}
	suffix := make([]rune, len(runes)-start)
	copy(suffix, runes[start:])
	return suffix
}

func splitKeepSeparator(text, sep string) []string {
	pieces := strings.Split(text, sep)
	parts := make([]string, 0, len(pieces))
	for i, piece := range pieces {
		if i < len(pieces)-1 {
			piece += sep
		}
		if piece != "" {
			parts = append(parts, piece)
		}
	}
	return parts
}
