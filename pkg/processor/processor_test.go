package processor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa/qalocal/internal/models"
	"github.com/docqa/qalocal/pkg/processor"
)

func TestNewWithConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  processor.ProcessorConfig
		wantErr string
	}{
		{
			name:   "defaults are valid",
			config: processor.ProcessorConfig{},
		},
		{
			name:    "overlap equal to size",
			config:  processor.ProcessorConfig{ChunkSize: 100, ChunkOverlap: 100},
			wantErr: "chunk overlap",
		},
		{
			name:    "overlap larger than size",
			config:  processor.ProcessorConfig{ChunkSize: 100, ChunkOverlap: 150},
			wantErr: "chunk overlap",
		},
		{
			name:    "negative overlap",
			config:  processor.ProcessorConfig{ChunkSize: 100, ChunkOverlap: -1},
			wantErr: "non-negative",
		},
		{
			name:    "negative size",
			config:  processor.ProcessorConfig{ChunkSize: -5, ChunkOverlap: 2},
			wantErr: "chunk size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := processor.NewWithConfig(tt.config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 100, ChunkOverlap: 10})
	require.NoError(t, err)

	text := "A short paragraph that fits."
	assert.Equal(t, []string{text}, p.Split(text))
}

func TestSplit_EmptyTextYieldsNoChunks(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 100, ChunkOverlap: 10})
	require.NoError(t, err)

	assert.Empty(t, p.Split(""))
}

func TestSplit_FrenchExample(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 30, ChunkOverlap: 5})
	require.NoError(t, err)

	text := "Le Cameroun est un pays d'Afrique centrale. Sa capitale est Yaoundé."
	chunks := p.Split(text)

	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 30)
	}

	first := []rune(chunks[0])
	assert.True(t, strings.HasPrefix(chunks[1], string(first[len(first)-5:])),
		"second chunk must start with the last 5 characters of the first")
	second := []rune(chunks[1])
	assert.True(t, strings.HasPrefix(chunks[2], string(second[len(second)-5:])),
		"third chunk must start with the last 5 characters of the second")
}

func TestSplit_SizeBound(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 40, ChunkOverlap: 8})
	require.NoError(t, err)

	text := "First paragraph with some words.\n\nSecond paragraph, a bit longer, with more words in it. " +
		"And a third sentence! Does it also have a question? Yes it does.\n\nFinal paragraph."
	for _, chunk := range p.Split(text) {
		assert.LessOrEqual(t, len([]rune(chunk)), 40)
		assert.NotEmpty(t, chunk)
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{
			name:    "paragraphs and sentences",
			text:    "One two three four five.\n\nSix seven eight nine ten. Eleven twelve!\nThirteen fourteen?",
			size:    25,
			overlap: 4,
		},
		{
			name:    "no natural separators",
			text:    strings.Repeat("abcdefghij", 20),
			size:    16,
			overlap: 3,
		},
		{
			name:    "accented text",
			text:    "Le Cameroun est un pays d'Afrique centrale. Sa capitale est Yaoundé.",
			size:    30,
			overlap: 5,
		},
		{
			name:    "newline heavy",
			text:    "a\nbb\nccc\ndddd\neeeee\nffffff\nggggggg\nhhhhhhhh\n",
			size:    12,
			overlap: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := processor.NewWithConfig(processor.ProcessorConfig{
				ChunkSize:    tt.size,
				ChunkOverlap: tt.overlap,
			})
			require.NoError(t, err)

			chunks := p.Split(tt.text)
			require.NotEmpty(t, chunks)

			rebuilt := chunks[0]
			for i := 1; i < len(chunks); i++ {
				prev := []rune(chunks[i-1])
				drop := tt.overlap
				if len(prev) < drop {
					drop = len(prev)
				}
				rebuilt += string([]rune(chunks[i])[drop:])
			}
			assert.Equal(t, tt.text, rebuilt)
		})
	}
}

func TestSplit_OverlapBound(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 30, ChunkOverlap: 6})
	require.NoError(t, err)

	text := "Alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi."
	chunks := p.Split(text)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		drop := 6
		if len(prev) < drop {
			drop = len(prev)
		}
		suffix := string(prev[len(prev)-drop:])
		assert.True(t, strings.HasPrefix(chunks[i], suffix),
			"chunk %d should start with the previous chunk's %d-rune suffix", i, drop)
	}
}

func TestSplit_Determinism(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 50, ChunkOverlap: 10})
	require.NoError(t, err)

	text := "Determinism matters here. The same input must always produce the same chunks. " +
		"Otherwise chunk ids would drift between ingestion runs."

	first := p.Split(text)
	second := p.Split(text)
	require.Equal(t, first, second)

	for i := range first {
		a := processor.ChunkID(models.Chunk{Text: first[i]}, i)
		b := processor.ChunkID(models.Chunk{Text: second[i]}, i)
		assert.Equal(t, a, b)
	}
}

func TestSplit_OversizedIndivisibleSegment(t *testing.T) {
	// Without the per-character fallback an unbreakable run stays whole
	// and may exceed the chunk size.
	p, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    10,
		ChunkOverlap: 2,
		Separators:   []string{" "},
	})
	require.NoError(t, err)

	chunks := p.Split("tiny incomprehensibilities end")
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks, "incomprehensibilities ")
}

func TestProcess_EmptyDocumentDropped(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 100, ChunkOverlap: 10})
	require.NoError(t, err)

	chunks, err := p.Process([]models.Document{{Text: "", Metadata: map[string]string{"source": "empty.txt"}}})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestProcess_MetadataInherited(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 20, ChunkOverlap: 4})
	require.NoError(t, err)

	metadata := map[string]string{"source": "notes.md", "full_path": "data/notes.md"}
	chunks, err := p.Process([]models.Document{{
		Text:     "Some words that will certainly not fit inside one single chunk.",
		Metadata: metadata,
	}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.Equal(t, metadata, chunk.Metadata)
	}
}
