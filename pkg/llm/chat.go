package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/docqa/qalocal/internal/models"
	"github.com/docqa/qalocal/pkg/retriever"
)

// NoResultAnswer is returned, without error, when retrieval finds no
// relevant chunk at all.
const NoResultAnswer = "Je n'ai trouvé aucun document pertinent pour répondre à votre question."

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	Language     string // language the model is instructed to answer in
	ContextLimit int    // max runes of chunk text shown to the model, 0 means unlimited
	BaseURL      string // Ollama server URL
}

// ChatEngine answers questions from retrieved context. The generated
// text is returned verbatim; no local post-processing is applied.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a ChatEngine backed by an Ollama chat model.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	applyChatDefaults(&config)

	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{config: config, llm: model}, nil
}

// NewWithModel creates a ChatEngine around an existing model. Used by
// tests to substitute the generation call.
func NewWithModel(config ChatConfig, model llms.Model) *ChatEngine {
	applyChatDefaults(&config)
	return &ChatEngine{config: config, llm: model}
}

func applyChatDefaults(config *ChatConfig) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Language == "" {
		config.Language = "French"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
}

// Answer builds a grounded prompt from the retrieved chunks and the
// question, delegates generation, and pairs the generated text with the
// deduplicated source list.
func (ce *ChatEngine) Answer(ctx context.Context, question string, docs []models.RetrievedDocument) (*models.Answer, error) {
	if len(docs) == 0 {
		return &models.Answer{Text: NoResultAnswer, Sources: []string{}}, nil
	}

	contextText := retriever.AssembleContext(docs, ce.config.ContextLimit)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.systemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf("CONTEXTE:\n%s\n\nQUESTION: %s", contextText, question)),
	}

	resp, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("generation failed for question %q: %w", question, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	return &models.Answer{
		Text:    resp.Choices[0].Content,
		Sources: retriever.Sources(docs),
	}, nil
}

func (ce *ChatEngine) systemPrompt() string {
	return fmt.Sprintf(
		"You are a precise and helpful question-answering assistant. "+
			"Answer in %s, using only the provided context. "+
			"If the information is not in the context, say so clearly. "+
			"Be concise but complete.",
		ce.config.Language)
}
