package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/docqa/qalocal/internal/models"
	"github.com/docqa/qalocal/pkg/llm"
)

type fakeModel struct {
	calls    int
	messages []llms.MessageContent
	reply    string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = messages
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.reply, nil
}

func messageText(m llms.MessageContent) string {
	var out string
	for _, part := range m.Parts {
		if text, ok := part.(llms.TextContent); ok {
			out += text.Text
		}
	}
	return out
}

func retrieved(source, text string) models.RetrievedDocument {
	return models.RetrievedDocument{
		Chunk: models.Chunk{Text: text, Metadata: map[string]string{"source": source}},
	}
}

func TestAnswer_NoDocumentsReturnsFixedAnswer(t *testing.T) {
	model := &fakeModel{reply: "should never be used"}
	engine := llm.NewWithModel(llm.ChatConfig{}, model)

	answer, err := engine.Answer(context.Background(), "Quelle est la capitale?", nil)
	require.NoError(t, err)
	assert.Equal(t, llm.NoResultAnswer, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, model.calls, "the model must not be called without context")
}

func TestAnswer_PromptShape(t *testing.T) {
	model := &fakeModel{reply: "Yaoundé."}
	engine := llm.NewWithModel(llm.ChatConfig{Language: "French"}, model)

	docs := []models.RetrievedDocument{
		retrieved("cameroun.txt", "Sa capitale est Yaoundé."),
		retrieved("geo.txt", "Le Cameroun est un pays d'Afrique centrale."),
	}

	answer, err := engine.Answer(context.Background(), "Quelle est la capitale du Cameroun?", docs)
	require.NoError(t, err)
	require.Len(t, model.messages, 2)

	system := model.messages[0]
	assert.Equal(t, llms.ChatMessageTypeSystem, system.Role)
	assert.Contains(t, messageText(system), "French")

	human := model.messages[1]
	assert.Equal(t, llms.ChatMessageTypeHuman, human.Role)
	humanText := messageText(human)
	assert.Contains(t, humanText, "CONTEXTE:")
	assert.Contains(t, humanText, "[Source 1: cameroun.txt]")
	assert.Contains(t, humanText, "Sa capitale est Yaoundé.")
	assert.Contains(t, humanText, "QUESTION: Quelle est la capitale du Cameroun?")

	assert.Equal(t, "Yaoundé.", answer.Text)
	assert.Equal(t, []string{"cameroun.txt", "geo.txt"}, answer.Sources)
}

func TestAnswer_SourcesDeduplicated(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	engine := llm.NewWithModel(llm.ChatConfig{}, model)

	docs := []models.RetrievedDocument{
		retrieved("a.txt", "one"),
		retrieved("b.txt", "two"),
		retrieved("a.txt", "three"),
	}

	answer, err := engine.Answer(context.Background(), "q", docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, answer.Sources)
}

func TestNewWithConfig_RejectsBadTemperature(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{Temperature: 3})
	assert.Error(t, err)
}
