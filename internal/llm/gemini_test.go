package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type mockModels struct {
	mock.Mock
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

func (m *mockModels) EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	resp, _ := args.Get(0).(*genai.EmbedContentResponse)
	return resp, args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func TestGeminiNarrator_Complete(t *testing.T) {
	m := &mockModels{}
	m.On("GenerateContent", mock.Anything, "gemini-test", mock.Anything, mock.Anything).
		Return(textResponse(" analysis "), nil).
		Run(func(args mock.Arguments) {
			contents := args.Get(2).([]*genai.Content)
			require.Len(t, contents, 1)
			assert.Equal(t, "prompt body", contents[0].Parts[0].Text)

			cfg := args.Get(3).(*genai.GenerateContentConfig)
			require.NotNil(t, cfg.Temperature)
			assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
			require.NotNil(t, cfg.SystemInstruction)
			assert.Equal(t, "be brief", cfg.SystemInstruction.Parts[0].Text)
		})

	g := &GeminiNarrator{models: m, model: "gemini-test"}
	text, err := g.Complete(context.Background(), Prompt{System: "be brief", User: "prompt body", Temperature: 0.3})

	require.NoError(t, err)
	assert.Equal(t, "analysis", text)
	m.AssertExpectations(t)
}

func TestGeminiNarrator_EmptyAndError(t *testing.T) {
	m := &mockModels{}
	m.On("GenerateContent", mock.Anything, "empty", mock.Anything, mock.Anything).Return(textResponse(""), nil)
	m.On("GenerateContent", mock.Anything, "broken", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))

	_, err := (&GeminiNarrator{models: m, model: "empty"}).Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = (&GeminiNarrator{models: m, model: "broken"}).Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorContains(t, err, "quota")
}

func TestGeminiEmbedder_Embed(t *testing.T) {
	m := &mockModels{}
	m.On("EmbedContent", mock.Anything, "emb", mock.Anything, mock.Anything).Return(&genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{1, 0}}, {Values: []float32{0, 1}}},
	}, nil)

	e := &GeminiEmbedder{models: m, model: "emb"}
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)

	none, err := e.Embed(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestGeminiEmbedder_CountMismatch(t *testing.T) {
	m := &mockModels{}
	m.On("EmbedContent", mock.Anything, "emb", mock.Anything, mock.Anything).Return(&genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}},
	}, nil)

	_, err := (&GeminiEmbedder{models: m, model: "emb"}).Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 embeddings for 2 texts")
}
