package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiNarrator calls Gemini through the genai SDK.
type GeminiNarrator struct {
	models contentGenerator
	model  string
}

// NewGeminiNarrator creates a genai client using the ambient credentials
// (GOOGLE_API_KEY or Vertex AI environment).
func NewGeminiNarrator(ctx context.Context, model string) (*GeminiNarrator, error) {
	client, err := newGenAIClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiNarrator: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiNarrator{models: client.Models, model: model}, nil
}

// Complete sends the prompt and returns the model's text.
func (g *GeminiNarrator) Complete(ctx context.Context, p Prompt) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: p.User}},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.Temperature),
	}
	if p.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: p.System}},
		}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("GeminiNarrator.Complete: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GeminiEmbedder produces embeddings with a Gemini embedding model.
type GeminiEmbedder struct {
	models contentEmbedder
	model  string
}

// NewGeminiEmbedder creates a genai-backed embedder.
func NewGeminiEmbedder(ctx context.Context, model string) (*GeminiEmbedder, error) {
	client, err := newGenAIClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiEmbedder: %w", err)
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &GeminiEmbedder{models: client.Models, model: model}, nil
}

// Embed returns one vector per text, in input order.
func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}}
	}

	resp, err := g.models.EmbedContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("GeminiEmbedder.Embed: embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("GeminiEmbedder.Embed: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

func newGenAIClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}
