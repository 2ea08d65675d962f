// Package llm wraps the language models used for fraud narratives and
// knowledge-base embeddings.
package llm

import (
	"context"
	"errors"
)

// Default model names.
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultLocalModel     = "gemma3:1b"
)

var (
	// ErrEmptyResponse is returned when a model answers with no text.
	ErrEmptyResponse = errors.New("llm: empty response from model")

	// ErrNoLocalServer is returned by Discover when no candidate answers.
	ErrNoLocalServer = errors.New("llm: no local model server reachable")
)

// Prompt is a single chat-style request.
type Prompt struct {
	System      string
	User        string
	Temperature float32
}

// Narrator turns a prompt into free text.
// This interface enables mocking of model calls in tests.
type Narrator interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Embedder turns texts into dense vectors, one per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
