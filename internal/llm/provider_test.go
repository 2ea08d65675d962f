package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/fraud-analyzer/internal/config"
)

func TestNewNarrator_None(t *testing.T) {
	n, err := NewNarrator(context.Background(), config.LLMConfig{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestNewNarrator_Unknown(t *testing.T) {
	_, err := NewNarrator(context.Background(), config.LLMConfig{Provider: "openai"})
	assert.ErrorContains(t, err, `unknown provider "openai"`)
}

func TestNewNarrator_LocalDiscovers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case modelsPath:
			_, _ = w.Write([]byte(`{"data":[]}`))
		case chatCompletionsPath:
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"local answer"}}]}`))
		}
	}))
	defer srv.Close()

	n, err := NewNarrator(context.Background(), config.LLMConfig{
		Provider:  ProviderLocal,
		Model:     "gemma3:1b",
		LocalURLs: []string{srv.URL},
	})
	require.NoError(t, err)

	text, err := n.Complete(context.Background(), Prompt{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "local answer", text)
}

func TestNewNarrator_LocalUnreachable(t *testing.T) {
	_, err := NewNarrator(context.Background(), config.LLMConfig{
		Provider:  ProviderLocal,
		LocalURLs: []string{"http://127.0.0.1:1"},
	})
	assert.ErrorIs(t, err, ErrNoLocalServer)
}
