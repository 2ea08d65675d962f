package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

const (
	chatCompletionsPath = "/v1/chat/completions"
	modelsPath          = "/v1/models"
	probeTimeout        = 2 * time.Second
)

// LocalNarrator talks to an OpenAI-compatible server such as Ollama
// (port 11434) or LM Studio (port 1234).
type LocalNarrator struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewLocalNarrator creates a narrator for the server at baseURL.
func NewLocalNarrator(baseURL, model, apiKey string, timeout time.Duration) *LocalNarrator {
	if model == "" {
		model = DefaultLocalModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LocalNarrator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server the narrator talks to.
func (l *LocalNarrator) BaseURL() string { return l.baseURL }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete posts a chat completion request.
func (l *LocalNarrator) Complete(ctx context.Context, p Prompt) (string, error) {
	req := chatRequest{Model: l.model, Temperature: p.Temperature}
	if p.System != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: p.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: p.User})

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("LocalNarrator.Complete: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("LocalNarrator.Complete: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("LocalNarrator.Complete: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("LocalNarrator.Complete: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LocalNarrator.Complete: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("LocalNarrator.Complete: unmarshal response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("LocalNarrator.Complete: server error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Discover returns the first URL whose models endpoint answers 200.
// Candidates are probed in order, each with a short timeout.
func Discover(ctx context.Context, urls []string) (string, error) {
	log := logger.FromContext(ctx)
	client := &http.Client{Timeout: probeTimeout}

	for _, u := range urls {
		base := strings.TrimRight(u, "/")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+modelsPath, nil)
		if err != nil {
			log.Debug().Err(err).Str("url", base).Msg("Skipping malformed local model URL")
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Debug().Err(err).Str("url", base).Msg("Local model server not reachable")
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			log.Info().Str("url", base).Msg("Found local model server")
			return base, nil
		}
	}

	return "", ErrNoLocalServer
}
