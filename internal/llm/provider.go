package llm

import (
	"context"
	"fmt"

	"github.com/dvloznov/fraud-analyzer/internal/config"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

// Provider names accepted in configuration.
const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
	ProviderNone   = "none"
)

// NewNarrator builds the narrator selected by cfg. It returns (nil, nil)
// for the "none" provider; callers then use canned narratives only.
func NewNarrator(ctx context.Context, cfg config.LLMConfig) (Narrator, error) {
	log := logger.FromContext(ctx)

	switch cfg.Provider {
	case ProviderNone, "":
		log.Info().Msg("Language model disabled, narratives will use fallback text")
		return nil, nil

	case ProviderGemini:
		g, err := NewGeminiNarrator(ctx, cfg.Model)
		if err != nil {
			return nil, err
		}
		return NewBreakerNarrator(ctx, "gemini", g, 0, 0), nil

	case ProviderLocal:
		baseURL, err := Discover(ctx, cfg.LocalURLs)
		if err != nil {
			return nil, fmt.Errorf("NewNarrator: %w (tried %v)", err, cfg.LocalURLs)
		}
		l := NewLocalNarrator(baseURL, cfg.Model, cfg.APIKey, cfg.Timeout)
		return NewBreakerNarrator(ctx, "local", l, 0, 0), nil

	default:
		return nil, fmt.Errorf("NewNarrator: unknown provider %q", cfg.Provider)
	}
}
