package knowledge

import (
	"context"
	"fmt"

	"github.com/dvloznov/fraud-analyzer/internal/config"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

// Backends accepted in configuration.
const (
	BackendMemory   = "memory"
	BackendBigQuery = "bigquery"
)

// Open returns the store selected by cfg.Knowledge. A memory store starts
// empty, so it is seeded with the built-in catalogue. The BigQuery backend
// searches index and embeds queries with Gemini; index must be non-nil.
func Open(ctx context.Context, cfg *config.Config, index VectorIndex) (Store, error) {
	log := logger.FromContext(ctx)

	switch cfg.Knowledge.Backend {
	case BackendMemory, "":
		store := NewMemoryStore()
		if err := Seed(ctx, store); err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		log.Info().Str("backend", BackendMemory).Msg("Knowledge base ready")
		return store, nil

	case BackendBigQuery:
		if index == nil {
			return nil, fmt.Errorf("Open: bigquery backend needs a warehouse connection")
		}
		embedder, err := llm.NewGeminiEmbedder(ctx, cfg.LLM.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		log.Info().Str("backend", BackendBigQuery).Str("embedding_model", cfg.LLM.EmbeddingModel).Msg("Knowledge base ready")
		return NewVectorStore(index, embedder), nil

	default:
		return nil, fmt.Errorf("Open: unknown knowledge backend %q", cfg.Knowledge.Backend)
	}
}
