package pipeline

import (
	"context"

	"github.com/dvloznov/fraud-analyzer/internal/knowledge"
)

// KnowledgeBase looks up reference material for a detected pattern.
// *knowledge.Base satisfies it; tests substitute mocks.
type KnowledgeBase interface {
	QueryFraudPatterns(ctx context.Context, text string, n int) ([]knowledge.Match, error)
	QueryComplianceDocs(ctx context.Context, text string, n int) ([]knowledge.Match, error)
}
