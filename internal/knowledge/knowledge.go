// Package knowledge stores reference documents about fraud patterns and
// compliance rules and answers similarity queries over them.
package knowledge

import (
	"context"
	"fmt"
)

// Collection names.
const (
	CollectionFraudPatterns  = "fraud_patterns"
	CollectionComplianceDocs = "financial_documents"
	CollectionPolicies       = "company_policies"
)

// Document is one stored text with free-form metadata.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is a query result. Lower distance means more similar.
type Match struct {
	Document
	Distance float64 `json:"distance"`
}

// Meta returns a metadata value as a string, or "" when absent.
func (m Match) Meta(key string) string {
	v, ok := m.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Store is a collection-scoped document index.
type Store interface {
	Upsert(ctx context.Context, collection string, docs []Document) error
	Query(ctx context.Context, collection, text string, n int) ([]Match, error)
}

// Base is the fraud knowledge base used by the report assembler.
type Base struct {
	store Store
}

// NewBase wraps a store.
func NewBase(store Store) *Base {
	return &Base{store: store}
}

// QueryFraudPatterns returns up to n known fraud patterns similar to text.
func (b *Base) QueryFraudPatterns(ctx context.Context, text string, n int) ([]Match, error) {
	matches, err := b.store.Query(ctx, CollectionFraudPatterns, text, n)
	if err != nil {
		return nil, fmt.Errorf("QueryFraudPatterns: %w", err)
	}
	return matches, nil
}

// QueryComplianceDocs returns up to n compliance documents similar to text.
func (b *Base) QueryComplianceDocs(ctx context.Context, text string, n int) ([]Match, error) {
	matches, err := b.store.Query(ctx, CollectionComplianceDocs, text, n)
	if err != nil {
		return nil, fmt.Errorf("QueryComplianceDocs: %w", err)
	}
	return matches, nil
}
