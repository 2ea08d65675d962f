package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/bigquery"

	infra "github.com/dvloznov/fraud-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
)

// VectorIndex is the warehouse side of the vector store.
// *infra.Repository satisfies it.
type VectorIndex interface {
	UpsertKnowledgeDocuments(ctx context.Context, collection string, rows []*infra.KnowledgeDocumentRow) error
	VectorSearch(ctx context.Context, collection string, embedding []float64, topK int) ([]*infra.KnowledgeMatchRow, error)
}

// VectorStore embeds documents with a model and searches them with
// BigQuery VECTOR_SEARCH.
type VectorStore struct {
	index    VectorIndex
	embedder llm.Embedder
}

// NewVectorStore creates a VectorStore.
func NewVectorStore(index VectorIndex, embedder llm.Embedder) *VectorStore {
	return &VectorStore{index: index, embedder: embedder}
}

// Upsert embeds and stores the documents.
func (s *VectorStore) Upsert(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("VectorStore.Upsert: embed: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("VectorStore.Upsert: got %d vectors for %d documents", len(vectors), len(docs))
	}

	rows := make([]*infra.KnowledgeDocumentRow, len(docs))
	for i, d := range docs {
		meta, err := encodeMetadata(d.Metadata)
		if err != nil {
			return fmt.Errorf("VectorStore.Upsert: document %s: %w", d.ID, err)
		}
		rows[i] = &infra.KnowledgeDocumentRow{
			DocID:      d.ID,
			Collection: collection,
			Content:    d.Content,
			Metadata:   meta,
			Embedding:  toFloat64(vectors[i]),
		}
	}

	if err := s.index.UpsertKnowledgeDocuments(ctx, collection, rows); err != nil {
		return fmt.Errorf("VectorStore.Upsert: %w", err)
	}
	return nil
}

// Query embeds text and returns the n nearest documents.
func (s *VectorStore) Query(ctx context.Context, collection, text string, n int) ([]Match, error) {
	if n <= 0 {
		return []Match{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("VectorStore.Query: embed: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("VectorStore.Query: got %d vectors for one query", len(vectors))
	}

	rows, err := s.index.VectorSearch(ctx, collection, toFloat64(vectors[0]), n)
	if err != nil {
		return nil, fmt.Errorf("VectorStore.Query: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		meta, err := decodeMetadata(r.Metadata)
		if err != nil {
			return nil, fmt.Errorf("VectorStore.Query: document %s: %w", r.DocID, err)
		}
		matches = append(matches, Match{
			Document: Document{ID: r.DocID, Content: r.Content, Metadata: meta},
			Distance: r.Distance,
		})
	}
	return matches, nil
}

func encodeMetadata(meta map[string]any) (bigquery.NullJSON, error) {
	if len(meta) == 0 {
		return bigquery.NullJSON{}, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return bigquery.NullJSON{}, fmt.Errorf("marshal metadata: %w", err)
	}
	return bigquery.NullJSON{JSONVal: string(b), Valid: true}, nil
}

func decodeMetadata(v bigquery.NullJSON) (map[string]any, error) {
	if !v.Valid || v.JSONVal == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(v.JSONVal), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
