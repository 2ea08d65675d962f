package bigquery

import "cloud.google.com/go/bigquery"

// KnowledgeDocumentRow is one embedded knowledge-base document.
type KnowledgeDocumentRow struct {
	DocID      string            `bigquery:"doc_id"`     // REQUIRED
	Collection string            `bigquery:"collection"` // REQUIRED
	Content    string            `bigquery:"content"`    // REQUIRED
	Metadata   bigquery.NullJSON `bigquery:"metadata"`   // NULLABLE
	Embedding  []float64         `bigquery:"embedding"`  // REPEATED FLOAT64
}

// KnowledgeMatchRow is one VECTOR_SEARCH result.
type KnowledgeMatchRow struct {
	DocID      string            `bigquery:"doc_id"`
	Collection string            `bigquery:"collection"`
	Content    string            `bigquery:"content"`
	Metadata   bigquery.NullJSON `bigquery:"metadata"`
	Distance   float64           `bigquery:"distance"`
}
