package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// UpsertKnowledgeDocuments replaces documents of one collection by doc_id.
func UpsertKnowledgeDocuments(ctx context.Context, ds Dataset, collection string, rows []*KnowledgeDocumentRow) error {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return fmt.Errorf("UpsertKnowledgeDocuments: bigquery client: %w", err)
	}
	defer client.Close()

	return UpsertKnowledgeDocumentsWithClient(ctx, client, ds, collection, rows)
}

// UpsertKnowledgeDocumentsWithClient deletes the existing ids, then inserts
// each row with DML so that a later re-seed can delete them again.
func UpsertKnowledgeDocumentsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, collection string, rows []*KnowledgeDocumentRow) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.DocID
	}

	del := client.Query(`
		DELETE FROM ` + ds.table(knowledgeDocumentsTable) + `
		WHERE collection = @collection
		  AND doc_id IN UNNEST(@doc_ids)
	`)
	del.Parameters = []bigquery.QueryParameter{
		{Name: "collection", Value: collection},
		{Name: "doc_ids", Value: ids},
	}
	if err := runDML(ctx, del, "UpsertKnowledgeDocuments: delete"); err != nil {
		return err
	}

	for _, r := range rows {
		ins := client.Query(`
			INSERT INTO ` + ds.table(knowledgeDocumentsTable) + ` (
				doc_id, collection, content, metadata, embedding
			)
			VALUES (
				@doc_id, @collection, @content, SAFE.PARSE_JSON(@metadata), @embedding
			)
		`)
		ins.Parameters = []bigquery.QueryParameter{
			{Name: "doc_id", Value: r.DocID},
			{Name: "collection", Value: collection},
			{Name: "content", Value: r.Content},
			{Name: "metadata", Value: r.Metadata.JSONVal},
			{Name: "embedding", Value: r.Embedding},
		}
		if err := runDML(ctx, ins, "UpsertKnowledgeDocuments: insert "+r.DocID); err != nil {
			return err
		}
	}

	return nil
}

// VectorSearch returns the topK nearest documents of a collection by cosine distance.
func VectorSearch(ctx context.Context, ds Dataset, collection string, embedding []float64, topK int) ([]*KnowledgeMatchRow, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("VectorSearch: bigquery client: %w", err)
	}
	defer client.Close()

	return VectorSearchWithClient(ctx, client, ds, collection, embedding, topK)
}

// VectorSearchWithClient is VectorSearch on a shared client.
func VectorSearchWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, collection string, embedding []float64, topK int) ([]*KnowledgeMatchRow, error) {
	if topK <= 0 || len(embedding) == 0 {
		return nil, nil
	}

	// top_k must be a literal.
	q := client.Query(fmt.Sprintf(`
		SELECT
			base.doc_id AS doc_id,
			base.collection AS collection,
			base.content AS content,
			base.metadata AS metadata,
			distance
		FROM VECTOR_SEARCH(
			(SELECT * FROM %s WHERE collection = @collection),
			'embedding',
			(SELECT @embedding AS embedding),
			top_k => %d,
			distance_type => 'COSINE'
		)
		ORDER BY distance, doc_id
	`, ds.table(knowledgeDocumentsTable), topK))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "collection", Value: collection},
		{Name: "embedding", Value: embedding},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("VectorSearch: query read: %w", err)
	}

	var rows []*KnowledgeMatchRow
	for {
		var r KnowledgeMatchRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("VectorSearch: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
