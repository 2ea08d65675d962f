package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// Table names in the fraud dataset.
const (
	transactionsTable       = "transactions"
	fraudReportsTable       = "fraud_reports"
	knowledgeDocumentsTable = "knowledge_documents"
	analysisRunsTable       = "analysis_runs"
)

// Dataset locates the fraud tables.
type Dataset struct {
	ProjectID string
	DatasetID string
}

// table returns the fully qualified, backtick-quoted table name.
func (d Dataset) table(name string) string {
	return "`" + d.ProjectID + "." + d.DatasetID + "." + name + "`"
}

// runDML runs a DML statement and waits for it to finish.
func runDML(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}

	return nil
}
