package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

// Repository holds a shared BigQuery client for all fraud tables so that
// callers avoid opening a new connection per operation.
type Repository struct {
	client *bigquery.Client
	ds     Dataset
}

// NewRepository creates a Repository. credentialsFile may be empty to use
// application default credentials.
func NewRepository(ctx context.Context, ds Dataset, credentialsFile string) (*Repository, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, ds.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client, ds: ds}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Dataset returns the dataset the repository writes to.
func (r *Repository) Dataset() Dataset { return r.ds }

func (r *Repository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	return InsertTransactionsWithClient(ctx, r.client, r.ds, rows)
}

func (r *Repository) QueryTransactionsByAccount(ctx context.Context, accountID string) ([]*TransactionRow, error) {
	return QueryTransactionsByAccountWithClient(ctx, r.client, r.ds, accountID)
}

func (r *Repository) ListAccountIDs(ctx context.Context) ([]string, error) {
	return ListAccountIDsWithClient(ctx, r.client, r.ds)
}

func (r *Repository) InsertReport(ctx context.Context, row *FraudReportRow) error {
	return InsertReportWithClient(ctx, r.client, r.ds, row)
}

func (r *Repository) ListReports(ctx context.Context, accountID string, limit int) ([]*FraudReportRow, error) {
	return ListReportsWithClient(ctx, r.client, r.ds, accountID, limit)
}

func (r *Repository) UpsertKnowledgeDocuments(ctx context.Context, collection string, rows []*KnowledgeDocumentRow) error {
	return UpsertKnowledgeDocumentsWithClient(ctx, r.client, r.ds, collection, rows)
}

func (r *Repository) VectorSearch(ctx context.Context, collection string, embedding []float64, topK int) ([]*KnowledgeMatchRow, error) {
	return VectorSearchWithClient(ctx, r.client, r.ds, collection, embedding, topK)
}

func (r *Repository) StartAnalysisRun(ctx context.Context, sourceURI, accountID string) (string, error) {
	return StartAnalysisRunWithClient(ctx, r.client, r.ds, sourceURI, accountID)
}

func (r *Repository) FinishAnalysisRun(ctx context.Context, runID string, reports int, runErr error) error {
	return FinishAnalysisRunWithClient(ctx, r.client, r.ds, runID, reports, runErr)
}

func (r *Repository) ListAnalysisRuns(ctx context.Context, limit int) ([]*AnalysisRunRow, error) {
	return ListAnalysisRunsWithClient(ctx, r.client, r.ds, limit)
}
