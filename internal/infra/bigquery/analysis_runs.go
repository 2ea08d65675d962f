package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// Analysis run statuses.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

type AnalysisRunRow struct {
	RunID     string `bigquery:"run_id"`     // REQUIRED
	SourceURI string `bigquery:"source_uri"` // REQUIRED
	AccountID string `bigquery:"account_id"` // NULLABLE, empty means all accounts

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string             `bigquery:"status"`        // REQUIRED
	ErrorMessage string             `bigquery:"error_message"` // NULLABLE
	ReportsCount bigquery.NullInt64 `bigquery:"reports_count"` // NULLABLE
}
