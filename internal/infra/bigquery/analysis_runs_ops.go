package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// maxErrorMessageLen bounds error_message.
const maxErrorMessageLen = 2000

// StartAnalysisRunWithClient inserts a RUNNING row into analysis_runs and
// returns the generated run_id.
func StartAnalysisRunWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, sourceURI, accountID string) (string, error) {
	runID := uuid.NewString()

	q := client.Query(`
		INSERT INTO ` + ds.table(analysisRunsTable) + ` (
			run_id, source_uri, account_id, started_ts, status
		)
		VALUES (
			@run_id, @source_uri, @account_id, @started_ts, @status
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "source_uri", Value: sourceURI},
		{Name: "account_id", Value: accountID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: RunStatusRunning},
	}

	if err := runDML(ctx, q, "StartAnalysisRun"); err != nil {
		return "", err
	}
	return runID, nil
}

// FinishAnalysisRunWithClient sets finished_ts and either SUCCESS with the
// report count or FAILED with the truncated error message.
func FinishAnalysisRunWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string, reports int, runErr error) error {
	status := RunStatusSuccess
	if runErr != nil {
		status = RunStatusFailed
	}

	q := client.Query(`
		UPDATE ` + ds.table(analysisRunsTable) + `
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message,
		    reports_count = @reports_count
		WHERE run_id = @run_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errorMessage(runErr)},
		{Name: "reports_count", Value: int64(reports)},
		{Name: "run_id", Value: runID},
	}

	return runDML(ctx, q, "FinishAnalysisRun")
}

// ListAnalysisRunsWithClient returns the most recent runs, newest first.
func ListAnalysisRunsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, limit int) ([]*AnalysisRunRow, error) {
	if limit <= 0 {
		limit = 50
	}

	q := client.Query(`
		SELECT run_id, source_uri, account_id, started_ts, finished_ts,
		       status, error_message, reports_count
		FROM ` + ds.table(analysisRunsTable) + `
		ORDER BY started_ts DESC
		LIMIT @limit
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAnalysisRuns: query read: %w", err)
	}

	var rows []*AnalysisRunRow
	for {
		var row struct {
			RunID        string                 `bigquery:"run_id"`
			SourceURI    string                 `bigquery:"source_uri"`
			AccountID    bigquery.NullString    `bigquery:"account_id"`
			StartedTS    time.Time              `bigquery:"started_ts"`
			FinishedTS   bigquery.NullTimestamp `bigquery:"finished_ts"`
			Status       string                 `bigquery:"status"`
			ErrorMessage bigquery.NullString    `bigquery:"error_message"`
			ReportsCount bigquery.NullInt64     `bigquery:"reports_count"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAnalysisRuns: iterating rows: %w", err)
		}
		rows = append(rows, &AnalysisRunRow{
			RunID:        row.RunID,
			SourceURI:    row.SourceURI,
			AccountID:    row.AccountID.StringVal,
			StartedTS:    row.StartedTS,
			FinishedTS:   row.FinishedTS,
			Status:       row.Status,
			ErrorMessage: row.ErrorMessage.StringVal,
			ReportsCount: row.ReportsCount,
		})
	}
	return rows, nil
}

// errorMessage renders err for error_message, truncated to maxErrorMessageLen bytes.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	return msg
}
