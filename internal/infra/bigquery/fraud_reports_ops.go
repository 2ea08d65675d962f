package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertReport inserts one FraudReportRow into <dataset>.fraud_reports.
func InsertReport(ctx context.Context, ds Dataset, row *FraudReportRow) error {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return fmt.Errorf("InsertReport: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertReportWithClient(ctx, client, ds, row)
}

// InsertReportWithClient inserts the row with a DML INSERT so that it can be
// updated or deleted right away (no streaming buffer).
func InsertReportWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *FraudReportRow) error {
	q := client.Query(`
		INSERT INTO ` + ds.table(fraudReportsTable) + ` (
			report_id, account_id, generated_ts,
			risk_score, risk_level, detections_count,
			report_json, created_ts
		)
		VALUES (
			@report_id, @account_id, @generated_ts,
			@risk_score, @risk_level, @detections_count,
			SAFE.PARSE_JSON(@report_json), CURRENT_TIMESTAMP()
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "report_id", Value: row.ReportID},
		{Name: "account_id", Value: row.AccountID},
		{Name: "generated_ts", Value: row.GeneratedTS},
		{Name: "risk_score", Value: row.RiskScore},
		{Name: "risk_level", Value: row.RiskLevel},
		{Name: "detections_count", Value: row.DetectionsCount},
		{Name: "report_json", Value: row.ReportJSON.JSONVal},
	}

	return runDML(ctx, q, "InsertReport")
}

// ListReports returns the newest reports first. An empty accountID lists
// reports for every account.
func ListReports(ctx context.Context, ds Dataset, accountID string, limit int) ([]*FraudReportRow, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("ListReports: bigquery client: %w", err)
	}
	defer client.Close()

	return ListReportsWithClient(ctx, client, ds, accountID, limit)
}

// ListReportsWithClient is ListReports on a shared client.
func ListReportsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string, limit int) ([]*FraudReportRow, error) {
	if limit <= 0 {
		limit = 50
	}

	q := client.Query(`
		SELECT
			report_id,
			account_id,
			generated_ts,
			risk_score,
			risk_level,
			detections_count,
			report_json,
			created_ts
		FROM ` + ds.table(fraudReportsTable) + `
		WHERE @account_id = '' OR account_id = @account_id
		ORDER BY generated_ts DESC
		LIMIT @limit
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListReports: query read: %w", err)
	}

	var rows []*FraudReportRow
	for {
		var r FraudReportRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListReports: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
