package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// FraudReportRow is one generated account report. The full report is kept
// as JSON; the scalar columns exist for filtering and dashboards.
type FraudReportRow struct {
	ReportID        string            `bigquery:"report_id"`        // REQUIRED
	AccountID       string            `bigquery:"account_id"`       // REQUIRED
	GeneratedTS     time.Time         `bigquery:"generated_ts"`     // REQUIRED
	RiskScore       int64             `bigquery:"risk_score"`       // REQUIRED
	RiskLevel       string            `bigquery:"risk_level"`       // REQUIRED
	DetectionsCount int64             `bigquery:"detections_count"` // REQUIRED
	ReportJSON      bigquery.NullJSON `bigquery:"report_json"`      // REQUIRED (JSON)
	CreatedTS       time.Time         `bigquery:"created_ts"`
}
