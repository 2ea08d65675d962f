package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/fraud-analyzer/internal/fraud"
	infra "github.com/dvloznov/fraud-analyzer/internal/infra/bigquery"
)

// Report is the full analysis of one account.
type Report struct {
	ReportID          string             `json:"report_id"`
	AccountID         string             `json:"account_id"`
	Timestamp         time.Time          `json:"timestamp"`
	Statistics        *fraud.Statistics  `json:"statistics"`
	Detections        []fraud.Detection  `json:"detections"`
	RiskScore         fraud.RiskScore    `json:"risk_score"`
	KnowledgeFindings []KnowledgeFinding `json:"knowledge_findings"`
	Narratives        []Narrative        `json:"narratives"`
}

// RelatedPattern is a knowledge-base fraud pattern similar to a detection.
type RelatedPattern struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	RiskLevel string  `json:"risk_level"`
	Distance  float64 `json:"distance"`
}

// Regulation is a compliance document relevant to a detection.
type Regulation struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Distance float64 `json:"distance"`
}

// KnowledgeFinding holds the knowledge-base lookups for one detection.
// Error is set when a lookup failed; the matching list is then empty.
type KnowledgeFinding struct {
	Pattern         fraud.Pattern    `json:"pattern"`
	RelatedPatterns []RelatedPattern `json:"related_patterns"`
	Regulations     []Regulation     `json:"regulations"`
	Error           string           `json:"error,omitempty"`
}

// Narrative is the free-text analysis of one detection.
type Narrative struct {
	Pattern  fraud.Pattern  `json:"pattern"`
	Severity fraud.Severity `json:"severity"`
	Text     string         `json:"text"`
	// Source is SourceModel or SourceFallback.
	Source string `json:"source"`
	// Reason explains a fallback.
	Reason string `json:"reason,omitempty"`
}

// CountBySeverity counts the report's detections per severity.
func (r *Report) CountBySeverity() map[fraud.Severity]int {
	return fraud.CountBySeverity(r.Detections)
}

// ToRow converts the report to its warehouse row.
func (r *Report) ToRow() (*infra.FraudReportRow, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("Report.ToRow: marshal report %s: %w", r.ReportID, err)
	}
	return &infra.FraudReportRow{
		ReportID:        r.ReportID,
		AccountID:       r.AccountID,
		GeneratedTS:     r.Timestamp,
		RiskScore:       int64(r.RiskScore.Score),
		RiskLevel:       string(r.RiskScore.Level),
		DetectionsCount: int64(len(r.Detections)),
		ReportJSON:      bigquery.NullJSON{JSONVal: string(payload), Valid: true},
	}, nil
}

// ReportFromRow decodes the JSON payload of a warehouse row.
func ReportFromRow(row *infra.FraudReportRow) (*Report, error) {
	if !row.ReportJSON.Valid {
		return nil, fmt.Errorf("ReportFromRow: report %s has no payload", row.ReportID)
	}
	var r Report
	if err := json.Unmarshal([]byte(row.ReportJSON.JSONVal), &r); err != nil {
		return nil, fmt.Errorf("ReportFromRow: unmarshal report %s: %w", row.ReportID, err)
	}
	return &r, nil
}
