package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/fraud-analyzer/internal/fraud"
	infra "github.com/dvloznov/fraud-analyzer/internal/infra/bigquery"
)

func TestReport_ToRow(t *testing.T) {
	report, err := NewAssembler(testOptions()).GenerateReport(context.Background(), "ACC_001", allPatterns("ACC_001"))
	require.NoError(t, err)

	row, err := report.ToRow()
	require.NoError(t, err)

	assert.Equal(t, "report-1", row.ReportID)
	assert.Equal(t, "ACC_001", row.AccountID)
	assert.Equal(t, fixedTS, row.GeneratedTS)
	assert.Equal(t, int64(report.RiskScore.Score), row.RiskScore)
	assert.Equal(t, string(report.RiskScore.Level), row.RiskLevel)
	assert.Equal(t, int64(5), row.DetectionsCount)
	assert.True(t, row.ReportJSON.Valid)

	back, err := ReportFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, report.ReportID, back.ReportID)
	assert.Equal(t, report.RiskScore, back.RiskScore)
	assert.Equal(t, report.Narratives, back.Narratives)
	assert.Len(t, back.Detections, 5)
}

func TestReportFromRow_NoPayload(t *testing.T) {
	_, err := ReportFromRow(&infra.FraudReportRow{ReportID: "r1"})
	assert.Error(t, err)
}

func TestReport_CountBySeverity(t *testing.T) {
	report, err := NewAssembler(testOptions()).GenerateReport(context.Background(), "ACC_001", allPatterns("ACC_001"))
	require.NoError(t, err)

	counts := report.CountBySeverity()
	assert.Equal(t, 1, counts[fraud.SeverityCritical])
	assert.Equal(t, 2, counts[fraud.SeverityHigh])
	assert.Equal(t, 2, counts[fraud.SeverityMedium])
}
