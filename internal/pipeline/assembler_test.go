package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
	"github.com/dvloznov/fraud-analyzer/internal/fraud"
	"github.com/dvloznov/fraud-analyzer/internal/knowledge"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
	"github.com/dvloznov/fraud-analyzer/internal/metrics"
)

func TestGenerateReport_WithoutCollaborators(t *testing.T) {
	a := NewAssembler(testOptions())

	report, err := a.GenerateReport(context.Background(), "ACC_001", allPatterns("ACC_001"))
	require.NoError(t, err)

	assert.Equal(t, "report-1", report.ReportID)
	assert.Equal(t, "ACC_001", report.AccountID)
	assert.Equal(t, fixedTS, report.Timestamp)
	require.NotNil(t, report.Statistics)
	assert.Equal(t, 36, report.Statistics.TotalTransactions)
	require.Len(t, report.Detections, 5)

	assert.NotNil(t, report.KnowledgeFindings)
	assert.Empty(t, report.KnowledgeFindings)

	require.Len(t, report.Narratives, DefaultNarrativeTopN)
	for i, n := range report.Narratives {
		assert.Equal(t, report.Detections[i].Pattern, n.Pattern)
		assert.Equal(t, report.Detections[i].Severity, n.Severity)
		assert.Equal(t, SourceFallback, n.Source)
		assert.Equal(t, metrics.ReasonNoNarrator, n.Reason)
		assert.Equal(t, FallbackNarrative(n.Pattern), n.Text)
	}
}

func TestGenerateReport_AccountFromRows(t *testing.T) {
	a := NewAssembler(testOptions())

	report, err := a.GenerateReport(context.Background(), "", quiet("ACC_007"))
	require.NoError(t, err)

	assert.Equal(t, "ACC_007", report.AccountID)
	assert.Empty(t, report.Detections)
	assert.Empty(t, report.Narratives)
	assert.Equal(t, fraud.LevelLow, report.RiskScore.Level)
}

func TestGenerateReport_InvalidInput(t *testing.T) {
	a := NewAssembler(testOptions())
	b := newBuilder("ACC_001")

	tests := []struct {
		name      string
		accountID string
		txs       []domain.Transaction
	}{
		{"empty table", "ACC_001", nil},
		{"empty table without account", "", nil},
		{"foreign row", "ACC_002", []domain.Transaction{b.tx(10)}},
		{"negative amount", "ACC_001", []domain.Transaction{b.tx(10), b.tx(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := a.GenerateReport(context.Background(), tt.accountID, tt.txs)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, fraud.ErrInvalidInput)
		})
	}
}

func TestGenerateReport_KnowledgeLookups(t *testing.T) {
	kb := new(mockKnowledge)
	kb.On("QueryFraudPatterns", mock.Anything, DefaultPatternResults).Return([]knowledge.Match{
		match("fp_005", 0.1, map[string]any{"pattern_name": "Structuring", "risk_level": "HIGH"}),
		match("fp_999", 0.7, nil),
	}, nil)
	kb.On("QueryComplianceDocs", mock.Anything, DefaultComplianceResults).Return([]knowledge.Match{
		match("comp_001", 0.2, map[string]any{"title": "Bank Secrecy Act"}),
		match("comp_404", 0.9, nil),
	}, nil)

	opts := testOptions()
	opts.Knowledge = kb
	report, err := NewAssembler(opts).GenerateReport(context.Background(), "ACC_001", allPatterns("ACC_001"))
	require.NoError(t, err)

	require.Len(t, report.KnowledgeFindings, DefaultKnowledgeTopN)
	for i, f := range report.KnowledgeFindings {
		assert.Equal(t, report.Detections[i].Pattern, f.Pattern)
		assert.Empty(t, f.Error)
		assert.Equal(t, []RelatedPattern{
			{ID: "fp_005", Name: "Structuring", RiskLevel: "HIGH", Distance: 0.1},
			{ID: "fp_999", Name: "", RiskLevel: "UNKNOWN", Distance: 0.7},
		}, f.RelatedPatterns)
		assert.Equal(t, []Regulation{
			{ID: "comp_001", Title: "Bank Secrecy Act", Distance: 0.2},
			{ID: "comp_404", Title: "Unknown", Distance: 0.9},
		}, f.Regulations)
	}

	kb.AssertNumberOfCalls(t, "QueryFraudPatterns", DefaultKnowledgeTopN)
	kb.AssertNumberOfCalls(t, "QueryComplianceDocs", DefaultKnowledgeTopN)
	kb.AssertCalled(t, "QueryFraudPatterns", string(fraud.PatternUnusualAmounts), DefaultPatternResults)
	kb.AssertCalled(t, "QueryFraudPatterns", string(fraud.PatternStructuring), DefaultPatternResults)
	kb.AssertNotCalled(t, "QueryFraudPatterns", string(fraud.PatternDuplicates), mock.Anything)
}

func TestGenerateReport_KnowledgeFailureDegrades(t *testing.T) {
	kb := new(mockKnowledge)
	kb.On("QueryFraudPatterns", mock.Anything, mock.Anything).Return(nil, errors.New("index offline"))
	kb.On("QueryComplianceDocs", mock.Anything, mock.Anything).Return([]knowledge.Match{
		match("comp_002", 0.3, map[string]any{"title": "KYC"}),
	}, nil)

	opts := testOptions()
	opts.Knowledge = kb
	report, err := NewAssembler(opts).GenerateReport(context.Background(), "ACC_001", allPatterns("ACC_001"))
	require.NoError(t, err)

	require.Len(t, report.KnowledgeFindings, 3)
	f := report.KnowledgeFindings[0]
	assert.NotNil(t, f.RelatedPatterns)
	assert.Empty(t, f.RelatedPatterns)
	assert.Len(t, f.Regulations, 1)
	assert.Contains(t, f.Error, "index offline")
	assert.Len(t, report.Narratives, 2)
}

func TestGenerateReport_ModelNarratives(t *testing.T) {
	narrator := new(mockNarrator)
	narrator.On("Complete", mock.MatchedBy(func(p llm.Prompt) bool {
		return strings.Contains(p.User, string(fraud.PatternUnusualAmounts))
	})).Return("Amounts far above baseline.", nil)
	narrator.On("Complete", mock.Anything).Return("", errors.New("quota exceeded"))

	opts := testOptions()
	opts.Narrator = narrator
	report, err := NewAssembler(opts).GenerateReport(context.Background(), "ACC_001", allPatterns("ACC_001"))
	require.NoError(t, err)

	require.Len(t, report.Narratives, 2)
	assert.Equal(t, Narrative{
		Pattern:  fraud.PatternUnusualAmounts,
		Severity: fraud.SeverityHigh,
		Text:     "Amounts far above baseline.",
		Source:   SourceModel,
	}, report.Narratives[0])

	second := report.Narratives[1]
	assert.Equal(t, fraud.PatternRapidDraining, second.Pattern)
	assert.Equal(t, SourceFallback, second.Source)
	assert.Equal(t, metrics.ReasonError, second.Reason)
	assert.Equal(t, rapidDrainingAnalysis, second.Text)

	narrator.AssertNumberOfCalls(t, "Complete", 2)
}

func TestGenerateReport_NarrativeFallbackReasons(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"deadline", context.DeadlineExceeded, metrics.ReasonTimeout},
		{"empty", llm.ErrEmptyResponse, metrics.ReasonEmpty},
		{"breaker open", llm.ErrCircuitOpen, metrics.ReasonCircuitOpen},
		{"other", errors.New("boom"), metrics.ReasonError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.Narrator = narratorFunc(func(ctx context.Context, p llm.Prompt) (string, error) {
				return "", tt.err
			})
			report, err := NewAssembler(opts).GenerateReport(context.Background(), "ACC_001", allPatterns("ACC_001"))
			require.NoError(t, err)

			for _, n := range report.Narratives {
				assert.Equal(t, SourceFallback, n.Source)
				assert.Equal(t, tt.reason, n.Reason)
			}
		})
	}
}

func TestGenerateReport_NarrativeTimeout(t *testing.T) {
	opts := testOptions()
	opts.NarrativeTimeout = 10 * time.Millisecond
	opts.Narrator = narratorFunc(func(ctx context.Context, p llm.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	report, err := NewAssembler(opts).GenerateReport(context.Background(), "ACC_001", allPatterns("ACC_001"))
	require.NoError(t, err)

	require.Len(t, report.Narratives, 2)
	assert.Equal(t, metrics.ReasonTimeout, report.Narratives[0].Reason)
}

func TestGenerateReport_PromptCarriesDetection(t *testing.T) {
	var prompts []llm.Prompt
	opts := testOptions()
	opts.NarrativeTopN = 1
	opts.Narrator = narratorFunc(func(ctx context.Context, p llm.Prompt) (string, error) {
		prompts = append(prompts, p)
		return "ok", nil
	})

	_, err := NewAssembler(opts).GenerateReport(context.Background(), "ACC_042", allPatterns("ACC_042"))
	require.NoError(t, err)

	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0].User, "Pattern: Unusual Transaction Amounts")
	assert.Contains(t, prompts[0].User, "Severity Level: HIGH")
	assert.Contains(t, prompts[0].User, "Account: ACC_042")
	assert.Equal(t, float32(NarrativeTemperature), prompts[0].Temperature)
	assert.NotEmpty(t, prompts[0].System)
}

func TestGenerateReport_SeededKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	store := knowledge.NewMemoryStore()
	require.NoError(t, knowledge.Seed(ctx, store))

	opts := testOptions()
	opts.Knowledge = knowledge.NewBase(store)
	txs := newBuilder("ACC_002").repeat(4, 9700)

	report, err := NewAssembler(opts).GenerateReport(ctx, "ACC_002", txs)
	require.NoError(t, err)

	require.Len(t, report.Detections, 1)
	assert.Equal(t, fraud.PatternStructuring, report.Detections[0].Pattern)

	require.Len(t, report.KnowledgeFindings, 1)
	f := report.KnowledgeFindings[0]
	require.NotEmpty(t, f.RelatedPatterns)
	assert.Equal(t, "fp_005", f.RelatedPatterns[0].ID)
	require.NotEmpty(t, f.Regulations)
	assert.Equal(t, "comp_001", f.Regulations[0].ID)
}

func TestGenerateReports_OrderAndPartialFailure(t *testing.T) {
	var txs []domain.Transaction
	txs = append(txs, quiet("ACC_B")...)
	txs = append(txs, allPatterns("ACC_A")...)
	bad := newBuilder("ACC_C")
	txs = append(txs, bad.tx(10), bad.tx(-5))
	txs = append(txs, quiet("ACC_B")[0])

	opts := testOptions()
	opts.NewID = func() string { return "id" }
	opts.Workers = 2
	reports, err := NewAssembler(opts).GenerateReports(context.Background(), txs)

	require.Error(t, err)
	assert.ErrorIs(t, err, fraud.ErrInvalidInput)
	assert.Contains(t, err.Error(), "ACC_C")

	require.Len(t, reports, 2)
	assert.Equal(t, "ACC_B", reports[0].AccountID)
	assert.Equal(t, 5, reports[0].Statistics.TotalTransactions)
	assert.Equal(t, "ACC_A", reports[1].AccountID)
}

func TestGenerateReports_EmptyTable(t *testing.T) {
	reports, err := NewAssembler(testOptions()).GenerateReports(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, reports)
}
