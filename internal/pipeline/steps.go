package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dvloznov/fraud-analyzer/internal/fraud"
	"github.com/dvloznov/fraud-analyzer/internal/knowledge"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
	"github.com/dvloznov/fraud-analyzer/internal/metrics"
)

// Step 1: AnalyzeStep computes descriptive statistics. It is the only step
// that can fail, and only on invalid input.
type AnalyzeStep struct{}

func (s *AnalyzeStep) Execute(ctx context.Context, state *PipelineState) error {
	stats, err := fraud.Analyze(state.Transactions)
	if err != nil {
		return err
	}
	state.Statistics = stats
	return nil
}

// Step 2: DetectStep runs the pattern detector.
type DetectStep struct {
	Detector *fraud.Detector
}

func (s *DetectStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Detections = s.Detector.Detect(state.Transactions)

	log := logger.FromContext(ctx)
	for _, d := range state.Detections {
		metrics.DetectionsTotal.WithLabelValues(string(d.Pattern), string(d.Severity)).Inc()
		log.Debug().Str("pattern", string(d.Pattern)).Str("severity", string(d.Severity)).Int("count", d.Count).Msg("Pattern detected")
	}
	return nil
}

// Step 3: ScoreStep aggregates detections and outliers into a risk score.
type ScoreStep struct{}

func (s *ScoreStep) Execute(ctx context.Context, state *PipelineState) error {
	state.RiskScore = fraud.Score(state.Detections, state.Statistics)
	return nil
}

// Step 4: KnowledgeStep looks up related patterns and regulations for the
// leading detections. Lookup failures are recorded on the finding.
type KnowledgeStep struct {
	Base              KnowledgeBase
	TopN              int
	PatternResults    int
	ComplianceResults int
	Timeout           time.Duration
}

func (s *KnowledgeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.KnowledgeFindings = []KnowledgeFinding{}
	if s.Base == nil {
		return nil
	}

	n := min(s.TopN, len(state.Detections))
	for _, d := range state.Detections[:n] {
		state.KnowledgeFindings = append(state.KnowledgeFindings, s.lookup(ctx, d.Pattern))
	}
	return nil
}

func (s *KnowledgeStep) lookup(ctx context.Context, p fraud.Pattern) KnowledgeFinding {
	log := logger.FromContext(ctx).With().Str("pattern", string(p)).Logger()
	finding := KnowledgeFinding{
		Pattern:         p,
		RelatedPatterns: []RelatedPattern{},
		Regulations:     []Regulation{},
	}
	var notes []string

	patterns, err := s.query(ctx, s.Base.QueryFraudPatterns, string(p), s.PatternResults)
	if err != nil {
		log.Warn().Err(err).Msg("Fraud pattern lookup failed")
		metrics.KnowledgeFailures.WithLabelValues(knowledge.CollectionFraudPatterns).Inc()
		notes = append(notes, "fraud patterns: "+err.Error())
	}
	for _, m := range patterns {
		finding.RelatedPatterns = append(finding.RelatedPatterns, RelatedPattern{
			ID:        m.ID,
			Name:      m.Meta("pattern_name"),
			RiskLevel: metaOr(m, "risk_level", "UNKNOWN"),
			Distance:  m.Distance,
		})
	}

	docs, err := s.query(ctx, s.Base.QueryComplianceDocs, string(p), s.ComplianceResults)
	if err != nil {
		log.Warn().Err(err).Msg("Compliance document lookup failed")
		metrics.KnowledgeFailures.WithLabelValues(knowledge.CollectionComplianceDocs).Inc()
		notes = append(notes, "compliance docs: "+err.Error())
	}
	for _, m := range docs {
		finding.Regulations = append(finding.Regulations, Regulation{
			ID:       m.ID,
			Title:    metaOr(m, "title", "Unknown"),
			Distance: m.Distance,
		})
	}

	finding.Error = strings.Join(notes, "; ")
	return finding
}

type queryFunc func(ctx context.Context, text string, n int) ([]knowledge.Match, error)

func (s *KnowledgeStep) query(ctx context.Context, fn queryFunc, text string, n int) ([]knowledge.Match, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	return fn(callCtx, text, n)
}

func metaOr(m knowledge.Match, key, fallback string) string {
	if v := m.Meta(key); v != "" {
		return v
	}
	return fallback
}

// Step 5: NarrativeStep asks the language model to explain the leading
// detections, substituting canned text on any failure.
type NarrativeStep struct {
	Narrator llm.Narrator
	TopN     int
	Timeout  time.Duration
}

func (s *NarrativeStep) Execute(ctx context.Context, state *PipelineState) error {
	n := min(s.TopN, len(state.Detections))
	state.Narratives = make([]Narrative, 0, n)
	for _, d := range state.Detections[:n] {
		state.Narratives = append(state.Narratives, s.narrate(ctx, state.AccountID, d))
	}
	return nil
}

func (s *NarrativeStep) narrate(ctx context.Context, accountID string, d fraud.Detection) Narrative {
	out := Narrative{Pattern: d.Pattern, Severity: d.Severity}

	if s.Narrator == nil {
		return fallback(out, metrics.ReasonNoNarrator)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	text, err := s.Narrator.Complete(callCtx, buildNarrativePrompt(accountID, d))
	if err != nil {
		reason := fallbackReason(err)
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("pattern", string(d.Pattern)).Str("reason", reason).Msg("Narrative unavailable, using fallback")
		return fallback(out, reason)
	}

	out.Text = text
	out.Source = SourceModel
	return out
}

func fallback(n Narrative, reason string) Narrative {
	metrics.NarrativeFallbacks.WithLabelValues(reason).Inc()
	n.Text = FallbackNarrative(n.Pattern)
	n.Source = SourceFallback
	n.Reason = reason
	return n
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.ReasonTimeout
	case errors.Is(err, llm.ErrEmptyResponse):
		return metrics.ReasonEmpty
	case errors.Is(err, llm.ErrCircuitOpen):
		return metrics.ReasonCircuitOpen
	default:
		return metrics.ReasonError
	}
}
