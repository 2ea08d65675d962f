package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/fraud-analyzer/internal/config"
	"github.com/dvloznov/fraud-analyzer/internal/domain"
	"github.com/dvloznov/fraud-analyzer/internal/fraud"
	"github.com/dvloznov/fraud-analyzer/internal/ingest"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
	"github.com/dvloznov/fraud-analyzer/internal/metrics"
)

// Options configures an Assembler. Zero values take the package defaults.
type Options struct {
	Detector *fraud.Detector
	// Knowledge may be nil, in which case reports carry no findings.
	Knowledge KnowledgeBase
	// Narrator may be nil, in which case every narrative is a fallback.
	Narrator llm.Narrator

	KnowledgeTopN     int
	NarrativeTopN     int
	PatternResults    int
	ComplianceResults int
	KnowledgeTimeout  time.Duration
	NarrativeTimeout  time.Duration
	Workers           int

	Now   func() time.Time
	NewID func() string
}

// OptionsFromConfig fills the tunables from cfg. Collaborators are left to the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		KnowledgeTopN:     cfg.Analysis.KnowledgeTopN,
		NarrativeTopN:     cfg.Analysis.NarrativeTopN,
		PatternResults:    cfg.Knowledge.PatternResults,
		ComplianceResults: cfg.Knowledge.ComplianceResults,
		KnowledgeTimeout:  cfg.Knowledge.Timeout,
		NarrativeTimeout:  cfg.LLM.Timeout,
		Workers:           cfg.Analysis.Workers,
	}
}

func (o *Options) applyDefaults() {
	if o.Detector == nil {
		o.Detector = fraud.NewDetector()
	}
	if o.KnowledgeTopN <= 0 {
		o.KnowledgeTopN = DefaultKnowledgeTopN
	}
	if o.NarrativeTopN <= 0 {
		o.NarrativeTopN = DefaultNarrativeTopN
	}
	if o.PatternResults <= 0 {
		o.PatternResults = DefaultPatternResults
	}
	if o.ComplianceResults <= 0 {
		o.ComplianceResults = DefaultComplianceResults
	}
	if o.KnowledgeTimeout <= 0 {
		o.KnowledgeTimeout = DefaultKnowledgeTimeout
	}
	if o.NarrativeTimeout <= 0 {
		o.NarrativeTimeout = DefaultNarrativeTimeout
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
}

// Assembler produces per-account fraud reports.
type Assembler struct {
	opts     Options
	pipeline *Pipeline
}

// NewAssembler builds the five-step report pipeline.
func NewAssembler(opts Options) *Assembler {
	opts.applyDefaults()
	return &Assembler{
		opts: opts,
		pipeline: NewPipeline(
			&AnalyzeStep{},
			&DetectStep{Detector: opts.Detector},
			&ScoreStep{},
			&KnowledgeStep{
				Base:              opts.Knowledge,
				TopN:              opts.KnowledgeTopN,
				PatternResults:    opts.PatternResults,
				ComplianceResults: opts.ComplianceResults,
				Timeout:           opts.KnowledgeTimeout,
			},
			&NarrativeStep{
				Narrator: opts.Narrator,
				TopN:     opts.NarrativeTopN,
				Timeout:  opts.NarrativeTimeout,
			},
		),
	}
}

// GenerateReport analyzes one account's transactions. An empty accountID is
// taken from the first row. The only error is invalid input; collaborator
// failures degrade the report instead.
func (a *Assembler) GenerateReport(ctx context.Context, accountID string, txs []domain.Transaction) (*Report, error) {
	if accountID == "" && len(txs) > 0 {
		accountID = txs[0].AccountID
	}
	ctx = logger.WithAccount(ctx, accountID)
	log := logger.FromContext(ctx)
	start := time.Now()

	if err := checkAccount(accountID, txs); err != nil {
		metrics.AnalysesRejected.Inc()
		return nil, fmt.Errorf("GenerateReport: %w", err)
	}

	state := &PipelineState{AccountID: accountID, Transactions: txs}
	if err := a.pipeline.Execute(ctx, state); err != nil {
		metrics.AnalysesRejected.Inc()
		log.Warn().Err(err).Msg("Analysis rejected")
		return nil, fmt.Errorf("GenerateReport: %w", err)
	}

	report := &Report{
		ReportID:          a.opts.NewID(),
		AccountID:         accountID,
		Timestamp:         a.opts.Now().UTC(),
		Statistics:        state.Statistics,
		Detections:        state.Detections,
		RiskScore:         state.RiskScore,
		KnowledgeFindings: state.KnowledgeFindings,
		Narratives:        state.Narratives,
	}

	elapsed := time.Since(start)
	metrics.AnalysesCompleted.WithLabelValues(string(report.RiskScore.Level)).Inc()
	metrics.AnalysisDuration.Observe(float64(elapsed.Milliseconds()))

	log.Info().
		Str("report_id", report.ReportID).
		Int("score", report.RiskScore.Score).
		Str("level", string(report.RiskScore.Level)).
		Int("detections", len(report.Detections)).
		Dur("duration", elapsed).
		Msg("Report generated")

	return report, nil
}

// GenerateReports analyzes every account in the table concurrently and
// returns the successful reports in order of first appearance. Accounts
// that fail are reported through the joined error.
func (a *Assembler) GenerateReports(ctx context.Context, txs []domain.Transaction) ([]*Report, error) {
	groups := ingest.GroupByAccount(txs)

	reports := make([]*Report, len(groups))
	errs := make([]error, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, group := range groups {
		g.Go(func() error {
			reports[i], errs[i] = a.GenerateReport(gctx, group.AccountID, group.Transactions)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Report, 0, len(groups))
	for i, r := range reports {
		if errs[i] != nil {
			errs[i] = fmt.Errorf("account %s: %w", groups[i].AccountID, errs[i])
			continue
		}
		out = append(out, r)
	}
	return out, errors.Join(errs...)
}

func checkAccount(accountID string, txs []domain.Transaction) error {
	for i, tx := range txs {
		if tx.AccountID != accountID {
			return &fraud.InvalidInputError{
				Reason: fmt.Sprintf("row belongs to account %s, not %s", tx.AccountID, accountID),
				Row:    i,
			}
		}
	}
	return nil
}
