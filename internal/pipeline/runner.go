package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
	"github.com/dvloznov/fraud-analyzer/internal/gcsuploader"
	infra "github.com/dvloznov/fraud-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/fraud-analyzer/internal/ingest"
	"github.com/dvloznov/fraud-analyzer/internal/jobs"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

// ReportStore persists generated reports. *infra.Repository and
// *output.BucketReportStore satisfy it.
type ReportStore interface {
	InsertReport(ctx context.Context, row *infra.FraudReportRow) error
}

// WarehouseSource, used as a source URI, reads transactions from the
// warehouse instead of a CSV.
const WarehouseSource = "warehouse"

// TransactionSource reads stored transactions. *infra.Repository satisfies it.
type TransactionSource interface {
	ListAccountIDs(ctx context.Context) ([]string, error)
	QueryTransactionsByAccount(ctx context.Context, accountID string) ([]*infra.TransactionRow, error)
}

// RunRecorder tracks analysis runs. *infra.Repository satisfies it.
type RunRecorder interface {
	StartAnalysisRun(ctx context.Context, sourceURI, accountID string) (string, error)
	FinishAnalysisRun(ctx context.Context, runID string, reports int, runErr error) error
}

// Runner analyzes a stored transaction table end to end: load, generate
// and persist.
type Runner struct {
	Assembler *Assembler
	// Storage resolves gs:// sources. May be nil for local files only.
	Storage gcsuploader.StorageService
	// Reports may be nil, in which case reports are only returned.
	Reports ReportStore
	// Warehouse serves WarehouseSource. May be nil.
	Warehouse TransactionSource
	// Runs is optional. Recording failures are logged, never returned.
	Runs RunRecorder
}

// AnalyzeSource loads sourceURI (a CSV path, a gs:// URI or WarehouseSource),
// optionally keeps only accountID,
// and generates and stores a report per account. Accounts that fail
// analysis are logged and skipped; the call fails only when no report
// could be produced or storing one fails.
func (r *Runner) AnalyzeSource(ctx context.Context, sourceURI, accountID string) (reports []*Report, err error) {
	log := logger.FromContext(ctx)

	if r.Runs != nil {
		runID, startErr := r.Runs.StartAnalysisRun(ctx, sourceURI, accountID)
		if startErr != nil {
			log.Warn().Err(startErr).Msg("Failed to record analysis run start")
		} else {
			defer func() {
				if finishErr := r.Runs.FinishAnalysisRun(ctx, runID, len(reports), err); finishErr != nil {
					log.Warn().Err(finishErr).Str("run_id", runID).Msg("Failed to record analysis run result")
				}
			}()
		}
	}

	return r.analyze(ctx, sourceURI, accountID)
}

func (r *Runner) analyze(ctx context.Context, sourceURI, accountID string) ([]*Report, error) {
	log := logger.FromContext(ctx)

	txs, err := r.load(ctx, sourceURI, accountID)
	if err != nil {
		return nil, fmt.Errorf("AnalyzeSource: %w", err)
	}

	if accountID != "" {
		txs = onlyAccount(txs, accountID)
		if len(txs) == 0 {
			return nil, fmt.Errorf("AnalyzeSource: no transactions for account %s in %s", accountID, sourceURI)
		}
	}

	reports, err := r.Assembler.GenerateReports(ctx, txs)
	if err != nil {
		if len(reports) == 0 {
			return nil, fmt.Errorf("AnalyzeSource: %w", err)
		}
		log.Warn().Err(err).Int("reports", len(reports)).Msg("Some accounts could not be analyzed")
	}

	if r.Reports != nil {
		for _, rep := range reports {
			row, err := rep.ToRow()
			if err != nil {
				return nil, fmt.Errorf("AnalyzeSource: %w", err)
			}
			if err := r.Reports.InsertReport(ctx, row); err != nil {
				return nil, fmt.Errorf("AnalyzeSource: store report %s: %w", rep.ReportID, err)
			}
		}
		log.Info().Int("reports", len(reports)).Msg("Reports stored")
	}

	return reports, nil
}

func (r *Runner) load(ctx context.Context, sourceURI, accountID string) ([]domain.Transaction, error) {
	if sourceURI != WarehouseSource {
		return ingest.LoadCSV(ctx, sourceURI, r.Storage)
	}
	if r.Warehouse == nil {
		return nil, fmt.Errorf("no warehouse configured for %s", sourceURI)
	}

	accounts := []string{accountID}
	if accountID == "" {
		ids, err := r.Warehouse.ListAccountIDs(ctx)
		if err != nil {
			return nil, err
		}
		accounts = ids
	}

	var txs []domain.Transaction
	for _, id := range accounts {
		rows, err := r.Warehouse.QueryTransactionsByAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			txs = append(txs, row.ToDomain())
		}
	}
	return txs, nil
}

// HandleJob is a jobs.JobHandler for analysis jobs. It records the
// produced report IDs on the job.
func (r *Runner) HandleJob(ctx context.Context, job jobs.Job) error {
	analysisJob, ok := job.(*jobs.AnalysisJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	log := logger.FromContext(ctx).With().
		Str("job_id", analysisJob.JobID).
		Str("source_uri", analysisJob.SourceURI).
		Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("account_id", analysisJob.AccountID).Msg("Processing analysis job")

	reports, err := r.AnalyzeSource(ctx, analysisJob.SourceURI, analysisJob.AccountID)
	if err != nil {
		log.Error().Err(err).Msg("Analysis job failed")
		return err
	}

	ids := make([]string, len(reports))
	for i, rep := range reports {
		ids[i] = rep.ReportID
	}
	analysisJob.ReportIDs = ids

	log.Info().Int("reports", len(reports)).Msg("Analysis job completed")
	return nil
}

func onlyAccount(txs []domain.Transaction, accountID string) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range txs {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out
}
