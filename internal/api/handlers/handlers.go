package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/fraud-analyzer/internal/api/middleware"
	"github.com/dvloznov/fraud-analyzer/internal/domain"
	"github.com/dvloznov/fraud-analyzer/internal/fraud"
	infra "github.com/dvloznov/fraud-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/fraud-analyzer/internal/ingest"
	"github.com/dvloznov/fraud-analyzer/internal/jobs"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
	"github.com/dvloznov/fraud-analyzer/internal/pipeline"
)

// MaxUploadBytes caps the CSV body accepted by POST /api/analyze.
const MaxUploadBytes = 10 << 20

// ReportGenerator produces per-account reports. *pipeline.Assembler satisfies it.
type ReportGenerator interface {
	GenerateReports(ctx context.Context, txs []domain.Transaction) ([]*pipeline.Report, error)
}

// ReportLister reads stored reports. *infra.Repository satisfies it.
type ReportLister interface {
	ListReports(ctx context.Context, accountID string, limit int) ([]*infra.FraudReportRow, error)
}

// AnalyzeHandler runs analyses synchronously.
type AnalyzeHandler struct {
	generator ReportGenerator
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(generator ReportGenerator) *AnalyzeHandler {
	return &AnalyzeHandler{generator: generator}
}

// Analyze handles POST /api/analyze. The body is a transaction CSV; the
// optional account_id query parameter keeps only that account's rows.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	txs, err := ingest.ParseCSV(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if accountID := r.URL.Query().Get("account_id"); accountID != "" {
		txs = filterAccount(txs, accountID)
		if len(txs) == 0 {
			middleware.WriteError(w, http.StatusNotFound, "No transactions for account "+accountID)
			return
		}
	}

	reports, err := h.generator.GenerateReports(ctx, txs)
	if err != nil && len(reports) == 0 {
		log.Warn().Err(err).Msg("Analysis rejected")
		status := http.StatusInternalServerError
		if errors.Is(err, fraud.ErrInvalidInput) {
			status = http.StatusUnprocessableEntity
		}
		middleware.WriteError(w, status, err.Error())
		return
	}

	resp := map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	}
	if err != nil {
		log.Warn().Err(err).Int("reports", len(reports)).Msg("Analysis partially failed")
		resp["errors"] = strings.Split(err.Error(), "\n")
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

func filterAccount(txs []domain.Transaction, accountID string) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range txs {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore) *JobsHandler {
	return &JobsHandler{
		publisher: publisher,
		store:     store,
	}
}

// EnqueueAnalysis handles POST /api/analyses
func (h *JobsHandler) EnqueueAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceURI string `json:"source_uri"`
		AccountID string `json:"account_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SourceURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "source_uri is required")
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)

	job := &jobs.AnalysisJob{
		SourceURI: req.SourceURI,
		AccountID: req.AccountID,
	}

	if err := h.publisher.PublishAnalysis(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue analysis job")
		return
	}

	log.Info().Str("job_id", job.JobID).Str("source_uri", req.SourceURI).Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.JobID,
		"source_uri": req.SourceURI,
		"status":     string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	jobID := r.PathValue("id")
	if jobID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.store.GetJob(ctx, jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		AccountID: query.Get("account_id"),
		SourceURI: query.Get("source_uri"),
		Status:    jobs.JobStatus(query.Get("status")),
		Limit:     queryInt(query.Get("limit")),
		Offset:    queryInt(query.Get("offset")),
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// ReportsHandler serves stored reports.
type ReportsHandler struct {
	lister ReportLister
}

// NewReportsHandler creates a reports handler. lister may be nil when no
// warehouse is configured.
func NewReportsHandler(lister ReportLister) *ReportsHandler {
	return &ReportsHandler{lister: lister}
}

// ListReports handles GET /api/reports
func (h *ReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Report storage is not configured")
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)
	query := r.URL.Query()

	rows, err := h.lister.ListReports(ctx, query.Get("account_id"), queryInt(query.Get("limit")))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reports")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	reports := make([]*pipeline.Report, 0, len(rows))
	for _, row := range rows {
		report, err := pipeline.ReportFromRow(row)
		if err != nil {
			log.Warn().Err(err).Str("report_id", row.ReportID).Msg("Skipping unreadable report")
			continue
		}
		reports = append(reports, report)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

func queryInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
