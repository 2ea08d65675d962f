package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fraud-analyzer/internal/api/handlers"
	"github.com/dvloznov/fraud-analyzer/internal/api/middleware"
	"github.com/dvloznov/fraud-analyzer/internal/jobs"
)

// Deps are the collaborators behind the HTTP routes. Reports may be nil.
type Deps struct {
	Generator handlers.ReportGenerator
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	Reports   handlers.ReportLister
	APIKey    string
	Log       zerolog.Logger
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(deps Deps) http.Handler {
	analyzeHandler := handlers.NewAnalyzeHandler(deps.Generator)
	jobsHandler := handlers.NewJobsHandler(deps.Publisher, deps.Jobs)
	reportsHandler := handlers.NewReportsHandler(deps.Reports)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/analyze", analyzeHandler.Analyze)
	mux.HandleFunc("POST /api/analyses", jobsHandler.EnqueueAnalysis)
	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)
	mux.HandleFunc("GET /api/reports", reportsHandler.ListReports)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.Recovery(deps.Log)(
		middleware.RequestID(
			middleware.Logger(deps.Log)(
				middleware.CORS(
					middleware.Auth(deps.APIKey)(mux),
				),
			),
		),
	)
}
