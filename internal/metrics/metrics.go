package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_analyses_completed_total",
		Help: "Total number of account reports produced, labelled by risk level.",
	}, []string{"level"})

	AnalysesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraud_analyses_rejected_total",
		Help: "Total number of analyses refused because of invalid input.",
	})

	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_detections_total",
		Help: "Total number of pattern detections, labelled by pattern and severity.",
	}, []string{"pattern", "severity"})

	NarrativeFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_narrative_fallbacks_total",
		Help: "Narratives served from canned text, labelled by reason.",
	}, []string{"reason"})

	KnowledgeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_knowledge_lookup_failures_total",
		Help: "Knowledge base lookups that failed, labelled by collection.",
	}, []string{"collection"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_jobs_processed_total",
		Help: "Analysis jobs that reached a terminal or retry state, labelled by status.",
	}, []string{"status"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraud_analysis_duration_ms",
		Help:    "Per-account report assembly latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
)

// Narrative fallback reasons.
const (
	ReasonNoNarrator  = "no_narrator"
	ReasonError       = "error"
	ReasonTimeout     = "timeout"
	ReasonEmpty       = "empty"
	ReasonCircuitOpen = "circuit_open"
)
