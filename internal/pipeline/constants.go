package pipeline

import "time"

// Default values for report assembly.
// These can be overridden via configuration.
const (
	// DefaultKnowledgeTopN is how many leading detections get knowledge-base lookups.
	DefaultKnowledgeTopN = 3

	// DefaultNarrativeTopN is how many leading detections get a model narrative.
	DefaultNarrativeTopN = 2

	// DefaultPatternResults is the number of related fraud patterns per lookup.
	DefaultPatternResults = 3

	// DefaultComplianceResults is the number of regulations per lookup.
	DefaultComplianceResults = 2

	// DefaultKnowledgeTimeout bounds one knowledge-base query.
	DefaultKnowledgeTimeout = 10 * time.Second

	// DefaultNarrativeTimeout bounds one language-model call.
	DefaultNarrativeTimeout = 60 * time.Second

	// DefaultWorkers bounds concurrent account analyses.
	DefaultWorkers = 4

	// NarrativeTemperature is the sampling temperature for narrative prompts.
	NarrativeTemperature = 0.2
)

// Narrative sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)
