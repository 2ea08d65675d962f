package fraud

const (
	MaxScore = 100

	outlierWeight = 5
	outlierCap    = 20
)

var severityWeights = map[Severity]int{
	SeverityCritical: 40,
	SeverityHigh:     25,
	SeverityMedium:   10,
}

var levelThresholds = []struct {
	min   int
	level Level
}{
	{80, LevelCritical},
	{60, LevelHigh},
	{40, LevelMedium},
}

var recommendations = map[Level]string{
	LevelCritical: "Immediate action required - block account and investigate",
	LevelHigh:     "Flag for review and enhanced monitoring",
	LevelMedium:   "Monitor closely and request verification",
	LevelLow:      "Continue normal monitoring",
}

// SeverityWeight returns the score contribution of one detection of severity s.
func SeverityWeight(s Severity) int {
	return severityWeights[s]
}

// Score aggregates detections and outliers into a score clamped to [0, 100].
// A nil stats counts as zero outliers.
func Score(detections []Detection, stats *Statistics) RiskScore {
	score := 0
	for _, d := range detections {
		score += SeverityWeight(d.Severity)
	}

	if stats != nil {
		score += min(outlierWeight*len(stats.AmountOutliers), outlierCap)
	}
	score = min(score, MaxScore)

	level := LevelFor(score)
	return RiskScore{
		Score:          score,
		Level:          level,
		Recommendation: Recommendation(level),
	}
}

// LevelFor maps a score to its risk level.
func LevelFor(score int) Level {
	for _, t := range levelThresholds {
		if score >= t.min {
			return t.level
		}
	}
	return LevelLow
}

// Recommendation returns the fixed recommendation text for a level.
func Recommendation(level Level) string {
	return recommendations[level]
}

// CountBySeverity tallies detections per severity.
func CountBySeverity(detections []Detection) map[Severity]int {
	counts := map[Severity]int{
		SeverityCritical: 0,
		SeverityHigh:     0,
		SeverityMedium:   0,
	}
	for _, d := range detections {
		counts[d.Severity]++
	}
	return counts
}
