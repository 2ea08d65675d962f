package fraud

import (
	"cloud.google.com/go/civil"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

// Severity is the fixed severity attached to a detection pattern.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// Level is the discrete risk level derived from a score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Pattern names a detection rule.
type Pattern string

const (
	PatternUnusualAmounts    Pattern = "Unusual Transaction Amounts"
	PatternRapidDraining     Pattern = "Rapid Account Draining"
	PatternStructuring       Pattern = "Structuring (Smurfing)"
	PatternGeographicAnomaly Pattern = "Geographic Anomalies"
	PatternDuplicates        Pattern = "Duplicate Transactions"
)

// MaxEvidence bounds the number of sample rows kept on a detection.
const MaxEvidence = 3

// Statistics is the descriptive summary of one account's transactions.
type Statistics struct {
	TotalTransactions int                `json:"total_transactions"`
	TotalAmount       float64            `json:"total_amount"`
	AverageAmount     float64            `json:"average_amount"`
	MedianAmount      float64            `json:"median_amount"`
	StdDeviation      float64            `json:"std_deviation"`
	MinAmount         float64            `json:"min_amount"`
	MaxAmount         float64            `json:"max_amount"`
	AmountOutliers    []float64          `json:"amount_outliers"`
	Frequency         FrequencyAnalysis  `json:"frequency_analysis"`
	Merchants         MerchantAnalysis   `json:"merchant_analysis"`
	Geography         GeographicAnalysis `json:"geographic_analysis"`
}

// FrequencyAnalysis summarizes per-day activity.
type FrequencyAnalysis struct {
	TransactionsPerDayAvg float64 `json:"transactions_per_day_avg"`
	MaxTransactionsPerDay int     `json:"max_transactions_per_day"`
	DaysWithActivity      int     `json:"days_with_activity"`
	FrequencyAnomalies    int     `json:"frequency_anomalies"`
}

// MerchantCount pairs a merchant with its transaction count.
type MerchantCount struct {
	Merchant string `json:"merchant"`
	Count    int    `json:"count"`
}

// MerchantAnalysis summarizes merchant usage.
type MerchantAnalysis struct {
	UniqueMerchants int             `json:"unique_merchants"`
	TopMerchants    []MerchantCount `json:"top_merchants"`
	// NewMerchants counts transactions at transfer-like merchants.
	NewMerchants int `json:"new_merchants"`
}

// GeographicAnalysis summarizes transaction locations.
type GeographicAnalysis struct {
	UniqueLocations           int    `json:"unique_locations"`
	PrimaryLocation           string `json:"primary_location"`
	LocationDiversity         int    `json:"location_diversity"`
	InternationalTransactions int    `json:"international_transactions"`
}

// Detection summarizes every match of one rule.
type Detection struct {
	Pattern  Pattern  `json:"pattern"`
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
	// Transactions holds at most MaxEvidence matching rows, in table order.
	Transactions []domain.Transaction `json:"transactions,omitempty"`
	// DaysAffected is set by day-level rules instead of Transactions.
	DaysAffected map[civil.Date]int `json:"days_affected,omitempty"`
}

// RiskScore is the bounded aggregate of detections and outliers.
type RiskScore struct {
	Score          int    `json:"score"`
	Level          Level  `json:"level"`
	Recommendation string `json:"recommendation"`
}
