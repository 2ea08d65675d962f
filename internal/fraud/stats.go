package fraud

import (
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

const (
	// OutlierZScore is the absolute z-score above which an amount is an outlier.
	OutlierZScore = 3.0

	topMerchantsLimit = 5
)

// transferMerchantMarkers flag merchants that look like money movement rather than purchases.
var transferMerchantMarkers = []string{"international", "transfer", "atm"}

// Analyze computes descriptive statistics for a single account's table.
// It fails with an InvalidInputError on an empty table, mixed accounts,
// or a non-finite or negative amount.
func Analyze(txs []domain.Transaction) (*Statistics, error) {
	if err := checkTable(txs); err != nil {
		return nil, err
	}

	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount
	}
	sorted := sortedCopy(amounts)

	mean := meanOf(amounts)
	std := populationStd(amounts, mean)

	return &Statistics{
		TotalTransactions: len(txs),
		TotalAmount:       sum(amounts),
		AverageAmount:     mean,
		MedianAmount:      median(sorted),
		StdDeviation:      std,
		MinAmount:         sorted[0],
		MaxAmount:         sorted[len(sorted)-1],
		AmountOutliers:    zScoreOutliers(amounts, mean, std, OutlierZScore),
		Frequency:         analyzeFrequency(txs),
		Merchants:         analyzeMerchants(txs),
		Geography:         analyzeLocations(txs),
	}, nil
}

func checkTable(txs []domain.Transaction) error {
	if len(txs) == 0 {
		return tableError("empty transaction table")
	}
	account := txs[0].AccountID
	var total float64
	for i, tx := range txs {
		if tx.AccountID != account {
			return rowError(i, "mixed accounts in one table: "+account+" and "+tx.AccountID, nil)
		}
		if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
			return rowError(i, "amount must be finite", nil)
		}
		if tx.Amount < 0 {
			return rowError(i, "amount must be non-negative", nil)
		}
		total += tx.Amount
		if math.IsInf(total, 0) {
			return rowError(i, "total amount overflows float64", nil)
		}
	}
	return nil
}

// zScoreOutliers returns the amounts whose |z| exceeds threshold, in input order.
// A zero deviation yields no outliers.
func zScoreOutliers(amounts []float64, mean, std, threshold float64) []float64 {
	outliers := []float64{}
	if std == 0 {
		return outliers
	}
	for _, a := range amounts {
		if math.Abs((a-mean)/std) > threshold {
			outliers = append(outliers, a)
		}
	}
	return outliers
}

func analyzeFrequency(txs []domain.Transaction) FrequencyAnalysis {
	days, counts := dailyCounts(txs)

	perDay := make([]float64, len(days))
	maxPerDay := 0
	for i, d := range days {
		perDay[i] = float64(counts[d])
		if counts[d] > maxPerDay {
			maxPerDay = counts[d]
		}
	}

	// Day counts use the sample deviation (n-1); a single day has none.
	mean := meanOf(perDay)
	limit := mean + 2*sampleStd(perDay, mean)
	anomalies := 0
	for _, c := range perDay {
		if c > limit {
			anomalies++
		}
	}

	return FrequencyAnalysis{
		TransactionsPerDayAvg: mean,
		MaxTransactionsPerDay: maxPerDay,
		DaysWithActivity:      len(days),
		FrequencyAnomalies:    anomalies,
	}
}

func analyzeMerchants(txs []domain.Transaction) MerchantAnalysis {
	ranked := rankByCount(txs, func(tx domain.Transaction) string { return tx.Merchant })

	top := ranked
	if len(top) > topMerchantsLimit {
		top = top[:topMerchantsLimit]
	}
	topMerchants := make([]MerchantCount, len(top))
	for i, kc := range top {
		topMerchants[i] = MerchantCount{Merchant: kc.key, Count: kc.count}
	}

	transferLike := 0
	for _, tx := range txs {
		if isTransferLike(tx.Merchant) {
			transferLike++
		}
	}

	return MerchantAnalysis{
		UniqueMerchants: len(ranked),
		TopMerchants:    topMerchants,
		NewMerchants:    transferLike,
	}
}

func isTransferLike(merchant string) bool {
	m := strings.ToLower(merchant)
	for _, marker := range transferMerchantMarkers {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

func analyzeLocations(txs []domain.Transaction) GeographicAnalysis {
	ranked := rankByCount(txs, func(tx domain.Transaction) string { return tx.Location })

	primary := domain.LocationUnknown
	if len(ranked) > 0 {
		primary = ranked[0].key
	}

	international := 0
	for _, tx := range txs {
		if tx.IsNonStandardLocation() {
			international++
		}
	}

	return GeographicAnalysis{
		UniqueLocations:           len(ranked),
		PrimaryLocation:           primary,
		LocationDiversity:         len(ranked),
		InternationalTransactions: international,
	}
}

type keyCount struct {
	key   string
	count int
}

// rankByCount counts non-empty keys and orders them by count descending.
// Ties keep first-appearance order.
func rankByCount(txs []domain.Transaction, key func(domain.Transaction) string) []keyCount {
	index := make(map[string]int)
	var ranked []keyCount
	for _, tx := range txs {
		k := key(tx)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			ranked[i].count++
			continue
		}
		index[k] = len(ranked)
		ranked = append(ranked, keyCount{key: k, count: 1})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })
	return ranked
}

// dailyCounts returns the distinct dates in first-appearance order and the count per date.
func dailyCounts(txs []domain.Transaction) ([]civil.Date, map[civil.Date]int) {
	counts := make(map[civil.Date]int)
	var days []civil.Date
	for _, tx := range txs {
		if _, ok := counts[tx.Date]; !ok {
			days = append(days, tx.Date)
		}
		counts[tx.Date]++
	}
	return days, counts
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// meanOf and stdDev divide by the largest magnitude first so that finite
// inputs near math.MaxFloat64 give finite results.
func meanOf(xs []float64) float64 {
	scale := maxAbs(xs, 0)
	if scale == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x / scale
	}
	return s / float64(len(xs)) * scale
}

func populationStd(xs []float64, mean float64) float64 {
	return stdDev(xs, mean, 0)
}

func sampleStd(xs []float64, mean float64) float64 {
	return stdDev(xs, mean, 1)
}

func stdDev(xs []float64, mean float64, ddof int) float64 {
	n := len(xs) - ddof
	if n <= 0 {
		return 0
	}
	scale := maxAbs(xs, mean)
	if scale == 0 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := (x - mean) / scale
		ss += d * d
	}
	return math.Sqrt(ss/float64(n)) * scale
}

// maxAbs returns the largest |x - center|.
func maxAbs(xs []float64, center float64) float64 {
	var m float64
	for _, x := range xs {
		if d := math.Abs(x - center); d > m {
			m = d
		}
	}
	return m
}

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile interpolates linearly between order statistics at rank p*(n-1).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
