package fraud

import (
	"cloud.google.com/go/civil"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

// Rule thresholds.
const (
	UnusualAmountPercentile = 0.95
	DrainingMaxPerDay       = 5
	StructuringFloor        = 9500.0
	StructuringCeiling      = 9999.0
	StructuringMinMatches   = 3
	GeographicMinMatches    = 2
)

// Rule is one independent check over an account's table.
// Evaluate returns ok=false when the rule does not fire.
type Rule interface {
	Pattern() Pattern
	Severity() Severity
	Evaluate(txs []domain.Transaction) (Detection, bool)
}

// RowRule fires when more than Above rows match the predicate.
// Predicate receives the whole table so thresholds can depend on it.
type RowRule struct {
	Name      Pattern
	Level     Severity
	Above     int
	Predicate func(table []domain.Transaction) func(domain.Transaction) bool
}

func (r RowRule) Pattern() Pattern   { return r.Name }
func (r RowRule) Severity() Severity { return r.Level }

func (r RowRule) Evaluate(txs []domain.Transaction) (Detection, bool) {
	if len(txs) == 0 {
		return Detection{}, false
	}
	match := r.Predicate(txs)

	count := 0
	var evidence []domain.Transaction
	for _, tx := range txs {
		if !match(tx) {
			continue
		}
		count++
		if len(evidence) < MaxEvidence {
			evidence = append(evidence, tx)
		}
	}
	if count <= r.Above {
		return Detection{}, false
	}
	return Detection{
		Pattern:      r.Name,
		Severity:     r.Level,
		Count:        count,
		Transactions: evidence,
	}, true
}

// DayRule fires when at least one calendar day has more than MaxPerDay rows.
// Count is the number of such days.
type DayRule struct {
	Name      Pattern
	Level     Severity
	MaxPerDay int
}

func (r DayRule) Pattern() Pattern   { return r.Name }
func (r DayRule) Severity() Severity { return r.Level }

func (r DayRule) Evaluate(txs []domain.Transaction) (Detection, bool) {
	days, counts := dailyCounts(txs)

	affected := make(map[civil.Date]int)
	for _, d := range days {
		if counts[d] > r.MaxPerDay {
			affected[d] = counts[d]
		}
	}
	if len(affected) == 0 {
		return Detection{}, false
	}
	return Detection{
		Pattern:      r.Name,
		Severity:     r.Level,
		Count:        len(affected),
		DaysAffected: affected,
	}, true
}

// DefaultRules returns the built-in rules in their fixed reporting order.
func DefaultRules() []Rule {
	return []Rule{
		RowRule{
			Name:      PatternUnusualAmounts,
			Level:     SeverityHigh,
			Above:     0,
			Predicate: aboveAmountPercentile(UnusualAmountPercentile),
		},
		DayRule{
			Name:      PatternRapidDraining,
			Level:     SeverityCritical,
			MaxPerDay: DrainingMaxPerDay,
		},
		RowRule{
			Name:      PatternStructuring,
			Level:     SeverityHigh,
			Above:     StructuringMinMatches,
			Predicate: amountBetween(StructuringFloor, StructuringCeiling),
		},
		RowRule{
			Name:  PatternGeographicAnomaly,
			Level: SeverityMedium,
			Above: GeographicMinMatches,
			Predicate: rowPredicate(func(tx domain.Transaction) bool {
				return tx.IsNonStandardLocation()
			}),
		},
		RowRule{
			Name:  PatternDuplicates,
			Level: SeverityMedium,
			Above: 0,
			Predicate: rowPredicate(func(tx domain.Transaction) bool {
				return tx.FraudIndicator == domain.FraudIndicatorDuplicate
			}),
		},
	}
}

func aboveAmountPercentile(p float64) func([]domain.Transaction) func(domain.Transaction) bool {
	return func(table []domain.Transaction) func(domain.Transaction) bool {
		amounts := make([]float64, len(table))
		for i, tx := range table {
			amounts[i] = tx.Amount
		}
		threshold := percentile(sortedCopy(amounts), p)
		return func(tx domain.Transaction) bool { return tx.Amount > threshold }
	}
}

func amountBetween(lo, hi float64) func([]domain.Transaction) func(domain.Transaction) bool {
	return rowPredicate(func(tx domain.Transaction) bool {
		return tx.Amount >= lo && tx.Amount <= hi
	})
}

// rowPredicate adapts a table-independent predicate.
func rowPredicate(fn func(domain.Transaction) bool) func([]domain.Transaction) func(domain.Transaction) bool {
	return func([]domain.Transaction) func(domain.Transaction) bool { return fn }
}
