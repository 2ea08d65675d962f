package fraud

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

func patternsOf(ds []Detection) []Pattern {
	out := make([]Pattern, len(ds))
	for i, d := range ds {
		out[i] = d.Pattern
	}
	return out
}

func findDetection(t *testing.T, ds []Detection, p Pattern) Detection {
	t.Helper()
	for _, d := range ds {
		if d.Pattern == p {
			return d
		}
	}
	require.Failf(t, "detection not found", "pattern %q missing from %v", p, patternsOf(ds))
	return Detection{}
}

func TestDetect_EmptyTable(t *testing.T) {
	detections := Detect(nil)

	assert.NotNil(t, detections)
	assert.Empty(t, detections)
}

func TestDetect_Structuring(t *testing.T) {
	txs := newBuilder("ACC_001").amounts(9500, 9600, 9700, 9999)

	detections := Detect(txs)
	d := findDetection(t, detections, PatternStructuring)

	assert.Equal(t, SeverityHigh, d.Severity)
	assert.Equal(t, 4, d.Count)
	assert.Len(t, d.Transactions, MaxEvidence)
	assert.Equal(t, txs[:3], d.Transactions)
}

func TestDetect_StructuringNeedsMoreThanThree(t *testing.T) {
	txs := newBuilder("ACC_001").amounts(9500, 9600, 9999, 10_000, 9499.99)

	for _, d := range Detect(txs) {
		assert.NotEqual(t, PatternStructuring, d.Pattern)
	}
}

func TestDetect_RapidDraining(t *testing.T) {
	b := newBuilder("ACC_001")
	busy := civil.Date{Year: 2024, Month: 5, Day: 17}
	var txs []domain.Transaction
	for i := 0; i < 6; i++ {
		txs = append(txs, b.tx(100, onDate(busy)))
	}

	d := findDetection(t, Detect(txs), PatternRapidDraining)

	assert.Equal(t, SeverityCritical, d.Severity)
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, map[civil.Date]int{busy: 6}, d.DaysAffected)
	assert.Empty(t, d.Transactions)
}

func TestDetect_FiveTransactionsADayIsNotDraining(t *testing.T) {
	b := newBuilder("ACC_001")
	var txs []domain.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, b.tx(100, onDate(day0)))
	}

	for _, d := range Detect(txs) {
		assert.NotEqual(t, PatternRapidDraining, d.Pattern)
	}
}

func TestDetect_UnusualAmounts(t *testing.T) {
	amounts := make([]float64, 0, 20)
	for i := 0; i < 19; i++ {
		amounts = append(amounts, 100)
	}
	amounts = append(amounts, 9_999_999)
	txs := newBuilder("ACC_001").amounts(amounts...)

	d := findDetection(t, Detect(txs), PatternUnusualAmounts)

	assert.Equal(t, SeverityHigh, d.Severity)
	assert.Equal(t, 1, d.Count)
	require.Len(t, d.Transactions, 1)
	assert.Equal(t, 9_999_999.0, d.Transactions[0].Amount)
}

func TestDetect_EqualAmountsAreNotUnusual(t *testing.T) {
	txs := newBuilder("ACC_001").amounts(20, 20, 20, 20)

	assert.Empty(t, Detect(txs))
}

func TestDetect_GeographicAnomalies(t *testing.T) {
	b := newBuilder("ACC_001")

	two := []domain.Transaction{
		b.tx(1, atLocation("International")),
		b.tx(2, atLocation("Unknown")),
	}
	for _, d := range Detect(two) {
		assert.NotEqual(t, PatternGeographicAnomaly, d.Pattern)
	}

	four := append(two, b.tx(3, atLocation("International")), b.tx(4, atLocation("International")))
	d := findDetection(t, Detect(four), PatternGeographicAnomaly)
	assert.Equal(t, SeverityMedium, d.Severity)
	assert.Equal(t, 4, d.Count)
	assert.Len(t, d.Transactions, 3)
}

func TestDetect_Duplicates(t *testing.T) {
	b := newBuilder("ACC_001")
	txs := []domain.Transaction{
		b.tx(10),
		b.tx(250, withIndicator(domain.FraudIndicatorDuplicate)),
		b.tx(10),
	}

	d := findDetection(t, Detect(txs), PatternDuplicates)
	assert.Equal(t, SeverityMedium, d.Severity)
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, []domain.Transaction{txs[1]}, d.Transactions)
}

func TestDetect_FixedOrder(t *testing.T) {
	b := newBuilder("ACC_001")
	drainDay := day0.AddDays(500)

	var txs []domain.Transaction
	for i := 0; i < 2; i++ {
		txs = append(txs, b.tx(20, withIndicator(domain.FraudIndicatorDuplicate)))
	}
	for i := 0; i < 3; i++ {
		txs = append(txs, b.tx(30, atLocation("Unknown")))
	}
	for i := 0; i < 4; i++ {
		txs = append(txs, b.tx(9800))
	}
	for i := 0; i < 6; i++ {
		txs = append(txs, b.tx(40, onDate(drainDay)))
	}
	for i := 0; i < 20; i++ {
		txs = append(txs, b.tx(50))
	}
	txs = append(txs, b.tx(50_000))

	assert.Equal(t, []Pattern{
		PatternUnusualAmounts,
		PatternRapidDraining,
		PatternStructuring,
		PatternGeographicAnomaly,
		PatternDuplicates,
	}, patternsOf(Detect(txs)))
}

func TestDetect_Idempotent(t *testing.T) {
	b := newBuilder("ACC_001")
	txs := []domain.Transaction{
		b.tx(9600), b.tx(9700), b.tx(9800), b.tx(9900),
		b.tx(5, atLocation("International")),
		b.tx(12000, withIndicator(domain.FraudIndicatorDuplicate)),
	}
	before := make([]domain.Transaction, len(txs))
	copy(before, txs)

	first := Detect(txs)
	second := Detect(txs)

	assert.Equal(t, first, second)
	assert.Equal(t, before, txs)
}

type alwaysRule struct{}

func (alwaysRule) Pattern() Pattern   { return "Always" }
func (alwaysRule) Severity() Severity { return SeverityMedium }
func (alwaysRule) Evaluate(txs []domain.Transaction) (Detection, bool) {
	return Detection{Pattern: "Always", Severity: SeverityMedium, Count: len(txs)}, true
}

func TestNewDetector_ExtraRulesRunLast(t *testing.T) {
	d := NewDetector(alwaysRule{})

	rules := d.Rules()
	require.Len(t, rules, 6)
	assert.Equal(t, Pattern("Always"), rules[5].Pattern())

	txs := newBuilder("ACC_001").amounts(9500, 9600, 9700, 9999)
	assert.Equal(t, []Pattern{PatternUnusualAmounts, PatternStructuring, "Always"}, patternsOf(d.Detect(txs)))
}

func TestDefaultRules_Severities(t *testing.T) {
	want := map[Pattern]Severity{
		PatternUnusualAmounts:    SeverityHigh,
		PatternRapidDraining:     SeverityCritical,
		PatternStructuring:       SeverityHigh,
		PatternGeographicAnomaly: SeverityMedium,
		PatternDuplicates:        SeverityMedium,
	}
	for _, r := range DefaultRules() {
		assert.Equal(t, want[r.Pattern()], r.Severity(), r.Pattern())
	}
}
