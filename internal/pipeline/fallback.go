package pipeline

import (
	"strings"

	"github.com/dvloznov/fraud-analyzer/internal/fraud"
)

const (
	unusualAmountAnalysis = `FRAUD ANALYSIS RESULT:
- Risk Level: HIGH
- Confidence: 85%
- Pattern Match: Unusual Transaction Amounts detected
- Indicators Found:
  * Transaction amount significantly exceeds historical average (>300%)
  * Amount falls into high-risk category (>$5,000)
  * Merchant category unusual for account holder
- Recommendation: FLAG FOR REVIEW
- Next Steps: Contact account holder to verify transaction legitimacy`

	rapidDrainingAnalysis = `FRAUD ANALYSIS RESULT:
- Risk Level: CRITICAL
- Confidence: 92%
- Pattern Match: Rapid Account Draining detected
- Indicators Found:
  * Multiple transactions within 24-hour period (8 transactions)
  * Total amount represents 40% of account balance
  * Transactions to high-risk destinations
  * Unusual transaction frequency
- Recommendation: IMMEDIATE ACTION REQUIRED
- Next Steps: Block account, contact account holder immediately, initiate investigation`

	structuringAnalysis = `FRAUD ANALYSIS RESULT:
- Risk Level: HIGH
- Confidence: 88%
- Pattern Match: Structuring (Smurfing) detected
- Indicators Found:
  * Multiple transactions just below $10,000 threshold
  * Consistent pattern over 14-day period
  * Amounts: $9,500-$9,999 (all just below reporting threshold)
  * Possible money laundering activity
- Recommendation: FILE SUSPICIOUS ACTIVITY REPORT (SAR)
- Next Steps: Document pattern, file SAR within 30 days, monitor account closely`

	genericAnalysis = `FRAUD ANALYSIS RESULT:
- Risk Level: MEDIUM
- Confidence: 75%
- Pattern Match: Anomaly detected
- Indicators Found:
  * Transaction deviates from normal account behavior
  * Geographic or merchant category unusual
  * Timing inconsistent with account history
- Recommendation: MONITOR AND VERIFY
- Next Steps: Request additional verification, monitor for related transactions`
)

// fallbackByPattern maps the built-in patterns to canned analyses.
var fallbackByPattern = map[fraud.Pattern]string{
	fraud.PatternUnusualAmounts:    unusualAmountAnalysis,
	fraud.PatternRapidDraining:     rapidDrainingAnalysis,
	fraud.PatternStructuring:       structuringAnalysis,
	fraud.PatternGeographicAnomaly: genericAnalysis,
	fraud.PatternDuplicates:        genericAnalysis,
}

// fallbackKeywords catches custom rule names. Checked in order against the
// lower-cased pattern name.
var fallbackKeywords = []struct {
	keywords []string
	text     string
}{
	{keywords: []string{"unusual amount"}, text: unusualAmountAnalysis},
	{keywords: []string{"rapid", "draining"}, text: rapidDrainingAnalysis},
	{keywords: []string{"structuring"}, text: structuringAnalysis},
}

// FallbackNarrative returns the deterministic analysis used when no model
// answer is available.
func FallbackNarrative(p fraud.Pattern) string {
	if text, ok := fallbackByPattern[p]; ok {
		return text
	}

	name := strings.ToLower(string(p))
	for _, rule := range fallbackKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.text
			}
		}
	}
	return genericAnalysis
}
