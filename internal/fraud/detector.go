package fraud

import (
	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

// Detector applies an ordered set of rules. It holds no mutable state and is
// safe for concurrent use.
type Detector struct {
	rules []Rule
}

// NewDetector returns a detector running DefaultRules followed by extra.
func NewDetector(extra ...Rule) *Detector {
	rules := DefaultRules()
	rules = append(rules, extra...)
	return &Detector{rules: rules}
}

// Rules returns a copy of the rules in evaluation order.
func (d *Detector) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Detect evaluates every rule and returns the detections in rule order.
// An empty table yields an empty, non-nil slice.
func (d *Detector) Detect(txs []domain.Transaction) []Detection {
	detections := []Detection{}
	for _, r := range d.rules {
		if det, ok := r.Evaluate(txs); ok {
			detections = append(detections, det)
		}
	}
	return detections
}

var defaultDetector = NewDetector()

// Detect runs the default rules over txs.
func Detect(txs []domain.Transaction) []Detection {
	return defaultDetector.Detect(txs)
}
