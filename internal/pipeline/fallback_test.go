package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/fraud-analyzer/internal/fraud"
)

func TestFallbackNarrative(t *testing.T) {
	tests := []struct {
		pattern fraud.Pattern
		want    string
	}{
		{fraud.PatternUnusualAmounts, unusualAmountAnalysis},
		{fraud.PatternRapidDraining, rapidDrainingAnalysis},
		{fraud.PatternStructuring, structuringAnalysis},
		{fraud.PatternGeographicAnomaly, genericAnalysis},
		{fraud.PatternDuplicates, genericAnalysis},
		{"Very Unusual Amount Spike", unusualAmountAnalysis},
		{"Slow Draining", rapidDrainingAnalysis},
		{"Rapid Transfers", rapidDrainingAnalysis},
		{"Cash STRUCTURING", structuringAnalysis},
		{"Card Testing", genericAnalysis},
		{"", genericAnalysis},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackNarrative(tt.pattern))
		})
	}
}

func TestFallbackNarrative_EveryBuiltInPatternMapped(t *testing.T) {
	for _, r := range fraud.DefaultRules() {
		_, ok := fallbackByPattern[r.Pattern()]
		assert.True(t, ok, "no fallback text for %q", r.Pattern())
	}
}
