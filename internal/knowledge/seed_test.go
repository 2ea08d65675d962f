package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	require.NoError(t, Seed(context.Background(), s))
	return s
}

func TestSeed_Counts(t *testing.T) {
	s := seeded(t)

	assert.Equal(t, 15, s.Count(CollectionFraudPatterns))
	assert.Equal(t, 5, s.Count(CollectionComplianceDocs))

	require.NoError(t, Seed(context.Background(), s))
	assert.Equal(t, 15, s.Count(CollectionFraudPatterns), "re-seeding must not duplicate")
}

func TestFraudPattern_Text(t *testing.T) {
	p := FraudPattern{
		Name:            "Layering",
		Description:     "Obscure origin",
		Indicators:      []string{"a", "b"},
		RiskLevel:       "HIGH",
		DetectionMethod: "Graph",
	}

	assert.Equal(t,
		"Pattern: Layering\nDescription: Obscure origin\nRisk Level: HIGH\nIndicators: a, b\nDetection Method: Graph",
		p.Text())

	doc := p.Document()
	assert.Equal(t, 2, doc.Metadata["indicators_count"])
	assert.Equal(t, "Layering", doc.Metadata["pattern_name"])
}

func TestBase_FindsDetectedPatterns(t *testing.T) {
	base := NewBase(seeded(t))
	ctx := context.Background()

	tests := map[string]string{
		"Structuring (Smurfing)":      "fp_005",
		"Rapid Account Draining":      "fp_003",
		"Unusual Transaction Amounts": "fp_001",
		"Duplicate Transactions":      "fp_007",
	}
	for query, want := range tests {
		matches, err := base.QueryFraudPatterns(ctx, query, 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, want, matches[0].ID, query)
		assert.NotEmpty(t, matches[0].Meta("risk_level"))
	}
}

func TestBase_ComplianceDocs(t *testing.T) {
	base := NewBase(seeded(t))

	matches, err := base.QueryComplianceDocs(context.Background(), "Structuring (Smurfing)", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "comp_001", matches[0].ID)
	assert.Equal(t, "Anti-Money Laundering (AML) Regulations", matches[0].Meta("title"))
	assert.Equal(t, "compliance", matches[0].Meta("type"))
}
