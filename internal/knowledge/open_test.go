package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/fraud-analyzer/internal/config"
)

func TestOpen_MemoryIsSeeded(t *testing.T) {
	store, err := Open(context.Background(), config.Default(), nil)
	require.NoError(t, err)

	mem, ok := store.(*MemoryStore)
	require.True(t, ok)
	assert.Equal(t, len(FraudPatterns), mem.Count(CollectionFraudPatterns))
	assert.Equal(t, len(ComplianceDocs), mem.Count(CollectionComplianceDocs))
}

func TestOpen_Errors(t *testing.T) {
	cfg := config.Default()

	cfg.Knowledge.Backend = BackendBigQuery
	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "warehouse")

	cfg.Knowledge.Backend = "chroma"
	_, err = Open(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown knowledge backend")
}
