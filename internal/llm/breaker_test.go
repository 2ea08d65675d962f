package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedNarrator struct {
	calls int
	err   error
	text  string
}

func (s *scriptedNarrator) Complete(ctx context.Context, p Prompt) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestBreakerNarrator_PassesThrough(t *testing.T) {
	inner := &scriptedNarrator{text: "fine"}
	b := NewBreakerNarrator(context.Background(), "test", inner, 2, time.Minute)

	text, err := b.Complete(context.Background(), Prompt{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "fine", text)
}

func TestBreakerNarrator_OpensAfterFailures(t *testing.T) {
	inner := &scriptedNarrator{err: errors.New("down")}
	b := NewBreakerNarrator(context.Background(), "test", inner, 2, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := b.Complete(context.Background(), Prompt{})
		assert.EqualError(t, err, "down")
	}

	_, err := b.Complete(context.Background(), Prompt{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
}
