package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

// ErrCircuitOpen is returned while the breaker refuses calls.
var ErrCircuitOpen = errors.New("llm: circuit breaker open")

// BreakerNarrator stops calling a failing model for a cool-down period so
// that callers fall back quickly instead of waiting on every timeout.
type BreakerNarrator struct {
	next Narrator
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerNarrator trips after failureThreshold consecutive failures and
// probes again after coolDown.
func NewBreakerNarrator(ctx context.Context, name string, next Narrator, failureThreshold uint32, coolDown time.Duration) *BreakerNarrator {
	if failureThreshold == 0 {
		failureThreshold = 3
	}
	if coolDown <= 0 {
		coolDown = 30 * time.Second
	}
	log := logger.FromContext(ctx)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     coolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Narrator circuit breaker state changed")
		},
	}

	return &BreakerNarrator{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Complete forwards to the wrapped narrator unless the breaker is open.
func (b *BreakerNarrator) Complete(ctx context.Context, p Prompt) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %s", ErrCircuitOpen, b.cb.Name())
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
