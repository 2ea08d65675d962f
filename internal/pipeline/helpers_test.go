package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/mock"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
	"github.com/dvloznov/fraud-analyzer/internal/knowledge"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
)

var (
	day0    = civil.Date{Year: 2024, Month: 3, Day: 1}
	fixedTS = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

type txBuilder struct {
	account string
	n       int
}

func newBuilder(account string) *txBuilder {
	return &txBuilder{account: account}
}

func (b *txBuilder) tx(amount float64, opts ...func(*domain.Transaction)) domain.Transaction {
	b.n++
	tx := domain.Transaction{
		TransactionID:  fmt.Sprintf("TXN_%s_%05d", b.account, b.n),
		AccountID:      b.account,
		Date:           day0.AddDays(b.n),
		Merchant:       "Grocery Store",
		Amount:         amount,
		Currency:       "USD",
		Location:       "Chicago",
		FraudIndicator: "normal",
	}
	for _, opt := range opts {
		opt(&tx)
	}
	return tx
}

func (b *txBuilder) repeat(n int, amount float64, opts ...func(*domain.Transaction)) []domain.Transaction {
	out := make([]domain.Transaction, n)
	for i := range out {
		out[i] = b.tx(amount, opts...)
	}
	return out
}

// allPatterns builds a table that triggers every built-in rule, detected in
// the order unusual amounts, draining, structuring, geography, duplicates.
func allPatterns(account string) []domain.Transaction {
	b := newBuilder(account)
	drainDay := day0.AddDays(500)

	var txs []domain.Transaction
	txs = append(txs, b.repeat(2, 20, func(tx *domain.Transaction) { tx.FraudIndicator = domain.FraudIndicatorDuplicate })...)
	txs = append(txs, b.repeat(3, 30, func(tx *domain.Transaction) { tx.Location = domain.LocationUnknown })...)
	txs = append(txs, b.repeat(4, 9800)...)
	txs = append(txs, b.repeat(6, 40, func(tx *domain.Transaction) { tx.Date = drainDay })...)
	txs = append(txs, b.repeat(20, 50)...)
	txs = append(txs, b.tx(50_000))
	return txs
}

// quiet builds a table with no detections.
func quiet(account string) []domain.Transaction {
	return newBuilder(account).repeat(4, 20)
}

func testOptions() Options {
	var n atomic.Int64
	return Options{
		Now: func() time.Time { return fixedTS },
		NewID: func() string {
			return fmt.Sprintf("report-%d", n.Add(1))
		},
	}
}

type mockKnowledge struct {
	mock.Mock
}

func (m *mockKnowledge) QueryFraudPatterns(ctx context.Context, text string, n int) ([]knowledge.Match, error) {
	args := m.Called(text, n)
	matches, _ := args.Get(0).([]knowledge.Match)
	return matches, args.Error(1)
}

func (m *mockKnowledge) QueryComplianceDocs(ctx context.Context, text string, n int) ([]knowledge.Match, error) {
	args := m.Called(text, n)
	matches, _ := args.Get(0).([]knowledge.Match)
	return matches, args.Error(1)
}

type mockNarrator struct {
	mock.Mock
}

func (m *mockNarrator) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	args := m.Called(p)
	return args.String(0), args.Error(1)
}

// narratorFunc adapts a function to llm.Narrator.
type narratorFunc func(ctx context.Context, p llm.Prompt) (string, error)

func (f narratorFunc) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	return f(ctx, p)
}

func match(id string, distance float64, meta map[string]any) knowledge.Match {
	return knowledge.Match{
		Document: knowledge.Document{ID: id, Metadata: meta},
		Distance: distance,
	}
}
