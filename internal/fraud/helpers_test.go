package fraud

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

var day0 = civil.Date{Year: 2024, Month: 3, Day: 1}

// txBuilder produces rows for one account with sensible defaults.
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
		TransactionID:   fmt.Sprintf("TXN_%s_%05d", b.account, b.n),
		AccountID:       b.account,
		Date:            day0.AddDays(b.n),
		Time:            civil.Time{Hour: 12},
		Merchant:        "Grocery Store",
		Amount:          amount,
		Currency:        "USD",
		Location:        "Chicago",
		TransactionType: "debit",
		Status:          "completed",
		FraudIndicator:  "normal",
	}
	for _, opt := range opts {
		opt(&tx)
	}
	return tx
}

func (b *txBuilder) amounts(amounts ...float64) []domain.Transaction {
	out := make([]domain.Transaction, len(amounts))
	for i, a := range amounts {
		out[i] = b.tx(a)
	}
	return out
}

func onDate(d civil.Date) func(*domain.Transaction) {
	return func(tx *domain.Transaction) { tx.Date = d }
}

func atLocation(loc string) func(*domain.Transaction) {
	return func(tx *domain.Transaction) { tx.Location = loc }
}

func atMerchant(m string) func(*domain.Transaction) {
	return func(tx *domain.Transaction) { tx.Merchant = m }
}

func withIndicator(ind string) func(*domain.Transaction) {
	return func(tx *domain.Transaction) { tx.FraudIndicator = ind }
}
