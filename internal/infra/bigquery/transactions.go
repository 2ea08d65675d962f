package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	AccountID     string `bigquery:"account_id"`     // REQUIRED

	TransactionDate civil.Date        `bigquery:"transaction_date"` // REQUIRED
	TransactionTime bigquery.NullTime `bigquery:"transaction_time"` // NULLABLE

	Merchant string  `bigquery:"merchant"`
	Amount   float64 `bigquery:"amount"` // REQUIRED FLOAT64
	Currency string  `bigquery:"currency"`
	Location string  `bigquery:"location"`

	TransactionType string              `bigquery:"transaction_type"`
	Status          string              `bigquery:"status"`
	FraudIndicator  bigquery.NullString `bigquery:"fraud_indicator"` // NULLABLE

	SourceURI bigquery.NullString `bigquery:"source_uri"` // NULLABLE
	CreatedTS time.Time           `bigquery:"created_ts"`
}

// NewTransactionRow maps a domain transaction to its warehouse row.
func NewTransactionRow(tx domain.Transaction, sourceURI string) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.TransactionID,
		AccountID:       tx.AccountID,
		TransactionDate: tx.Date,
		TransactionTime: bigquery.NullTime{Time: tx.Time, Valid: tx.Time.IsValid()},
		Merchant:        tx.Merchant,
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		Location:        tx.Location,
		TransactionType: tx.TransactionType,
		Status:          tx.Status,
		FraudIndicator:  bigquery.NullString{StringVal: tx.FraudIndicator, Valid: tx.FraudIndicator != ""},
		SourceURI:       bigquery.NullString{StringVal: sourceURI, Valid: sourceURI != ""},
		CreatedTS:       time.Now().UTC(),
	}
}

// ToDomain maps the row back to a domain transaction.
func (r *TransactionRow) ToDomain() domain.Transaction {
	tx := domain.Transaction{
		TransactionID:   r.TransactionID,
		AccountID:       r.AccountID,
		Date:            r.TransactionDate,
		Merchant:        r.Merchant,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Location:        r.Location,
		TransactionType: r.TransactionType,
		Status:          r.Status,
	}
	if r.TransactionTime.Valid {
		tx.Time = r.TransactionTime.Time
	}
	if r.FraudIndicator.Valid {
		tx.FraudIndicator = r.FraudIndicator.StringVal
	}
	return tx
}
