package domain

import (
	"errors"
	"fmt"
	"math"

	"cloud.google.com/go/civil"
)

// Sentinel locations marking non-standard geography.
const (
	LocationInternational = "International"
	LocationUnknown       = "Unknown"
)

// FraudIndicatorDuplicate is the ground-truth label used by the duplicate detector.
const FraudIndicatorDuplicate = "duplicate_transaction"

// Transaction is one row of the transaction table.
// Rows are read-only input to the analyzer; nothing downstream mutates them.
type Transaction struct {
	TransactionID   string     `json:"transaction_id"`
	AccountID       string     `json:"account_id"`
	Date            civil.Date `json:"date"`
	Time            civil.Time `json:"time"` // display only
	Merchant        string     `json:"merchant"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	Location        string     `json:"location"`
	TransactionType string     `json:"transaction_type"`
	Status          string     `json:"status"`
	FraudIndicator  string     `json:"fraud_indicator"`
}

// IsNonStandardLocation reports whether the location is one of the sentinel values.
func (t Transaction) IsNonStandardLocation() bool {
	return t.Location == LocationInternational || t.Location == LocationUnknown
}

// Validate checks the row-level invariants.
func (t Transaction) Validate() error {
	var errs []error
	if t.TransactionID == "" {
		errs = append(errs, errors.New("transaction_id is required"))
	}
	if t.AccountID == "" {
		errs = append(errs, errors.New("account_id is required"))
	}
	if t.Date.IsZero() {
		errs = append(errs, errors.New("date is required"))
	} else if !t.Date.IsValid() {
		errs = append(errs, fmt.Errorf("date %s is not a valid calendar date", t.Date))
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		errs = append(errs, errors.New("amount must be finite"))
	} else if t.Amount < 0 {
		errs = append(errs, fmt.Errorf("amount %.2f must be non-negative", t.Amount))
	}
	return errors.Join(errs...)
}
