package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
	"github.com/dvloznov/fraud-analyzer/internal/gcsuploader"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

// Column names of the transaction CSV.
const (
	ColTransactionID   = "transaction_id"
	ColAccountID       = "account_id"
	ColDate            = "date"
	ColTime            = "time"
	ColMerchant        = "merchant"
	ColAmount          = "amount"
	ColCurrency        = "currency"
	ColLocation        = "location"
	ColTransactionType = "transaction_type"
	ColStatus          = "status"
	ColFraudIndicator  = "fraud_indicator"
)

// Columns is the canonical column order used when writing CSV.
var Columns = []string{
	ColTransactionID, ColAccountID, ColDate, ColTime, ColMerchant, ColAmount,
	ColCurrency, ColLocation, ColTransactionType, ColStatus, ColFraudIndicator,
}

// requiredColumns must appear in the header. The rest default to empty.
var requiredColumns = []string{
	ColTransactionID, ColAccountID, ColDate, ColMerchant, ColAmount, ColLocation, ColFraudIndicator,
}

// ParseError reports a malformed CSV row.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d: column %s: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ParseCSV reads a transaction table with a header row. Columns may appear
// in any order. It stops at the first malformed row.
func ParseCSV(r io.Reader) ([]domain.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Line: 1, Err: errors.New("empty input, header row expected")}
	}
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &ParseError{Line: 1, Column: col, Err: ErrMissingColumn}
		}
	}

	var txs []domain.Transaction
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ParseCSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		tx, err := parseRecord(record, index, line)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseRecord(record []string, index map[string]int, line int) (domain.Transaction, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	tx := domain.Transaction{
		TransactionID:   get(ColTransactionID),
		AccountID:       get(ColAccountID),
		Merchant:        get(ColMerchant),
		Currency:        get(ColCurrency),
		Location:        get(ColLocation),
		TransactionType: get(ColTransactionType),
		Status:          get(ColStatus),
		FraudIndicator:  get(ColFraudIndicator),
	}

	date, err := civil.ParseDate(get(ColDate))
	if err != nil {
		return tx, &ParseError{Line: line, Column: ColDate, Err: err}
	}
	tx.Date = date

	if raw := get(ColTime); raw != "" {
		tm, err := civil.ParseTime(raw)
		if err != nil {
			return tx, &ParseError{Line: line, Column: ColTime, Err: err}
		}
		tx.Time = tm
	}

	amount, err := strconv.ParseFloat(get(ColAmount), 64)
	if err != nil {
		return tx, &ParseError{Line: line, Column: ColAmount, Err: err}
	}
	tx.Amount = amount

	if err := tx.Validate(); err != nil {
		return tx, &ParseError{Line: line, Err: err}
	}
	return tx, nil
}

// LoadCSV reads a transaction table from a local path or a gs:// URI.
// storage may be nil when uri is local.
func LoadCSV(ctx context.Context, uri string, storage gcsuploader.StorageService) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)

	var r io.Reader
	if gcsuploader.IsGCSURI(uri) {
		if storage == nil {
			return nil, fmt.Errorf("LoadCSV: no storage service for %s", uri)
		}
		data, err := storage.FetchFromGCS(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("LoadCSV: %w", err)
		}
		r = bytes.NewReader(data)
	} else {
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("LoadCSV: %w", err)
		}
		defer f.Close()
		r = f
	}

	txs, err := ParseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("LoadCSV: %s: %w", uri, err)
	}
	log.Info().Str("source", uri).Int("transactions", len(txs)).Msg("Loaded transactions")
	return txs, nil
}

// WriteCSV writes txs with a header in canonical column order.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("WriteCSV: header: %w", err)
	}
	for _, tx := range txs {
		record := []string{
			tx.TransactionID,
			tx.AccountID,
			tx.Date.String(),
			tx.Time.String(),
			tx.Merchant,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			tx.Currency,
			tx.Location,
			tx.TransactionType,
			tx.Status,
			tx.FraudIndicator,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("WriteCSV: row %s: %w", tx.TransactionID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
