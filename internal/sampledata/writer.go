package sampledata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
	"github.com/dvloznov/fraud-analyzer/internal/ingest"
)

// Output file names inside the target directory.
const (
	CSVFile  = "transactions.csv"
	JSONFile = "transactions.json"
)

// WriteFiles writes txs to dir as CSV and indented JSON, creating dir if needed.
func WriteFiles(dir string, txs []domain.Transaction) (csvPath, jsonPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("WriteFiles: create %s: %w", dir, err)
	}

	csvPath = filepath.Join(dir, CSVFile)
	f, err := os.Create(csvPath)
	if err != nil {
		return "", "", fmt.Errorf("WriteFiles: %w", err)
	}
	if err := ingest.WriteCSV(f, txs); err != nil {
		f.Close()
		return "", "", fmt.Errorf("WriteFiles: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("WriteFiles: close %s: %w", csvPath, err)
	}

	jsonPath = filepath.Join(dir, JSONFile)
	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("WriteFiles: marshal: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("WriteFiles: %w", err)
	}
	return csvPath, jsonPath, nil
}

// Summary describes a generated table.
type Summary struct {
	Transactions int
	Accounts     int
	Merchants    int
	FirstDate    string
	LastDate     string
	ByIndicator  map[string]int
}

// Summarize counts accounts, merchants, date range and indicator labels.
func Summarize(txs []domain.Transaction) Summary {
	s := Summary{Transactions: len(txs), ByIndicator: map[string]int{}}
	if len(txs) == 0 {
		return s
	}

	accounts := map[string]struct{}{}
	merchants := map[string]struct{}{}
	dates := make([]string, 0, len(txs))
	for _, tx := range txs {
		accounts[tx.AccountID] = struct{}{}
		merchants[tx.Merchant] = struct{}{}
		dates = append(dates, tx.Date.String())
		s.ByIndicator[tx.FraudIndicator]++
	}
	sort.Strings(dates)

	s.Accounts = len(accounts)
	s.Merchants = len(merchants)
	s.FirstDate = dates[0]
	s.LastDate = dates[len(dates)-1]
	return s
}
