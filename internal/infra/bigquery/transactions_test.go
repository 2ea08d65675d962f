package bigquery

import (
	"testing"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

func TestTransactionRow_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
	}{
		{
			name: "all fields",
			tx: domain.Transaction{
				TransactionID:   "TXN_ACC_001_00001",
				AccountID:       "ACC_001",
				Date:            civil.Date{Year: 2024, Month: 3, Day: 1},
				Time:            civil.Time{Hour: 14, Minute: 5, Second: 30},
				Merchant:        "Amazon",
				Amount:          129.99,
				Currency:        "USD",
				Location:        "New York",
				TransactionType: "Purchase",
				Status:          "Completed",
				FraudIndicator:  domain.FraudIndicatorDuplicate,
			},
		},
		{
			name: "no fraud indicator",
			tx: domain.Transaction{
				TransactionID: "TXN_ACC_002_00002",
				AccountID:     "ACC_002",
				Date:          civil.Date{Year: 2024, Month: 3, Day: 2},
				Amount:        10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewTransactionRow(tt.tx, "gs://bucket/tx.csv")

			if row.FraudIndicator.Valid != (tt.tx.FraudIndicator != "") {
				t.Errorf("FraudIndicator.Valid = %v for %q", row.FraudIndicator.Valid, tt.tx.FraudIndicator)
			}
			if !row.SourceURI.Valid || row.SourceURI.StringVal != "gs://bucket/tx.csv" {
				t.Errorf("SourceURI = %+v", row.SourceURI)
			}
			if got := row.ToDomain(); got != tt.tx {
				t.Errorf("ToDomain() = %+v, want %+v", got, tt.tx)
			}
		})
	}
}

func TestDataset_Table(t *testing.T) {
	ds := Dataset{ProjectID: "proj", DatasetID: "fraud"}
	if got, want := ds.table(fraudReportsTable), "`proj.fraud.fraud_reports`"; got != want {
		t.Errorf("table() = %s, want %s", got, want)
	}
}
