package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

func TestGroupByAccount(t *testing.T) {
	txs := []domain.Transaction{
		{TransactionID: "1", AccountID: "ACC_003"},
		{TransactionID: "2", AccountID: "ACC_001"},
		{TransactionID: "3", AccountID: "ACC_003"},
		{TransactionID: "4", AccountID: "ACC_002"},
		{TransactionID: "5", AccountID: "ACC_001"},
	}

	groups := GroupByAccount(txs)

	assert.Equal(t, []AccountTransactions{
		{AccountID: "ACC_003", Transactions: []domain.Transaction{txs[0], txs[2]}},
		{AccountID: "ACC_001", Transactions: []domain.Transaction{txs[1], txs[4]}},
		{AccountID: "ACC_002", Transactions: []domain.Transaction{txs[3]}},
	}, groups)
}

func TestGroupByAccount_Empty(t *testing.T) {
	assert.Empty(t, GroupByAccount(nil))
}
