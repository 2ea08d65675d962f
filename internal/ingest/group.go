package ingest

import "github.com/dvloznov/fraud-analyzer/internal/domain"

// AccountTransactions is one account's slice of the table.
type AccountTransactions struct {
	AccountID    string
	Transactions []domain.Transaction
}

// GroupByAccount splits txs per account, keeping accounts in order of first
// appearance and rows in table order.
func GroupByAccount(txs []domain.Transaction) []AccountTransactions {
	var groups []AccountTransactions
	pos := make(map[string]int)
	for _, tx := range txs {
		i, ok := pos[tx.AccountID]
		if !ok {
			i = len(groups)
			pos[tx.AccountID] = i
			groups = append(groups, AccountTransactions{AccountID: tx.AccountID})
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}
	return groups
}
