package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertTransactions inserts a batch of TransactionRow into <dataset>.transactions.
func InsertTransactions(ctx context.Context, ds Dataset, rows []*TransactionRow) error {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return fmt.Errorf("InsertTransactions: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertTransactionsWithClient(ctx, client, ds, rows)
}

// InsertTransactionsWithClient streams the rows through the table inserter
// using the provided BigQuery client.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Use fully qualified table name to avoid project ID issues
	table := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(transactionsTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}

	return nil
}

// QueryTransactionsByAccount returns every transaction of one account,
// ordered by date, time and id.
func QueryTransactionsByAccount(ctx context.Context, ds Dataset, accountID string) ([]*TransactionRow, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByAccount: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryTransactionsByAccountWithClient(ctx, client, ds, accountID)
}

// QueryTransactionsByAccountWithClient is QueryTransactionsByAccount on a shared client.
func QueryTransactionsByAccountWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string) ([]*TransactionRow, error) {
	q := client.Query(`
		SELECT
			transaction_id,
			account_id,
			transaction_date,
			transaction_time,
			merchant,
			amount,
			currency,
			location,
			transaction_type,
			status,
			fraud_indicator,
			source_uri,
			created_ts
		FROM ` + ds.table(transactionsTable) + `
		WHERE account_id = @account_id
		ORDER BY transaction_date, transaction_time, transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByAccount: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByAccount: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// ListAccountIDs returns the distinct account ids present in the transactions table.
func ListAccountIDs(ctx context.Context, ds Dataset) ([]string, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("ListAccountIDs: bigquery client: %w", err)
	}
	defer client.Close()

	return ListAccountIDsWithClient(ctx, client, ds)
}

// ListAccountIDsWithClient is ListAccountIDs on a shared client.
func ListAccountIDsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]string, error) {
	q := client.Query(`
		SELECT DISTINCT account_id
		FROM ` + ds.table(transactionsTable) + `
		ORDER BY account_id
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccountIDs: query read: %w", err)
	}

	var ids []string
	for {
		var row struct {
			AccountID string `bigquery:"account_id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccountIDs: iter next: %w", err)
		}
		ids = append(ids, row.AccountID)
	}

	return ids, nil
}
