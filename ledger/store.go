/*
store.go - Persistence interface for the chart of accounts and the log

PURPOSE:
  The Book keeps all state in memory and writes through to a Store after
  every mutation. Each collection is persisted independently: accounts as a
  full snapshot (the chart is fourteen rows), transactions append-only with
  a single UPDATE path for the one-way reconciled flip.

IMPLEMENTATIONS:
  - store/sqlite: durable store for the running server
  - store/memory: in-memory store for tests

APPEND-ONLY CONTRACT:
  There is no delete and no general update on transactions. The only write
  after append is MarkReconciled, and the Book only issues it for
  transactions whose flag is still false.
*/
package ledger

import "context"

// Store persists the two ledger collections.
type Store interface {
	// LoadAccounts returns the chart, or an empty slice on first run.
	LoadAccounts(ctx context.Context) ([]Account, error)

	// SaveAccounts rewrites the full account snapshot.
	SaveAccounts(ctx context.Context, accounts []Account) error

	// LoadTransactions returns the log in append order.
	LoadTransactions(ctx context.Context) ([]Transaction, error)

	// AppendTransaction persists one new log entry.
	AppendTransaction(ctx context.Context, tx Transaction) error

	// MarkReconciled flips the reconciled flag for the given ids.
	MarkReconciled(ctx context.Context, ids []TransactionID) error
}
