/*
book.go - The Book: account balances, transaction log, transfer engine

PURPOSE:
  Book owns the chart of accounts and the append-only transaction log.
  Transfer is the single primitive mutation: every higher-level workflow
  (reconciliation, shift close, payroll) is built from one or more Transfer
  calls plus MarkReconciled.

CRITICAL INVARIANTS:
  1. SINGLE PATH: an account balance changes only inside Transfer.
  2. ATOMIC UNIT: both balance updates and the log append happen under one
     lock hold; with the HTTP server on top, concurrent handlers serialize
     here rather than relying on single-threaded execution.
  3. APPEND-ONLY: the log is never deleted or re-ordered; the reconciled
     flag flips exactly once, false to true.
  4. NO PHANTOM BALANCES: transfers naming an id outside the chart fail
     with UnknownAccountError before any mutation.

SOLVENCY:
  Deliberately not enforced. The till float legitimately goes negative in
  this domain's simplified model, so no insufficient-funds check exists.

SEE ALSO:
  - store.go: the write-through persistence contract
  - chart.go: first-run seeding
*/
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// BOOK
// =============================================================================

// Book is the in-memory ledger with write-through persistence.
// Safe for concurrent use.
type Book struct {
	mu    sync.RWMutex
	store Store

	accounts map[AccountID]*Account
	order    []AccountID
	log      []Transaction
	index    map[TransactionID]int

	now   func() time.Time
	newID func() TransactionID
}

// Option configures a Book at open time.
type Option func(*Book)

// WithClock overrides the transaction timestamp source. Tests use this to
// pin time; production uses time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

// Open loads the ledger from the store, seeding the chart of accounts on
// first run.
func Open(ctx context.Context, store Store, opts ...Option) (*Book, error) {
	b := &Book{
		store:    store,
		accounts: make(map[AccountID]*Account),
		index:    make(map[TransactionID]int),
		now:      time.Now,
		newID:    func() TransactionID { return TransactionID("txn_" + uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(b)
	}

	accounts, err := store.LoadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		accounts = SeedChart()
		if err := store.SaveAccounts(ctx, accounts); err != nil {
			return nil, err
		}
	}
	for i := range accounts {
		acc := accounts[i]
		b.accounts[acc.ID] = &acc
		b.order = append(b.order, acc.ID)
	}

	log, err := store.LoadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	b.log = log
	for i := range b.log {
		b.index[b.log[i].ID] = i
	}
	return b, nil
}

// =============================================================================
// TRANSFER - The single primitive mutation
// =============================================================================

// TransferOption annotates the transaction a Transfer creates.
type TransferOption func(*Transaction)

// Reconciled marks the new transaction settled at creation time.
func Reconciled() TransferOption {
	return func(tx *Transaction) { tx.Reconciled = true }
}

// WithPurpose tags the new transaction with its business intent.
func WithPurpose(p Purpose) TransferOption {
	return func(tx *Transaction) { tx.Purpose = p }
}

// Transfer moves amount from one account to another, appending one
// transaction. A zero amount is an explicit no-op: no transaction is
// created and (nil, nil) is returned. A negative amount, a self-transfer,
// or an id outside the chart is rejected before any mutation.
func (b *Book) Transfer(ctx context.Context, from, to AccountID, amount decimal.Decimal, note string, opts ...TransferOption) (*Transaction, error) {
	if amount.IsZero() {
		return nil, nil
	}
	if amount.IsNegative() {
		return nil, Invalidf("amount", "must be non-negative, got %s", amount)
	}
	if from == to {
		return nil, Invalidf("to", "transfer from %s to itself is not meaningful", from)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.accounts[from]
	if !ok {
		return nil, &UnknownAccountError{ID: from}
	}
	dst, ok := b.accounts[to]
	if !ok {
		return nil, &UnknownAccountError{ID: to}
	}

	tx := Transaction{
		ID:     b.newID(),
		From:   from,
		To:     to,
		Amount: amount,
		Note:   note,
		At:     b.now(),
	}
	for _, opt := range opts {
		opt(&tx)
	}

	src.Balance = src.Balance.Sub(amount)
	dst.Balance = dst.Balance.Add(amount)
	b.log = append(b.log, tx)
	b.index[tx.ID] = len(b.log) - 1

	if err := b.persistLocked(ctx, tx); err != nil {
		// Roll the in-memory unit back so memory matches the store.
		src.Balance = src.Balance.Add(amount)
		dst.Balance = dst.Balance.Sub(amount)
		b.log = b.log[:len(b.log)-1]
		delete(b.index, tx.ID)
		return nil, err
	}
	return &tx, nil
}

func (b *Book) persistLocked(ctx context.Context, tx Transaction) error {
	if err := b.store.SaveAccounts(ctx, b.snapshotLocked()); err != nil {
		return err
	}
	return b.store.AppendTransaction(ctx, tx)
}

func (b *Book) snapshotLocked() []Account {
	out := make([]Account, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.accounts[id])
	}
	return out
}

// =============================================================================
// RECONCILED FLAG
// =============================================================================

// MarkReconciled flips the reconciled flag on the given transactions.
// The whole batch is validated first: an unknown id, a repeated id, or an
// already-reconciled transaction fails the call before any flip.
func (b *Book) MarkReconciled(ctx context.Context, ids ...TransactionID) error {
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[TransactionID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return Invalidf("transaction", "%s selected twice", id)
		}
		seen[id] = struct{}{}
		i, ok := b.index[id]
		if !ok {
			return ErrUnknownTransaction
		}
		if b.log[i].Reconciled {
			return ErrAlreadyReconciled
		}
	}
	for _, id := range ids {
		b.log[b.index[id]].Reconciled = true
	}
	if err := b.store.MarkReconciled(ctx, ids); err != nil {
		for _, id := range ids {
			b.log[b.index[id]].Reconciled = false
		}
		return err
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Account returns a copy of the account with the given id.
func (b *Book) Account(id AccountID) (Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	acc, ok := b.accounts[id]
	if !ok {
		return Account{}, &UnknownAccountError{ID: id}
	}
	return *acc, nil
}

// Accounts returns the chart in display order.
func (b *Book) Accounts() []Account {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Find returns the transaction with the given id.
func (b *Book) Find(id TransactionID) (Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.index[id]
	if !ok {
		return Transaction{}, ErrUnknownTransaction
	}
	return b.log[i], nil
}

// Transactions returns the full log in append order.
func (b *Book) Transactions() []Transaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Transaction, len(b.log))
	copy(out, b.log)
	return out
}

// TransactionsSince returns log entries at or after the given time.
func (b *Book) TransactionsSince(at time.Time) []Transaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Transaction
	for _, tx := range b.log {
		if !tx.At.Before(at) {
			out = append(out, tx)
		}
	}
	return out
}

// TotalsByType sums balances per account type (assets, receivables, ...).
func (b *Book) TotalsByType() map[AccountType]decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	totals := make(map[AccountType]decimal.Decimal)
	for _, id := range b.order {
		acc := b.accounts[id]
		totals[acc.Type] = totals[acc.Type].Add(acc.Balance)
	}
	return totals
}

// =============================================================================
// AUDIT - Balance invariant verification
// =============================================================================

// AuditMismatch reports one account whose balance disagrees with the log.
type AuditMismatch struct {
	Account AccountID
	Balance decimal.Decimal
	Derived decimal.Decimal
}

// AuditError aggregates every mismatch found by Audit.
type AuditError struct {
	Mismatches []AuditMismatch
}

func (e *AuditError) Error() string {
	return "ledger audit failed: balance does not match transaction log"
}

// Audit replays the log and verifies, for every account, that
// Balance == Opening + sum(inflows) - sum(outflows).
func (b *Book) Audit() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	derived := make(map[AccountID]decimal.Decimal, len(b.order))
	for id, acc := range b.accounts {
		derived[id] = acc.Opening
	}
	for _, tx := range b.log {
		derived[tx.From] = derived[tx.From].Sub(tx.Amount)
		derived[tx.To] = derived[tx.To].Add(tx.Amount)
	}

	var audit AuditError
	for _, id := range b.order {
		acc := b.accounts[id]
		if !acc.Balance.Equal(derived[id]) {
			audit.Mismatches = append(audit.Mismatches, AuditMismatch{
				Account: id, Balance: acc.Balance, Derived: derived[id],
			})
		}
	}
	if len(audit.Mismatches) > 0 {
		return &audit
	}
	return nil
}
