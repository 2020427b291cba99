/*
Package ledger provides the bookkeeping core: the fixed chart of accounts,
the append-only transaction log, and the transfer primitive that is the
only path by which an account balance may change.

KEY CONCEPTS IN THIS FILE (types.go):
  - AccountID / Account: a named balance bucket in the fixed chart
  - Transaction: an immutable record of one amount moving between two accounts
  - Reconciled flag: the single mutable bit on a transaction, flips once

DESIGN PRINCIPLES:
  1. Single mutation path: balances change only through Book.Transfer
  2. Precision: decimal.Decimal for all money, never float64
  3. Append-only: transactions are never deleted or re-ordered
  4. Closed purposes: transaction intent is a tagged variant, not a string bag

SEE ALSO:
  - book.go:    Book, the transfer engine and invariant owner
  - purpose.go: Purpose variants
  - chart.go:   the seeded chart of accounts
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type TransactionID string

// The chart of accounts is static. These are the well-known ids every
// workflow refers to; no account is created or deleted at runtime.
const (
	TillFloat         AccountID = "till_float"
	BusinessBank      AccountID = "business_bank"
	OwnerEquity       AccountID = "owner_equity"
	HikingBarRec      AccountID = "hiking_bar_rec"
	CardPayments      AccountID = "mozzarella_card_payment"
	HikingBarCard     AccountID = "hiking_bar_card_payment"
	ForeignCurrency   AccountID = "foreign_currency"
	PendingBills      AccountID = "pending_bills"
	StaffBankCard     AccountID = "staff_bank_card"
	StaffObligations  AccountID = "staff_loans"
	VarianceShortage  AccountID = "variance_short"
	VarianceExcess    AccountID = "variance_excess"
	OperatingExpenses AccountID = "operating_expenses"
	HikingBarExpenses AccountID = "hiking_bar_expenses"
)

// =============================================================================
// ACCOUNT
// =============================================================================

type AccountType string

const (
	TypeAsset      AccountType = "Asset"
	TypeLiability  AccountType = "Liability"
	TypeEquity     AccountType = "Equity"
	TypeRevenue    AccountType = "Revenue"
	TypeExpense    AccountType = "Expense"
	TypeReceivable AccountType = "Receivable"
	TypePayable    AccountType = "Payable"
)

// Account is a balance bucket. Opening is the seeded balance and never
// changes; Balance is mutated only by Book.Transfer.
//
// INVARIANT: Balance == Opening + sum(inflows) - sum(outflows).
// Book.Audit verifies this by replaying the transaction log.
type Account struct {
	ID      AccountID
	Name    string
	Type    AccountType
	Opening decimal.Decimal
	Balance decimal.Decimal
}

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction records an amount moving From -> To. Immutable once appended,
// except Reconciled which flips exactly once from false to true.
type Transaction struct {
	ID         TransactionID
	From       AccountID
	To         AccountID
	Amount     decimal.Decimal
	Note       string
	At         time.Time
	Reconciled bool
	Purpose    Purpose
}

// Credits reports whether the transaction flows into the given account.
func (t Transaction) Credits(id AccountID) bool { return t.To == id }

// Debits reports whether the transaction flows out of the given account.
func (t Transaction) Debits(id AccountID) bool { return t.From == id }

// =============================================================================
// MONEY HELPERS
// =============================================================================

// SplitEpsilon is the tolerance used when a reconciliation split must match
// a transaction amount. Currency inputs arrive with at most two decimal
// places, so one cent of slack absorbs entry rounding.
var SplitEpsilon = decimal.RequireFromString("0.01")

func Money(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// WithinEpsilon reports whether |a - b| <= SplitEpsilon.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(SplitEpsilon)
}
