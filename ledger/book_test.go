package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozz/backoffice/ledger"
	"github.com/mozz/backoffice/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestBook(t *testing.T) *ledger.Book {
	book, err := ledger.Open(context.Background(), memory.New())
	require.NoError(t, err)
	return book
}

// =============================================================================
// SEEDING
// =============================================================================

func TestOpen_EmptyStore_SeedsChart(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: Opening the book
	// THEN: The fixed chart of accounts exists with its opening balances

	book := newTestBook(t)

	accounts := book.Accounts()
	assert.Len(t, accounts, 14)

	till, err := book.Account(ledger.TillFloat)
	require.NoError(t, err)
	assert.True(t, till.Balance.Equal(ledger.Money(500)), "till float opens at 500")
	assert.Equal(t, ledger.TypeAsset, till.Type)

	bank, err := book.Account(ledger.BusinessBank)
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(ledger.Money(12000)))
}

func TestOpen_ExistingStore_DoesNotReseed(t *testing.T) {
	// GIVEN: A store already holding accounts and transactions
	// WHEN: Reopening the book
	// THEN: Balances and the log survive the restart

	store := memory.New()
	ctx := context.Background()

	book, err := ledger.Open(ctx, store)
	require.NoError(t, err)
	_, err = book.Transfer(ctx, ledger.OwnerEquity, ledger.TillFloat, ledger.Money(50), "float top-up")
	require.NoError(t, err)

	reopened, err := ledger.Open(ctx, store)
	require.NoError(t, err)

	till, err := reopened.Account(ledger.TillFloat)
	require.NoError(t, err)
	assert.True(t, till.Balance.Equal(ledger.Money(550)))
	assert.Len(t, reopened.Transactions(), 1)
	assert.NoError(t, reopened.Audit())
}

// =============================================================================
// TRANSFER
// =============================================================================

func TestTransfer_MovesMoneyAndLogs(t *testing.T) {
	// GIVEN: The seeded chart
	// WHEN: Transferring 40 from the till into operating expenses
	// THEN: Both balances move by 40 and one log entry appears

	book := newTestBook(t)
	ctx := context.Background()

	tx, err := book.Transfer(ctx, ledger.TillFloat, ledger.OperatingExpenses, ledger.Money(40), "Food: vegetables")
	require.NoError(t, err)
	require.NotNil(t, tx)

	till, _ := book.Account(ledger.TillFloat)
	opex, _ := book.Account(ledger.OperatingExpenses)
	assert.True(t, till.Balance.Equal(ledger.Money(460)))
	assert.True(t, opex.Balance.Equal(ledger.Money(40)))

	log := book.Transactions()
	require.Len(t, log, 1)
	assert.Equal(t, tx.ID, log[0].ID)
	assert.False(t, log[0].Reconciled)
}

func TestTransfer_ZeroAmount_IsNoOp(t *testing.T) {
	// GIVEN: The seeded chart
	// WHEN: Transferring a zero amount
	// THEN: No transaction is created and no balance moves

	book := newTestBook(t)

	tx, err := book.Transfer(context.Background(), ledger.TillFloat, ledger.OperatingExpenses, ledger.Money(0), "nothing")
	assert.NoError(t, err)
	assert.Nil(t, tx)
	assert.Empty(t, book.Transactions())

	till, _ := book.Account(ledger.TillFloat)
	assert.True(t, till.Balance.Equal(ledger.Money(500)))
}

func TestTransfer_NegativeAmount_Rejected(t *testing.T) {
	book := newTestBook(t)

	_, err := book.Transfer(context.Background(), ledger.TillFloat, ledger.OperatingExpenses, ledger.Money(-5), "bad")
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.True(t, ledger.IsClientError(err))
}

func TestTransfer_SelfTransfer_Rejected(t *testing.T) {
	book := newTestBook(t)

	_, err := book.Transfer(context.Background(), ledger.TillFloat, ledger.TillFloat, ledger.Money(5), "loop")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestTransfer_UnknownAccount_Rejected(t *testing.T) {
	// GIVEN: The seeded chart
	// WHEN: Naming an account outside the chart
	// THEN: The transfer fails before any mutation

	book := newTestBook(t)

	_, err := book.Transfer(context.Background(), "petty_cash", ledger.TillFloat, ledger.Money(5), "phantom")
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)
	assert.True(t, ledger.IsNotFound(err))

	var unknown *ledger.UnknownAccountError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, ledger.AccountID("petty_cash"), unknown.ID)

	assert.Empty(t, book.Transactions())
	assert.NoError(t, book.Audit())
}

func TestTransfer_AllowsNegativeBalance(t *testing.T) {
	// The till legitimately goes negative; no solvency check exists.
	book := newTestBook(t)

	_, err := book.Transfer(context.Background(), ledger.TillFloat, ledger.BusinessBank, ledger.Money(600), "bank drop")
	require.NoError(t, err)

	till, _ := book.Account(ledger.TillFloat)
	assert.True(t, till.Balance.Equal(ledger.Money(-100)))
	assert.NoError(t, book.Audit())
}

func TestTransfer_Options(t *testing.T) {
	// GIVEN: The seeded chart
	// WHEN: Transferring with Reconciled and a purpose tag
	// THEN: The logged transaction carries both

	book := newTestBook(t)

	tx, err := book.Transfer(context.Background(),
		ledger.BusinessBank, ledger.StaffObligations, ledger.Money(200), "Staff Loan given",
		ledger.WithPurpose(ledger.LoanIssue{StaffID: "s1"}))
	require.NoError(t, err)
	require.NotNil(t, tx.Purpose)
	assert.Equal(t, ledger.KindLoanIssue, tx.Purpose.Kind())

	fee, err := book.Transfer(context.Background(),
		ledger.CardPayments, ledger.OperatingExpenses, ledger.Money(3), "Bank Fee",
		ledger.Reconciled(), ledger.WithPurpose(ledger.BankFee{}))
	require.NoError(t, err)
	assert.True(t, fee.Reconciled)
}

// =============================================================================
// RECONCILED FLAG
// =============================================================================

func TestMarkReconciled_FlipsOnce(t *testing.T) {
	// GIVEN: One unreconciled transaction
	// WHEN: Marking it reconciled twice
	// THEN: The first call succeeds, the second fails, the flag stays true

	book := newTestBook(t)
	ctx := context.Background()

	tx, err := book.Transfer(ctx, ledger.TillFloat, ledger.HikingBarRec, ledger.Money(75), "HB Order #12")
	require.NoError(t, err)

	require.NoError(t, book.MarkReconciled(ctx, tx.ID))
	found, err := book.Find(tx.ID)
	require.NoError(t, err)
	assert.True(t, found.Reconciled)

	err = book.MarkReconciled(ctx, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyReconciled)
}

func TestMarkReconciled_BatchValidatedUpFront(t *testing.T) {
	// GIVEN: One valid transaction and one unknown id in the same batch
	// WHEN: Marking the batch
	// THEN: Nothing flips

	book := newTestBook(t)
	ctx := context.Background()

	tx, err := book.Transfer(ctx, ledger.TillFloat, ledger.HikingBarRec, ledger.Money(20), "order")
	require.NoError(t, err)

	err = book.MarkReconciled(ctx, tx.ID, "txn_missing")
	assert.ErrorIs(t, err, ledger.ErrUnknownTransaction)

	found, _ := book.Find(tx.ID)
	assert.False(t, found.Reconciled, "partial batches must not apply")
}

func TestMarkReconciled_DuplicateInBatch_Rejected(t *testing.T) {
	// GIVEN: The same id listed twice in one batch
	// WHEN: Marking the batch
	// THEN: The call fails before any flag flips

	book := newTestBook(t)
	ctx := context.Background()

	tx, err := book.Transfer(ctx, ledger.TillFloat, ledger.HikingBarRec, ledger.Money(20), "order")
	require.NoError(t, err)

	err = book.MarkReconciled(ctx, tx.ID, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrValidation)

	found, _ := book.Find(tx.ID)
	assert.False(t, found.Reconciled)
}

// =============================================================================
// QUERIES AND AUDIT
// =============================================================================

func TestTransactionsSince_FiltersByTime(t *testing.T) {
	// GIVEN: Transactions before and after a cutoff
	// WHEN: Querying since the cutoff
	// THEN: Only the later entries return

	current := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	book, err := ledger.Open(context.Background(), memory.New(), ledger.WithClock(clock))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = book.Transfer(ctx, ledger.TillFloat, ledger.OperatingExpenses, ledger.Money(10), "early")
	require.NoError(t, err)

	cutoff := current.Add(time.Hour)
	current = cutoff
	_, err = book.Transfer(ctx, ledger.TillFloat, ledger.OperatingExpenses, ledger.Money(20), "late")
	require.NoError(t, err)

	since := book.TransactionsSince(cutoff)
	require.Len(t, since, 1)
	assert.Equal(t, "late", since[0].Note)
}

func TestTotalsByType_SumsBalances(t *testing.T) {
	book := newTestBook(t)

	totals := book.TotalsByType()
	// till 500 + bank 12000 + staff card 100 + foreign currency 0
	assert.True(t, totals[ledger.TypeAsset].Equal(ledger.Money(12600)))
	assert.True(t, totals[ledger.TypeEquity].Equal(ledger.Money(5000)))
}

func TestAudit_DetectsNothingOnCleanBook(t *testing.T) {
	// GIVEN: A book mutated only through Transfer
	// WHEN: Auditing
	// THEN: Every balance equals opening plus log flow

	book := newTestBook(t)
	ctx := context.Background()

	_, err := book.Transfer(ctx, ledger.TillFloat, ledger.OperatingExpenses, ledger.Money(40), "food")
	require.NoError(t, err)
	_, err = book.Transfer(ctx, ledger.OwnerEquity, ledger.TillFloat, ledger.Money(100), "top-up")
	require.NoError(t, err)

	assert.NoError(t, book.Audit())
}

// =============================================================================
// EPSILON
// =============================================================================

func TestWithinEpsilon(t *testing.T) {
	assert.True(t, ledger.WithinEpsilon(ledger.Money(100), ledger.Money(100.009)))
	assert.True(t, ledger.WithinEpsilon(ledger.Money(100), ledger.Money(100.01)))
	assert.False(t, ledger.WithinEpsilon(ledger.Money(100), ledger.Money(100.011)))
}
