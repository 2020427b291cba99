package expense_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozz/backoffice/expense"
	"github.com/mozz/backoffice/ledger"
	"github.com/mozz/backoffice/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestTracker(t *testing.T) (*expense.Tracker, *ledger.Book) {
	store := memory.New()
	ctx := context.Background()

	book, err := ledger.Open(ctx, store)
	require.NoError(t, err)
	tracker, err := expense.Open(ctx, store, book)
	require.NoError(t, err)
	return tracker, book
}

func balance(t *testing.T, book *ledger.Book, id ledger.AccountID) float64 {
	acc, err := book.Account(id)
	require.NoError(t, err)
	f, _ := acc.Balance.Float64()
	return f
}

// =============================================================================
// LOGGING EXPENSES
// =============================================================================

func TestLog_MovesMoneyAndTagsPurpose(t *testing.T) {
	// GIVEN: A fresh book
	// WHEN: Logging a 40 Food expense from the till, paid to a vendor
	// THEN: The till drops 40, operating_expenses gains 40, and the
	//       transaction carries the category breakdown

	tracker, book := newTestTracker(t)

	tx, err := tracker.Log(context.Background(), expense.Input{
		Amount:    ledger.Money(40),
		SourceID:  ledger.TillFloat,
		Category:  "Food",
		Note:      "Vegetables",
		PayeeType: expense.PayeeVendor,
		PayeeID:   "v_1",
		PayeeName: "Keells",
	})
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, 460.0, balance(t, book, ledger.TillFloat))
	assert.Equal(t, 40.0, balance(t, book, ledger.OperatingExpenses))
	assert.Equal(t, "Food: Vegetables", tx.Note)

	require.NotNil(t, tx.Purpose)
	exp, ok := tx.Purpose.(ledger.Expense)
	require.True(t, ok)
	assert.Equal(t, "Food", exp.Category)
	assert.Equal(t, "v_1", exp.VendorID)
	assert.Empty(t, exp.StaffID)
	assert.Equal(t, "Keells", exp.PayeeName)

	assert.NoError(t, book.Audit())
}

func TestLog_StaffPayee_TagsStaffID(t *testing.T) {
	tracker, _ := newTestTracker(t)

	tx, err := tracker.Log(context.Background(), expense.Input{
		Amount:    ledger.Money(15),
		SourceID:  ledger.TillFloat,
		Category:  "Transport",
		PayeeType: expense.PayeeStaff,
		PayeeID:   "s3",
	})
	require.NoError(t, err)

	exp := tx.Purpose.(ledger.Expense)
	assert.Equal(t, "s3", exp.StaffID)
	assert.Empty(t, exp.VendorID)
	assert.Equal(t, "Transport", tx.Note, "note without detail is just the category")
}

func TestLog_Validation(t *testing.T) {
	tracker, book := newTestTracker(t)

	_, err := tracker.Log(context.Background(), expense.Input{
		Amount:   ledger.Money(0),
		SourceID: ledger.TillFloat,
		Category: "Food",
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = tracker.Log(context.Background(), expense.Input{
		Amount:   ledger.Money(10),
		SourceID: ledger.TillFloat,
	})
	assert.ErrorIs(t, err, ledger.ErrValidation, "category is required")

	assert.Empty(t, book.Transactions())
}

// =============================================================================
// VENDORS, CATEGORIES, PARTNERS
// =============================================================================

func TestVendors_AddAndDelete(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	v, err := tracker.AddVendor(ctx, "Keells")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Keells", v.Name)

	_, err = tracker.AddVendor(ctx, "")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	require.NoError(t, tracker.DeleteVendor(ctx, v.ID))
	assert.Empty(t, tracker.Vendors())

	// Deleting an unknown vendor is a no-op.
	assert.NoError(t, tracker.DeleteVendor(ctx, "v_missing"))
}

func TestCategories_SubCategoryLifecycle(t *testing.T) {
	// GIVEN: A "Food" category
	// WHEN: Adding and removing sub-categories
	// THEN: The list tracks each change

	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	cat, err := tracker.AddCategory(ctx, "Food")
	require.NoError(t, err)

	require.NoError(t, tracker.AddSubCategory(ctx, cat.ID, "Meat"))
	require.NoError(t, tracker.AddSubCategory(ctx, cat.ID, "Dairy"))

	err = tracker.AddSubCategory(ctx, "cat_missing", "Meat")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	cats := tracker.Categories()
	require.Len(t, cats, 1)
	assert.Equal(t, []string{"Meat", "Dairy"}, cats[0].SubCategories)

	require.NoError(t, tracker.DeleteSubCategory(ctx, cat.ID, "Meat"))
	cats = tracker.Categories()
	assert.Equal(t, []string{"Dairy"}, cats[0].SubCategories)
}

func TestPartners_AddIsIdempotent(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.AddPartner(ctx, "Trek Lanka"))
	require.NoError(t, tracker.AddPartner(ctx, "Trek Lanka"))
	assert.Equal(t, []string{"Trek Lanka"}, tracker.Partners())

	require.NoError(t, tracker.DeletePartner(ctx, "Trek Lanka"))
	assert.Empty(t, tracker.Partners())
}

// =============================================================================
// TEMPLATES
// =============================================================================

func TestTemplates_SaveAndApply(t *testing.T) {
	// GIVEN: A saved gas-refill template
	// WHEN: Applying it
	// THEN: The expense is logged exactly as the template describes

	tracker, book := newTestTracker(t)
	ctx := context.Background()

	tpl, err := tracker.SaveTemplate(ctx, expense.Template{
		Name:     "Gas refill",
		Amount:   ledger.Money(35),
		Category: "Utilities",
		SourceID: ledger.TillFloat,
		Note:     "12kg cylinder",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tpl.ID)

	tx, err := tracker.Apply(ctx, tpl.ID)
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(ledger.Money(35)))
	assert.Equal(t, "Utilities: 12kg cylinder", tx.Note)
	assert.Equal(t, 465.0, balance(t, book, ledger.TillFloat))

	_, err = tracker.Apply(ctx, "tpl_missing")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestTemplates_Validation(t *testing.T) {
	tracker, _ := newTestTracker(t)

	_, err := tracker.SaveTemplate(context.Background(), expense.Template{Amount: ledger.Money(10)})
	assert.ErrorIs(t, err, ledger.ErrValidation, "name required")

	_, err = tracker.SaveTemplate(context.Background(), expense.Template{Name: "Rent"})
	assert.ErrorIs(t, err, ledger.ErrValidation, "amount must be positive")
}

// =============================================================================
// RECURRING PAYMENTS
// =============================================================================

func TestRecurring_RunDue(t *testing.T) {
	// GIVEN: A monthly rent payment due yesterday and a weekly one due
	//        next week
	// WHEN: Running due payments
	// THEN: Only the rent fires and its due date advances one month

	tracker, book := newTestTracker(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	rent, err := tracker.AddRecurring(ctx, expense.Recurring{
		Template: expense.Template{
			Name:     "Rent",
			Amount:   ledger.Money(900),
			Category: "Rent",
			SourceID: ledger.BusinessBank,
		},
		Frequency: expense.Monthly,
		NextDue:   now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	assert.True(t, rent.Active, "new payments start active")

	_, err = tracker.AddRecurring(ctx, expense.Recurring{
		Template: expense.Template{
			Name:     "Laundry",
			Amount:   ledger.Money(50),
			Category: "Cleaning",
			SourceID: ledger.TillFloat,
		},
		Frequency: expense.Weekly,
		NextDue:   now.AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	fired, err := tracker.RunDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	assert.Equal(t, 12000.0-900.0, balance(t, book, ledger.BusinessBank))
	assert.Equal(t, 500.0, balance(t, book, ledger.TillFloat), "laundry not due yet")

	var updated expense.Recurring
	for _, r := range tracker.RecurringPayments() {
		if r.ID == rent.ID {
			updated = r
		}
	}
	assert.Equal(t, now.AddDate(0, 1, -1), updated.NextDue)

	// Nothing else is due on a second run.
	fired, err = tracker.RunDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestRecurring_TogglePausesPayment(t *testing.T) {
	tracker, book := newTestTracker(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	r, err := tracker.AddRecurring(ctx, expense.Recurring{
		Template: expense.Template{
			Name:     "Rent",
			Amount:   ledger.Money(900),
			Category: "Rent",
			SourceID: ledger.BusinessBank,
		},
		Frequency: expense.Monthly,
		NextDue:   now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	active, err := tracker.ToggleRecurring(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, active)

	fired, err := tracker.RunDue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.Empty(t, book.Transactions())

	_, err = tracker.ToggleRecurring(ctx, "rec_missing")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// appendHookStore wraps the in-memory store and runs a hook on every
// transaction append. Lets a test mutate the schedule while a payment
// run is in flight.
type appendHookStore struct {
	*memory.Store
	hook func(ledger.Transaction)
}

func (s *appendHookStore) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	if s.hook != nil {
		s.hook(tx)
	}
	return s.Store.AppendTransaction(ctx, tx)
}

func dueRecurring(t *testing.T, tracker *expense.Tracker, name string, amount float64,
	source ledger.AccountID, freq expense.Frequency, due time.Time) expense.Recurring {
	t.Helper()
	r, err := tracker.AddRecurring(context.Background(), expense.Recurring{
		Template: expense.Template{
			Name:     name,
			Amount:   ledger.Money(amount),
			Category: name,
			SourceID: source,
		},
		Frequency: freq,
		NextDue:   due,
	})
	require.NoError(t, err)
	return r
}

func TestRecurring_DeletedMidRun_RemainingPaymentsStillFire(t *testing.T) {
	// GIVEN: Two payments due now, where booking the first one deletes
	//        that same payment from the schedule before the run moves on
	// WHEN: Running due payments
	// THEN: The second payment still fires against its own template and
	//       only its own due date advances

	store := &appendHookStore{Store: memory.New()}
	ctx := context.Background()
	book, err := ledger.Open(ctx, store)
	require.NoError(t, err)
	tracker, err := expense.Open(ctx, store, book)
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rent := dueRecurring(t, tracker, "Rent", 900, ledger.BusinessBank,
		expense.Monthly, now.AddDate(0, 0, -1))
	laundry := dueRecurring(t, tracker, "Laundry", 50, ledger.TillFloat,
		expense.Weekly, now.AddDate(0, 0, -1))

	store.hook = func(tx ledger.Transaction) {
		if tx.Note == "Rent" {
			store.hook = nil
			require.NoError(t, tracker.DeleteRecurring(ctx, rent.ID))
		}
	}

	fired, err := tracker.RunDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, fired)

	assert.Equal(t, 12000.0-900.0, balance(t, book, ledger.BusinessBank))
	assert.Equal(t, 450.0, balance(t, book, ledger.TillFloat))

	remaining := tracker.RecurringPayments()
	require.Len(t, remaining, 1)
	assert.Equal(t, laundry.ID, remaining[0].ID)
	assert.Equal(t, now.AddDate(0, 0, 6), remaining[0].NextDue,
		"laundry advances by its own week, not the deleted payment's month")
	assert.NoError(t, book.Audit())
}

func TestRecurring_DeletedBeforeItsTurn_Skipped(t *testing.T) {
	// GIVEN: Two payments due now, where booking the first one deletes
	//        the second from the schedule
	// WHEN: Running due payments
	// THEN: Only the first fires; the deleted payment moves no money

	store := &appendHookStore{Store: memory.New()}
	ctx := context.Background()
	book, err := ledger.Open(ctx, store)
	require.NoError(t, err)
	tracker, err := expense.Open(ctx, store, book)
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	dueRecurring(t, tracker, "Rent", 900, ledger.BusinessBank,
		expense.Monthly, now.AddDate(0, 0, -1))
	laundry := dueRecurring(t, tracker, "Laundry", 50, ledger.TillFloat,
		expense.Weekly, now.AddDate(0, 0, -1))

	store.hook = func(tx ledger.Transaction) {
		if tx.Note == "Rent" {
			store.hook = nil
			require.NoError(t, tracker.DeleteRecurring(ctx, laundry.ID))
		}
	}

	fired, err := tracker.RunDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	assert.Equal(t, 500.0, balance(t, book, ledger.TillFloat), "deleted payment never fires")
	require.Len(t, tracker.RecurringPayments(), 1, "only rent remains")
	assert.NoError(t, book.Audit())
}
