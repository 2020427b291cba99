/*
handlers_test.go - HTTP endpoint tests

Drives the full router over an in-memory store: accounts, transfers,
shift lifecycle, reconciliation, staff, and expense endpoints.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mozz/backoffice/api"
	"github.com/mozz/backoffice/expense"
	"github.com/mozz/backoffice/ledger"
	"github.com/mozz/backoffice/payroll"
	"github.com/mozz/backoffice/shift"
	"github.com/mozz/backoffice/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	router http.Handler
	book   *ledger.Book
}

func newTestEnv(t *testing.T) *testEnv {
	store := memory.New()
	ctx := context.Background()

	book, err := ledger.Open(ctx, store)
	require.NoError(t, err)
	shifts, err := shift.Open(ctx, store, book)
	require.NoError(t, err)
	staff, err := payroll.Open(ctx, store, book)
	require.NoError(t, err)
	expenses, err := expense.Open(ctx, store, book)
	require.NoError(t, err)

	h := api.NewHandler(book, shifts, staff, expenses, zap.NewNop())
	return &testEnv{router: api.NewRouter(h, []string{"*"}), book: book}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// =============================================================================
// ACCOUNTS AND TRANSFERS
// =============================================================================

func TestListAccounts_ReturnsSeededChart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	accounts := decode[[]api.AccountDTO](t, rec)
	assert.Len(t, accounts, 14)

	byID := map[string]api.AccountDTO{}
	for _, a := range accounts {
		byID[a.ID] = a
	}
	assert.True(t, byID["till_float"].Balance.Equal(money(500)))
	assert.True(t, byID["business_bank"].Balance.Equal(money(12000)))
	assert.Equal(t, "Asset", byID["till_float"].Type)
}

func TestGetAccount_Unknown_Returns404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/accounts/petty_cash", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTransfer_HappyPath(t *testing.T) {
	// GIVEN: The seeded chart
	// WHEN: Posting a 75 till-to-bank transfer
	// THEN: 201 with the recorded transaction, balances moved

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/transactions", api.TransferRequest{
		From: "till_float", To: "business_bank",
		Amount: money(75), Note: "Evening deposit",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	tx := decode[api.TransactionDTO](t, rec)
	assert.NotEmpty(t, tx.ID)
	assert.True(t, tx.Amount.Equal(money(75)))
	assert.False(t, tx.Reconciled)

	rec = env.do(t, http.MethodGet, "/api/accounts/till_float", nil)
	acc := decode[api.AccountDTO](t, rec)
	assert.True(t, acc.Balance.Equal(money(425)))
}

func TestCreateTransfer_ZeroAmount_Returns204(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/transactions", api.TransferRequest{
		From: "till_float", To: "business_bank", Amount: money(0),
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateTransfer_Invalid(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/transactions", api.TransferRequest{
		From: "till_float", To: "business_bank", Amount: money(-5),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[api.ErrorResponse](t, rec)
	assert.NotEmpty(t, errResp.Error)

	rec = env.do(t, http.MethodPost, "/api/transactions", api.TransferRequest{
		From: "till_float", To: "petty_cash", Amount: money(5),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSummary_GroupsByType(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[api.SummaryDTO](t, rec)
	assert.True(t, summary.Totals["Asset"].Equal(money(12600)))
	assert.True(t, summary.Totals["Equity"].Equal(money(5000)))
}

func TestRunAudit_CleanBook(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	audit := decode[api.AuditDTO](t, rec)
	assert.True(t, audit.Ok)
	assert.Empty(t, audit.Mismatches)
}

// =============================================================================
// SHIFT LIFECYCLE
// =============================================================================

func TestShiftLifecycle_OpenExpenseClose(t *testing.T) {
	// GIVEN: A fresh book
	// WHEN: Opening a day, logging a cash expense, and closing with a
	//       counted drawer
	// THEN: The close responds with the variance math applied

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/shift/open", api.OpenDayRequest{
		OpeningFloat: money(500),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/shift/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[api.DailyLogDTO](t, rec)
	assert.NotEmpty(t, current.Date)
	assert.False(t, current.Closed)

	rec = env.do(t, http.MethodPost, "/api/expenses", api.ExpenseRequest{
		Amount: money(40), Source: "till_float", Category: "Food", Note: "Vegetables",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/shift/close", api.CloseDayRequest{
		TotalSales:   money(1000),
		CardPayments: money(300),
		ActualCash:   money(1150),
		Bills:        []api.PartnerBillDTO{{Partner: "Trek Lanka", Amount: money(100)}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	closed := decode[api.DailyLogDTO](t, rec)
	assert.True(t, closed.Closed)
	// cash sales 600, minus the 40 expense, on a 500 float
	assert.True(t, closed.ExpectedCash.Equal(money(1060)))
	assert.True(t, closed.Variance.Equal(money(90)))

	rec = env.do(t, http.MethodGet, "/api/shift/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenDay_Twice_Returns409(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/shift/open", api.OpenDayRequest{
		OpeningFloat: money(500),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/shift/open", api.OpenDayRequest{
		OpeningFloat: money(500),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCloseDay_WithoutOpenShift_Returns409(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/shift/close", api.CloseDayRequest{
		TotalSales: money(100), ActualCash: money(100),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestSettleOrder_EndToEnd(t *testing.T) {
	// GIVEN: An unreconciled hiking bar order
	// WHEN: Settling it with a matching split
	// THEN: 204, and a second attempt conflicts

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/transactions", api.TransferRequest{
		From: "till_float", To: "hiking_bar_rec", Amount: money(100), Note: "Bar order",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[api.TransactionDTO](t, rec)

	settle := api.SettleOrderRequest{
		TransactionID: order.ID,
		Cash:          money(60),
		Card:          money(30),
		ServiceCharge: money(5),
		Contra:        money(5),
	}
	rec = env.do(t, http.MethodPost, "/api/reconcile/order", settle)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/reconcile/order", settle)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSettleOrder_SplitMismatch_Returns400(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/transactions", api.TransferRequest{
		From: "till_float", To: "hiking_bar_rec", Amount: money(100),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[api.TransactionDTO](t, rec)

	rec = env.do(t, http.MethodPost, "/api/reconcile/order", api.SettleOrderRequest{
		TransactionID: order.ID, Cash: money(50),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransactions_UnreconciledFilter(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/transactions", api.TransferRequest{
		From: "till_float", To: "mozzarella_card_payment", Amount: money(80),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sale := decode[api.TransactionDTO](t, rec)

	rec = env.do(t, http.MethodPost, "/api/reconcile/cards", api.SettleCardsRequest{
		TransactionIDs: []string{sale.ID},
		Receivable:     "mozzarella_card_payment",
		Net:            money(78),
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions?unreconciled=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	open := decode[[]api.TransactionDTO](t, rec)
	for _, tx := range open {
		assert.False(t, tx.Reconciled)
		assert.NotEqual(t, sale.ID, tx.ID)
	}
}

// =============================================================================
// STAFF
// =============================================================================

func TestStaffEndpoints_LoanAndPayroll(t *testing.T) {
	// GIVEN: The seeded roster
	// WHEN: Issuing a loan then committing payroll with a deduction
	// THEN: The returned member reflects each step

	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	roster := decode[[]api.StaffDTO](t, rec)
	require.Len(t, roster, 6)

	rec = env.do(t, http.MethodPost, "/api/staff/s2/loan", api.LoanRequest{
		Amount: money(200), InitialAmount: money(200), Source: "business_bank",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/staff/s2/payroll", api.PayrollRequest{
		Cycle: "1st", Gross: money(600), LoanDeduction: money(100), Source: "business_bank",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/staff", nil)
	roster = decode[[]api.StaffDTO](t, rec)
	for _, m := range roster {
		if m.ID == "s2" {
			assert.True(t, m.LoanBalance.Equal(money(100)))
		}
	}
}

func TestCommitPayroll_BadCycle_Returns400(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/staff/s2/payroll", api.PayrollRequest{
		Cycle: "weekly", Gross: money(600), Source: "business_bank",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffEndpoints_UnknownID_Returns404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/staff/s99/advance", api.AdvanceRequest{
		Amount: money(50), Source: "till_float",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleHoliday_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/staff/s3/holidays", api.ToggleHolidayRequest{Date: "2026-03-10"})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[api.ToggleResultDTO](t, rec)
	assert.True(t, result.Active)

	rec = env.do(t, http.MethodGet, "/api/staff/holidays", nil)
	holidays := decode[[]api.HolidayDTO](t, rec)
	require.Len(t, holidays, 1)
	assert.Equal(t, "s3", holidays[0].StaffID)

	rec = env.do(t, http.MethodPost, "/api/staff/s3/holidays", api.ToggleHolidayRequest{Date: "2026-03-10"})
	result = decode[api.ToggleResultDTO](t, rec)
	assert.False(t, result.Active)
}

// =============================================================================
// EXPENSE REGISTRIES
// =============================================================================

func TestVendorAndCategoryEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/vendors", api.NameRequest{Name: "Keells"})
	require.Equal(t, http.StatusCreated, rec.Code)
	vendor := decode[api.VendorDTO](t, rec)
	assert.NotEmpty(t, vendor.ID)

	rec = env.do(t, http.MethodPost, "/api/categories", api.NameRequest{Name: "Food"})
	require.Equal(t, http.StatusCreated, rec.Code)
	category := decode[api.CategoryDTO](t, rec)

	rec = env.do(t, http.MethodPost, "/api/categories/"+category.ID+"/subcategories",
		api.NameRequest{Name: "Meat"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories", nil)
	categories := decode[[]api.CategoryDTO](t, rec)
	require.Len(t, categories, 1)
	assert.Equal(t, []string{"Meat"}, categories[0].SubCategories)

	rec = env.do(t, http.MethodDelete, "/api/vendors/"+vendor.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTemplateApply_LogsExpense(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/templates", api.TemplateDTO{
		Name: "Gas refill", Amount: money(35), Category: "Utilities", Source: "till_float",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	tpl := decode[api.TemplateDTO](t, rec)

	rec = env.do(t, http.MethodPost, "/api/templates/"+tpl.ID+"/apply", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	tx := decode[api.TransactionDTO](t, rec)
	assert.True(t, tx.Amount.Equal(money(35)))

	rec = env.do(t, http.MethodGet, "/api/accounts/till_float", nil)
	acc := decode[api.AccountDTO](t, rec)
	assert.True(t, acc.Balance.Equal(money(465)))
}

func TestRecurringEndpoints_RunDue(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/recurring", api.RecurringDTO{
		TemplateDTO: api.TemplateDTO{
			Name: "Rent", Amount: money(900), Category: "Rent", Source: "business_bank",
		},
		Frequency: "Monthly",
		NextDue:   "2026-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	recurring := decode[api.RecurringDTO](t, rec)
	assert.True(t, recurring.Active)

	rec = env.do(t, http.MethodPost, "/api/recurring/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[api.RunDueResultDTO](t, rec)
	assert.GreaterOrEqual(t, result.Executed, 1)
}
