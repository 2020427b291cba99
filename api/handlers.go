/*
handlers.go - HTTP handlers for the bookkeeping API

PURPOSE:
  Implements all REST endpoints. Handlers decode DTOs, call into the
  domain packages, and map domain errors onto HTTP statuses. No business
  logic lives here.

HANDLER PATTERN:
  1. Parse/validate request (path params, body)
  2. Call domain method
  3. Map errors to HTTP status codes
  4. Return JSON response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed input, split mismatch
  - 404: Unknown account / transaction / staff
  - 409: Workflow conflicts (shift already open, already reconciled)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mozz/backoffice/expense"
	"github.com/mozz/backoffice/ledger"
	"github.com/mozz/backoffice/payroll"
	"github.com/mozz/backoffice/reconcile"
	"github.com/mozz/backoffice/shift"
)

// ====== HANDLER CONTEXT ======

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Book     *ledger.Book
	Shifts   *shift.Shift
	Staff    *payroll.Payroll
	Expenses *expense.Tracker
	Rec      *reconcile.Reconciler

	log *zap.Logger
}

// NewHandler creates a handler over fully-opened domain services.
func NewHandler(book *ledger.Book, shifts *shift.Shift, staff *payroll.Payroll, expenses *expense.Tracker, logger *zap.Logger) *Handler {
	return &Handler{
		Book:     book,
		Shifts:   shifts,
		Staff:    staff,
		Expenses: expenses,
		Rec:      reconcile.New(book),
		log:      logger,
	}
}

// ====== ACCOUNT ENDPOINTS ======

// ListAccounts returns the full chart of accounts with live balances.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.Book.Accounts()
	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAccount returns one account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))
	account, err := h.Book.Account(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// GetJournal returns every transaction touching one account, oldest first.
func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))
	if _, err := h.Book.Account(id); err != nil {
		h.respondError(w, err)
		return
	}

	var entries []ledger.Transaction
	for _, t := range h.Book.Transactions() {
		if t.From == id || t.To == id {
			entries = append(entries, t)
		}
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(entries))
}

// GetSummary aggregates balances by account type.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	totals := h.Book.TotalsByType()
	dto := SummaryDTO{Totals: make(map[string]decimal.Decimal, len(totals))}
	for typ, total := range totals {
		dto.Totals[string(typ)] = total
	}
	writeJSON(w, http.StatusOK, dto)
}

// RunAudit replays the transaction log against current balances.
func (h *Handler) RunAudit(w http.ResponseWriter, r *http.Request) {
	err := h.Book.Audit()
	if err == nil {
		writeJSON(w, http.StatusOK, AuditDTO{Ok: true})
		return
	}

	var audit *ledger.AuditError
	if !errors.As(err, &audit) {
		h.respondError(w, err)
		return
	}
	dto := AuditDTO{Ok: false}
	for _, m := range audit.Mismatches {
		dto.Mismatches = append(dto.Mismatches, AuditMismatchDTO{
			Account: string(m.Account),
			Balance: m.Balance,
			Derived: m.Derived,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// ====== TRANSACTION ENDPOINTS ======

// ListTransactions returns the ledger, oldest first. Supports
// ?account=<id> and ?unreconciled=true filters.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	account := ledger.AccountID(r.URL.Query().Get("account"))
	onlyUnreconciled := r.URL.Query().Get("unreconciled") == "true"

	var out []ledger.Transaction
	for _, t := range h.Book.Transactions() {
		if account != "" && t.From != account && t.To != account {
			continue
		}
		if onlyUnreconciled && t.Reconciled {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(out))
}

// CreateTransfer moves money between two accounts.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var opts []ledger.TransferOption
	if req.Reconciled {
		opts = append(opts, ledger.Reconciled())
	}
	tx, err := h.Book.Transfer(r.Context(),
		ledger.AccountID(req.From), ledger.AccountID(req.To),
		req.Amount, req.Note, opts...)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if tx == nil {
		// Zero-amount transfers are accepted and do nothing.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(*tx))
}

// ====== RECONCILIATION ENDPOINTS ======

// SettleOrder splits one bar order across settlement methods.
func (h *Handler) SettleOrder(w http.ResponseWriter, r *http.Request) {
	var req SettleOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	split := reconcile.Split{
		Cash:          req.Cash,
		Card:          req.Card,
		ServiceCharge: req.ServiceCharge,
		Contra:        req.Contra,
	}
	if err := h.Rec.SettleBarOrder(r.Context(), ledger.TransactionID(req.TransactionID), split); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SettleCards settles a batch of card receivables against a deposit.
func (h *Handler) SettleCards(w http.ResponseWriter, r *http.Request) {
	var req SettleCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := h.Rec.SettleCardBatch(r.Context(), toTransactionIDs(req.TransactionIDs),
		ledger.AccountID(req.Receivable), req.Net, req.Note)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SettleCreditBills clears a batch of partner credit bills.
func (h *Handler) SettleCreditBills(w http.ResponseWriter, r *http.Request) {
	var req SettleCreditBillsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := h.Rec.SettleCreditBills(r.Context(), toTransactionIDs(req.TransactionIDs),
		ledger.AccountID(req.Destination), req.Note)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SettleVendorBill pays off one recorded vendor bill.
func (h *Handler) SettleVendorBill(w http.ResponseWriter, r *http.Request) {
	var req SettleVendorBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := h.Rec.SettleVendorBill(r.Context(),
		ledger.TransactionID(req.TransactionID), ledger.AccountID(req.Source))
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ====== SHIFT ENDPOINTS ======

// GetCurrentShift returns the open shift, or 404 when none is open.
func (h *Handler) GetCurrentShift(w http.ResponseWriter, r *http.Request) {
	current := h.Shifts.Current()
	if current == nil {
		writeError(w, http.StatusNotFound, "no open shift", nil)
		return
	}
	writeJSON(w, http.StatusOK, toDailyLogDTO(*current))
}

// ListShiftLogs returns all shift records, newest first.
func (h *Handler) ListShiftLogs(w http.ResponseWriter, r *http.Request) {
	logs := h.Shifts.Logs()
	dtos := make([]DailyLogDTO, 0, len(logs))
	for _, l := range logs {
		dtos = append(dtos, toDailyLogDTO(l))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// OpenDay starts a shift with a counted opening float.
func (h *Handler) OpenDay(w http.ResponseWriter, r *http.Request) {
	var req OpenDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	log, err := h.Shifts.OpenDay(r.Context(), req.OpeningFloat)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.log.Info("shift opened",
		zap.String("log_id", string(log.ID)),
		zap.String("opening_float", log.OpeningFloat.String()))
	writeJSON(w, http.StatusCreated, toDailyLogDTO(*log))
}

// CloseDay reconciles and closes the open shift.
func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	var req CloseDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	in := shift.CloseInput{
		TotalSales:          req.TotalSales,
		CardPayments:        req.CardPayments,
		HikingBarSales:      req.HikingBarSales,
		ForeignCurrency:     req.ForeignCurrency,
		ForeignCurrencyNote: req.ForeignCurrencyNote,
		ActualCash:          req.ActualCash,
	}
	for _, b := range req.Bills {
		in.Bills = append(in.Bills, shift.PartnerBill{Partner: b.Partner, Amount: b.Amount})
	}

	log, err := h.Shifts.CloseDay(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.log.Info("shift closed",
		zap.String("log_id", string(log.ID)),
		zap.String("expected_cash", log.ExpectedCash.String()),
		zap.String("variance", log.Variance().String()))
	writeJSON(w, http.StatusOK, toDailyLogDTO(*log))
}

// TopUpFloat moves owner money into the till float.
func (h *Handler) TopUpFloat(w http.ResponseWriter, r *http.Request) {
	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.Shifts.TopUpFloat(r.Context(), req.Amount); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ====== STAFF ENDPOINTS ======

// ListStaff returns the roster with live sub-ledger balances.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	roster := h.Staff.Roster()
	dtos := make([]StaffDTO, 0, len(roster))
	for _, m := range roster {
		dtos = append(dtos, toStaffDTO(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateStaff edits profile fields for one staff member.
func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	update := payroll.StaffUpdate{
		Name:       req.Name,
		Role:       req.Role,
		Phone:      req.Phone,
		BaseSalary: req.BaseSalary,
	}
	if err := h.Staff.UpdateDetails(r.Context(), id, update); err != nil {
		h.respondError(w, err)
		return
	}
	member, err := h.Staff.Member(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(member))
}

// IssueLoan records a staff loan paid out of a real account.
func (h *Handler) IssueLoan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := h.Staff.IssueLoan(r.Context(), id, req.Amount, req.InitialAmount,
		ledger.AccountID(req.Source))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.log.Info("loan issued",
		zap.String("staff_id", id),
		zap.String("amount", req.Amount.String()))
	w.WriteHeader(http.StatusNoContent)
}

// IssueAdvance records a salary advance.
func (h *Handler) IssueAdvance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := h.Staff.IssueAdvance(r.Context(), id, req.Amount, ledger.AccountID(req.Source))
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommitPayroll posts one pay-cycle payout with deductions.
func (h *Handler) CommitPayroll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req PayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	cycle := ledger.PayCycle(req.Cycle)
	if cycle != ledger.CycleSalary && cycle != ledger.CycleServiceCharge {
		writeError(w, http.StatusBadRequest, `cycle must be "1st" or "15th"`, nil)
		return
	}
	err := h.Staff.CommitPayroll(r.Context(), id, cycle,
		req.Gross, req.LoanDeduction, req.AdvanceDeduction, ledger.AccountID(req.Source))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.log.Info("payroll committed",
		zap.String("staff_id", id),
		zap.String("cycle", req.Cycle),
		zap.String("gross", req.Gross.String()))
	w.WriteHeader(http.StatusNoContent)
}

// SetInstallment sets the standing monthly loan installment.
func (h *Handler) SetInstallment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req InstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.Staff.SetInstallment(r.Context(), id, req.Amount); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHolidays returns every recorded day off.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays := h.Staff.Holidays()
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ToggleHoliday flips one staff member's holiday for a date.
func (h *Handler) ToggleHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ToggleHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}

	active, err := h.Staff.ToggleHoliday(r.Context(), id, req.Date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResultDTO{Active: active})
}

// ====== EXPENSE ENDPOINTS ======

// CreateExpense records one categorized expense payment.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tx, err := h.Expenses.Log(r.Context(), expense.Input{
		Amount:      req.Amount,
		SourceID:    ledger.AccountID(req.Source),
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Note:        req.Note,
		Stock:       req.Stock,
		PayeeType:   expense.PayeeType(req.PayeeType),
		PayeeID:     req.PayeeID,
		PayeeName:   req.PayeeName,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(*tx))
}

// ListVendors returns all suppliers.
func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors := h.Expenses.Vendors()
	dtos := make([]VendorDTO, 0, len(vendors))
	for _, v := range vendors {
		dtos = append(dtos, VendorDTO{ID: v.ID, Name: v.Name, Category: v.Category})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateVendor adds a supplier.
func (h *Handler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	vendor, err := h.Expenses.AddVendor(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, VendorDTO{ID: vendor.ID, Name: vendor.Name, Category: vendor.Category})
}

// DeleteVendor removes a supplier.
func (h *Handler) DeleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := h.Expenses.DeleteVendor(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories returns the expense category tree.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.Expenses.Categories()
	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, CategoryDTO{ID: c.ID, Name: c.Name, SubCategories: c.SubCategories})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategory adds a top-level expense category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	category, err := h.Expenses.AddCategory(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CategoryDTO{ID: category.ID, Name: category.Name, SubCategories: category.SubCategories})
}

// DeleteCategory removes a category and its sub-categories.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Expenses.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSubCategory adds a sub-category under an existing category.
func (h *Handler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.Expenses.AddSubCategory(r.Context(), id, req.Name); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSubCategory removes one sub-category by name.
func (h *Handler) DeleteSubCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")
	if err := h.Expenses.DeleteSubCategory(r.Context(), id, name); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPartners returns the credit partner names.
func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	partners := h.Expenses.Partners()
	if partners == nil {
		partners = []string{}
	}
	writeJSON(w, http.StatusOK, partners)
}

// CreatePartner adds a credit partner.
func (h *Handler) CreatePartner(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.Expenses.AddPartner(r.Context(), req.Name); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// DeletePartner removes a credit partner.
func (h *Handler) DeletePartner(w http.ResponseWriter, r *http.Request) {
	if err := h.Expenses.DeletePartner(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTemplates returns all saved payment templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := h.Expenses.Templates()
	dtos := make([]TemplateDTO, 0, len(templates))
	for _, t := range templates {
		dtos = append(dtos, toTemplateDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTemplate saves a payment template.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tpl, err := h.Expenses.SaveTemplate(r.Context(), req.toTemplate())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateDTO(tpl))
}

// DeleteTemplate removes a payment template.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.Expenses.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyTemplate executes a template as a fresh expense.
func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Expenses.Apply(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(*tx))
}

// ListRecurring returns all scheduled recurring payments.
func (h *Handler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	recurring := h.Expenses.RecurringPayments()
	dtos := make([]RecurringDTO, 0, len(recurring))
	for _, rec := range recurring {
		dtos = append(dtos, toRecurringDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRecurring schedules a recurring payment.
func (h *Handler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req RecurringDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	nextDue, err := time.Parse(time.RFC3339Nano, req.NextDue)
	if err != nil {
		// Date-only is the common client shape.
		nextDue, err = time.Parse("2006-01-02", req.NextDue)
		if err != nil {
			writeError(w, http.StatusBadRequest, "next_due must be RFC 3339 or YYYY-MM-DD", err)
			return
		}
	}
	rec, err := h.Expenses.AddRecurring(r.Context(), expense.Recurring{
		Template:  req.toTemplate(),
		Frequency: expense.Frequency(req.Frequency),
		NextDue:   nextDue,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringDTO(rec))
}

// ToggleRecurring pauses or resumes a recurring payment.
func (h *Handler) ToggleRecurring(w http.ResponseWriter, r *http.Request) {
	active, err := h.Expenses.ToggleRecurring(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResultDTO{Active: active})
}

// DeleteRecurring removes a recurring payment.
func (h *Handler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := h.Expenses.DeleteRecurring(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunDueRecurring fires every active recurring payment that is due.
func (h *Handler) RunDueRecurring(w http.ResponseWriter, r *http.Request) {
	executed, err := h.Expenses.RunDue(r.Context(), time.Now())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.log.Info("recurring payments executed", zap.Int("count", executed))
	writeJSON(w, http.StatusOK, RunDueResultDTO{Executed: executed})
}

// ====== HELPERS ======

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAlreadyReconciled),
		errors.Is(err, shift.ErrShiftOpen),
		errors.Is(err, shift.ErrNoOpenShift):
		writeError(w, http.StatusConflict, "conflict", err)
	case ledger.IsNotFound(err), errors.Is(err, payroll.ErrUnknownStaff):
		writeError(w, http.StatusNotFound, "not found", err)
	case ledger.IsClientError(err), errors.Is(err, shift.ErrMissingJustification):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	default:
		h.log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func toTransactionIDs(raw []string) []ledger.TransactionID {
	ids := make([]ledger.TransactionID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, ledger.TransactionID(id))
	}
	return ids
}
