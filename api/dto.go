/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  All amounts travel as decimal strings. shopspring decimal accepts both
  quoted strings and bare JSON numbers on the way in, so clients may send
  either; responses always quote.

VALIDATION:
  Validation is done in the domain packages, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/purpose.go: Purpose encoding behind PurposeDTO
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mozz/backoffice/expense"
	"github.com/mozz/backoffice/ledger"
	"github.com/mozz/backoffice/payroll"
	"github.com/mozz/backoffice/shift"
)

// =============================================================================
// LEDGER TYPES
// =============================================================================

// AccountDTO represents one chart-of-accounts entry.
type AccountDTO struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Opening decimal.Decimal `json:"opening"`
	Balance decimal.Decimal `json:"balance"`
}

// PurposeDTO carries a transaction's structured tag, if any.
type PurposeDTO struct {
	Kind    string          `json:"kind"`
	Details json.RawMessage `json:"details,omitempty"`
}

// TransactionDTO represents one ledger entry.
type TransactionDTO struct {
	ID         string          `json:"id"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	At         string          `json:"at"`
	Reconciled bool            `json:"reconciled"`
	Purpose    *PurposeDTO     `json:"purpose,omitempty"`
}

// TransferRequest is the request to move money between two accounts.
type TransferRequest struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	Reconciled bool            `json:"reconciled"`
}

// SummaryDTO aggregates balances by account type.
type SummaryDTO struct {
	Totals map[string]decimal.Decimal `json:"totals"`
}

// AuditMismatchDTO reports one account whose balance disagrees with the log.
type AuditMismatchDTO struct {
	Account string          `json:"account"`
	Balance decimal.Decimal `json:"balance"`
	Derived decimal.Decimal `json:"derived"`
}

// AuditDTO is the result of replaying the transaction log.
type AuditDTO struct {
	Ok         bool               `json:"ok"`
	Mismatches []AuditMismatchDTO `json:"mismatches,omitempty"`
}

// =============================================================================
// RECONCILIATION TYPES
// =============================================================================

// SettleOrderRequest splits one bar order across settlement methods.
type SettleOrderRequest struct {
	TransactionID string          `json:"transaction_id"`
	Cash          decimal.Decimal `json:"cash"`
	Card          decimal.Decimal `json:"card"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	Contra        decimal.Decimal `json:"contra"`
}

// SettleCardsRequest settles a batch of card receivables against a bank
// deposit. The gap between the batch total and net is booked as a fee.
type SettleCardsRequest struct {
	TransactionIDs []string        `json:"transaction_ids"`
	Receivable     string          `json:"receivable"`
	Net            decimal.Decimal `json:"net"`
	Note           string          `json:"note"`
}

// SettleCreditBillsRequest clears a batch of partner credit bills.
type SettleCreditBillsRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
	Destination    string   `json:"destination"`
	Note           string   `json:"note"`
}

// SettleVendorBillRequest pays off one recorded vendor bill.
type SettleVendorBillRequest struct {
	TransactionID string `json:"transaction_id"`
	Source        string `json:"source"`
}

// =============================================================================
// SHIFT TYPES
// =============================================================================

// PartnerBillDTO is one partner's credit bill taken during a shift.
type PartnerBillDTO struct {
	Partner string          `json:"partner"`
	Amount  decimal.Decimal `json:"amount"`
}

// DailyLogDTO represents one shift record.
type DailyLogDTO struct {
	ID                  string           `json:"id"`
	Date                string           `json:"date"`
	OpeningFloat        decimal.Decimal  `json:"opening_float"`
	TotalSales          decimal.Decimal  `json:"total_sales"`
	CardPayments        decimal.Decimal  `json:"card_payments"`
	CreditBills         decimal.Decimal  `json:"credit_bills"`
	HikingBarSales      decimal.Decimal  `json:"hiking_bar_sales"`
	ForeignCurrency     decimal.Decimal  `json:"foreign_currency"`
	ForeignCurrencyNote string           `json:"foreign_currency_note,omitempty"`
	ExpensesCash        decimal.Decimal  `json:"expenses_cash"`
	ExpectedCash        decimal.Decimal  `json:"expected_cash"`
	ActualCash          *decimal.Decimal `json:"actual_cash,omitempty"`
	Variance            decimal.Decimal  `json:"variance"`
	Bills               []PartnerBillDTO `json:"bills"`
	Closed              bool             `json:"closed"`
	OpenedAt            string           `json:"opened_at"`
}

// OpenDayRequest starts a shift with a counted opening float.
type OpenDayRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

// CloseDayRequest reconciles and closes the open shift.
type CloseDayRequest struct {
	TotalSales          decimal.Decimal  `json:"total_sales"`
	CardPayments        decimal.Decimal  `json:"card_payments"`
	HikingBarSales      decimal.Decimal  `json:"hiking_bar_sales"`
	ForeignCurrency     decimal.Decimal  `json:"foreign_currency"`
	ForeignCurrencyNote string           `json:"foreign_currency_note"`
	ActualCash          decimal.Decimal  `json:"actual_cash"`
	Bills               []PartnerBillDTO `json:"bills"`
}

// TopUpRequest moves owner money into the till float.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// =============================================================================
// STAFF TYPES
// =============================================================================

// StaffDTO represents one staff member with sub-ledger balances.
type StaffDTO struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	Role                   string          `json:"role"`
	Phone                  string          `json:"phone,omitempty"`
	BaseSalary             decimal.Decimal `json:"base_salary"`
	LoanBalance            decimal.Decimal `json:"loan_balance"`
	InitialLoanAmount      decimal.Decimal `json:"initial_loan_amount"`
	MonthlyLoanInstallment decimal.Decimal `json:"monthly_loan_installment"`
	AdvanceBalance         decimal.Decimal `json:"advance_balance"`
	JoinedDate             string          `json:"joined_date"`
}

// UpdateStaffRequest edits profile fields. Absent fields are left alone.
type UpdateStaffRequest struct {
	Name       *string          `json:"name"`
	Role       *string          `json:"role"`
	Phone      *string          `json:"phone"`
	BaseSalary *decimal.Decimal `json:"base_salary"`
}

// LoanRequest issues or extends a staff loan.
type LoanRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	Source        string          `json:"source"`
}

// AdvanceRequest issues a salary advance.
type AdvanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Source string          `json:"source"`
}

// PayrollRequest commits one pay-cycle payout with deductions.
type PayrollRequest struct {
	Cycle            string          `json:"cycle"`
	Gross            decimal.Decimal `json:"gross"`
	LoanDeduction    decimal.Decimal `json:"loan_deduction"`
	AdvanceDeduction decimal.Decimal `json:"advance_deduction"`
	Source           string          `json:"source"`
}

// InstallmentRequest sets the standing monthly loan installment.
type InstallmentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// HolidayDTO is one recorded day off.
type HolidayDTO struct {
	ID      string `json:"id"`
	StaffID string `json:"staff_id"`
	Date    string `json:"date"`
	Type    string `json:"type"`
}

// ToggleHolidayRequest flips a staff member's holiday for one date.
type ToggleHolidayRequest struct {
	Date string `json:"date"`
}

// ToggleResultDTO reports the state after a toggle.
type ToggleResultDTO struct {
	Active bool `json:"active"`
}

// =============================================================================
// EXPENSE TYPES
// =============================================================================

// ExpenseRequest records one categorized expense payment.
type ExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category"`
	Note        string          `json:"note"`
	Stock       bool            `json:"stock"`
	PayeeType   string          `json:"payee_type"`
	PayeeID     string          `json:"payee_id"`
	PayeeName   string          `json:"payee_name"`
}

// VendorDTO represents one supplier.
type VendorDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// CategoryDTO represents one expense category with its sub-categories.
type CategoryDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	SubCategories []string `json:"sub_categories"`
}

// NameRequest carries a bare name (vendors, categories, partners).
type NameRequest struct {
	Name string `json:"name"`
}

// TemplateDTO represents one saved payment template. The same shape is
// accepted when creating templates.
type TemplateDTO struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category,omitempty"`
	Source      string          `json:"source"`
	PayeeType   string          `json:"payee_type,omitempty"`
	PayeeID     string          `json:"payee_id,omitempty"`
	PayeeName   string          `json:"payee_name,omitempty"`
	Note        string          `json:"note,omitempty"`
	Stock       bool            `json:"stock"`
}

// RecurringDTO represents one scheduled recurring payment.
type RecurringDTO struct {
	TemplateDTO
	Frequency string `json:"frequency"`
	NextDue   string `json:"next_due"`
	Active    bool   `json:"active"`
}

// RunDueResultDTO reports how many recurring payments fired.
type RunDueResultDTO struct {
	Executed int `json:"executed"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest names the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:      string(a.ID),
		Name:    a.Name,
		Type:    string(a.Type),
		Opening: a.Opening,
		Balance: a.Balance,
	}
}

func toTransactionDTO(t ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:         string(t.ID),
		From:       string(t.From),
		To:         string(t.To),
		Amount:     t.Amount,
		Note:       t.Note,
		At:         t.At.Format(time.RFC3339Nano),
		Reconciled: t.Reconciled,
	}
	if t.Purpose != nil {
		kind, payload, err := ledger.EncodePurpose(t.Purpose)
		if err == nil {
			dto.Purpose = &PurposeDTO{Kind: kind}
			if payload != "" {
				dto.Purpose.Details = json.RawMessage(payload)
			}
		}
	}
	return dto
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(txs))
	for _, t := range txs {
		dtos = append(dtos, toTransactionDTO(t))
	}
	return dtos
}

func toDailyLogDTO(l shift.DailyLog) DailyLogDTO {
	dto := DailyLogDTO{
		ID:                  string(l.ID),
		Date:                l.Date,
		OpeningFloat:        l.OpeningFloat,
		TotalSales:          l.TotalSales,
		CardPayments:        l.CardPayments,
		CreditBills:         l.CreditBills,
		HikingBarSales:      l.HikingBarSales,
		ForeignCurrency:     l.ForeignCurrency,
		ForeignCurrencyNote: l.ForeignCurrencyNote,
		ExpensesCash:        l.ExpensesCash,
		ExpectedCash:        l.ExpectedCash,
		ActualCash:          l.ActualCash,
		Variance:            l.Variance(),
		Bills:               make([]PartnerBillDTO, 0, len(l.Bills)),
		Closed:              l.Closed,
		OpenedAt:            l.OpenedAt.Format(time.RFC3339Nano),
	}
	for _, b := range l.Bills {
		dto.Bills = append(dto.Bills, PartnerBillDTO{Partner: b.Partner, Amount: b.Amount})
	}
	return dto
}

func toStaffDTO(m payroll.Staff) StaffDTO {
	return StaffDTO{
		ID:                     m.ID,
		Name:                   m.Name,
		Role:                   m.Role,
		Phone:                  m.Phone,
		BaseSalary:             m.BaseSalary,
		LoanBalance:            m.LoanBalance,
		InitialLoanAmount:      m.InitialLoanAmount,
		MonthlyLoanInstallment: m.MonthlyLoanInstallment,
		AdvanceBalance:         m.AdvanceBalance,
		JoinedDate:             m.JoinedDate,
	}
}

func toTemplateDTO(t expense.Template) TemplateDTO {
	return TemplateDTO{
		ID:          t.ID,
		Name:        t.Name,
		Amount:      t.Amount,
		Category:    t.Category,
		SubCategory: t.SubCategory,
		Source:      string(t.SourceID),
		PayeeType:   string(t.PayeeType),
		PayeeID:     t.PayeeID,
		PayeeName:   t.PayeeName,
		Note:        t.Note,
		Stock:       t.Stock,
	}
}

func (d TemplateDTO) toTemplate() expense.Template {
	return expense.Template{
		ID:          d.ID,
		Name:        d.Name,
		Amount:      d.Amount,
		Category:    d.Category,
		SubCategory: d.SubCategory,
		SourceID:    ledger.AccountID(d.Source),
		PayeeType:   expense.PayeeType(d.PayeeType),
		PayeeID:     d.PayeeID,
		PayeeName:   d.PayeeName,
		Note:        d.Note,
		Stock:       d.Stock,
	}
}

func toRecurringDTO(r expense.Recurring) RecurringDTO {
	return RecurringDTO{
		TemplateDTO: toTemplateDTO(r.Template),
		Frequency:   string(r.Frequency),
		NextDue:     r.NextDue.Format(time.RFC3339Nano),
		Active:      r.Active,
	}
}

func toHolidayDTO(h payroll.StaffHoliday) HolidayDTO {
	return HolidayDTO{
		ID:      h.ID,
		StaffID: h.StaffID,
		Date:    h.Date,
		Type:    string(h.Type),
	}
}
