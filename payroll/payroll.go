/*
Package payroll implements the staff sub-ledger: loans, salary advances,
and the twice-monthly payroll run with deduction netting.

HOW THE SUB-LEDGER WORKS:
  Each staff member carries two running totals, LoanBalance and
  AdvanceBalance. They move only in lockstep with staff-tagged transfers
  through the book:

    IssueLoan      source -> staff_loans   LoanBalance    += amount
    IssueAdvance   source -> staff_loans   AdvanceBalance += amount
    CommitPayroll  source -> operating_expenses (net payout)
                   staff_loans -> operating_expenses (per deduction)
                   LoanBalance    = max(0, LoanBalance - loanDed)
                   AdvanceBalance = max(0, AdvanceBalance - advDed)

DEDUCTION FLOOR:
  A deduction larger than the outstanding balance clamps the balance at
  zero. The excess debt is forgiven, not carried negative. Intentional.

NEGATIVE NET:
  Deductions exceeding gross pay are rejected; a payout must never reverse
  direction. Over-deduction is split across cycles by the operator instead.

PROFILE EDITS:
  SetInstallment and UpdateDetails are config changes. They generate no
  transactions.
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mozz/backoffice/ledger"
)

// =============================================================================
// TYPES
// =============================================================================

// Staff is one roster member. LoanBalance and AdvanceBalance are mutated
// only by the operations in this package.
type Staff struct {
	ID                     string
	Name                   string
	Role                   string
	Phone                  string
	BaseSalary             decimal.Decimal
	LoanBalance            decimal.Decimal
	InitialLoanAmount      decimal.Decimal
	MonthlyLoanInstallment decimal.Decimal
	AdvanceBalance         decimal.Decimal
	JoinedDate             string
}

type HolidayType string

const (
	HolidayFullDay HolidayType = "Full Day"
	HolidayHalfDay HolidayType = "Half Day"
	HolidaySick    HolidayType = "Sick Leave"
)

// StaffHoliday marks one staff member off on one date. At most one record
// exists per (StaffID, Date) pair.
type StaffHoliday struct {
	ID      string
	StaffID string
	Date    string
	Type    HolidayType
}

// ErrUnknownStaff is returned for operations naming an id not on the roster.
var ErrUnknownStaff = errors.New("unknown staff")

// UnknownStaffError identifies the missing roster id.
type UnknownStaffError struct {
	ID string
}

func (e *UnknownStaffError) Error() string { return fmt.Sprintf("unknown staff %q", e.ID) }
func (e *UnknownStaffError) Unwrap() error { return ErrUnknownStaff }

// =============================================================================
// STORE
// =============================================================================

// Store persists the roster and the holiday collection.
type Store interface {
	LoadStaff(ctx context.Context) ([]Staff, error)
	SaveStaff(ctx context.Context, staff []Staff) error
	UpdateStaff(ctx context.Context, member Staff) error

	LoadHolidays(ctx context.Context) ([]StaffHoliday, error)
	InsertHoliday(ctx context.Context, holiday StaffHoliday) error
	DeleteHoliday(ctx context.Context, id string) error
}

// SeedRoster returns the six-member roster seeded on first run.
func SeedRoster() []Staff {
	member := func(id, name, role string, salary, installment int64, joined string) Staff {
		return Staff{
			ID: id, Name: name, Role: role, Phone: "+123456789",
			BaseSalary:             decimal.NewFromInt(salary),
			MonthlyLoanInstallment: decimal.NewFromInt(installment),
			JoinedDate:             joined,
		}
	}
	return []Staff{
		member("s1", "Dinesh", "Head Chef", 1200, 100, "2023-01-10"),
		member("s2", "Amara", "Server", 600, 50, "2023-05-22"),
		member("s3", "Sohan", "Kitchen Asst", 550, 50, "2023-06-15"),
		member("s4", "Leela", "Server", 600, 50, "2023-07-01"),
		member("s5", "Nimal", "Bartender", 750, 75, "2023-08-10"),
		member("s6", "Kavindu", "Manager", 1500, 150, "2022-12-01"),
	}
}

// =============================================================================
// PAYROLL SERVICE
// =============================================================================

// Payroll drives the staff sub-ledger on top of the book.
type Payroll struct {
	mu       sync.Mutex
	store    Store
	book     *ledger.Book
	staff    map[string]*Staff
	order    []string
	holidays []StaffHoliday
}

// Open loads the roster and holidays, seeding the roster on first run.
func Open(ctx context.Context, store Store, book *ledger.Book) (*Payroll, error) {
	p := &Payroll{
		store: store,
		book:  book,
		staff: make(map[string]*Staff),
	}

	roster, err := store.LoadStaff(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		roster = SeedRoster()
		if err := store.SaveStaff(ctx, roster); err != nil {
			return nil, err
		}
	}
	for i := range roster {
		member := roster[i]
		p.staff[member.ID] = &member
		p.order = append(p.order, member.ID)
	}

	holidays, err := store.LoadHolidays(ctx)
	if err != nil {
		return nil, err
	}
	p.holidays = holidays
	return p, nil
}

// Roster returns the staff list in seed order.
func (p *Payroll) Roster() []Staff {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Staff, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.staff[id])
	}
	return out
}

// Member returns a copy of one roster record.
func (p *Payroll) Member(id string) (Staff, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	member, ok := p.staff[id]
	if !ok {
		return Staff{}, &UnknownStaffError{ID: id}
	}
	return *member, nil
}

// =============================================================================
// LOANS AND ADVANCES
// =============================================================================

// IssueAdvance gives a salary advance from the source account. No upper
// bound is enforced here; policy caps belong to the caller.
func (p *Payroll) IssueAdvance(ctx context.Context, staffID string, amount decimal.Decimal, source ledger.AccountID) error {
	if amount.IsZero() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.staff[staffID]
	if !ok {
		return &UnknownStaffError{ID: staffID}
	}
	if _, err := p.book.Transfer(ctx, source, ledger.StaffObligations, amount,
		"Staff Advance given", ledger.WithPurpose(ledger.AdvanceIssue{StaffID: staffID})); err != nil {
		return err
	}

	member.AdvanceBalance = member.AdvanceBalance.Add(amount)
	return p.store.UpdateStaff(ctx, *member)
}

// IssueLoan lends money to a staff member. A positive initialAmount resets
// InitialLoanAmount; otherwise the issued amount accumulates onto it.
func (p *Payroll) IssueLoan(ctx context.Context, staffID string, amount, initialAmount decimal.Decimal, source ledger.AccountID) error {
	if amount.IsZero() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.staff[staffID]
	if !ok {
		return &UnknownStaffError{ID: staffID}
	}
	if _, err := p.book.Transfer(ctx, source, ledger.StaffObligations, amount,
		"Loan issued to staff", ledger.WithPurpose(ledger.LoanIssue{StaffID: staffID})); err != nil {
		return err
	}

	member.LoanBalance = member.LoanBalance.Add(amount)
	if initialAmount.IsPositive() {
		member.InitialLoanAmount = initialAmount
	} else {
		member.InitialLoanAmount = member.InitialLoanAmount.Add(amount)
	}
	return p.store.UpdateStaff(ctx, *member)
}

// =============================================================================
// PAYROLL RUN
// =============================================================================

// CommitPayroll pays one staff member for one cycle, netting loan and
// advance deductions out of the gross. Exactly one payout transfer fires,
// plus one deduction transfer per positive deduction. Balances clamp at
// zero; see the package comment for the floor and negative-net policies.
func (p *Payroll) CommitPayroll(ctx context.Context, staffID string, cycle ledger.PayCycle, gross, loanDed, advDed decimal.Decimal, source ledger.AccountID) error {
	if gross.IsNegative() {
		return ledger.Invalidf("gross", "must be non-negative, got %s", gross)
	}
	if loanDed.IsNegative() || advDed.IsNegative() {
		return ledger.Invalidf("deduction", "must be non-negative")
	}
	net := gross.Sub(loanDed).Sub(advDed)
	if net.IsNegative() {
		return ledger.Invalidf("deduction", "deductions %s exceed gross pay %s",
			loanDed.Add(advDed), gross)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.staff[staffID]
	if !ok {
		return &UnknownStaffError{ID: staffID}
	}

	note := fmt.Sprintf("Monthly Salary: %s", member.Name)
	if cycle == ledger.CycleServiceCharge {
		note = fmt.Sprintf("Service Charge: %s", member.Name)
	}
	if _, err := p.book.Transfer(ctx, source, ledger.OperatingExpenses, net, note,
		ledger.WithPurpose(ledger.Payout{
			StaffID:         staffID,
			Cycle:           cycle,
			LoanDeducted:    loanDed,
			AdvanceDeducted: advDed,
		})); err != nil {
		return err
	}

	if loanDed.IsPositive() {
		if _, err := p.book.Transfer(ctx, ledger.StaffObligations, ledger.OperatingExpenses, loanDed,
			fmt.Sprintf("Loan deduction: %s", member.Name),
			ledger.Reconciled(), ledger.WithPurpose(ledger.LoanDeduction{StaffID: staffID})); err != nil {
			return err
		}
	}
	if advDed.IsPositive() {
		if _, err := p.book.Transfer(ctx, ledger.StaffObligations, ledger.OperatingExpenses, advDed,
			fmt.Sprintf("Advance deduction: %s", member.Name),
			ledger.Reconciled(), ledger.WithPurpose(ledger.AdvanceDeduction{StaffID: staffID})); err != nil {
			return err
		}
	}

	member.LoanBalance = decimal.Max(decimal.Zero, member.LoanBalance.Sub(loanDed))
	member.AdvanceBalance = decimal.Max(decimal.Zero, member.AdvanceBalance.Sub(advDed))
	return p.store.UpdateStaff(ctx, *member)
}

// =============================================================================
// PROFILE EDITS - no ledger events
// =============================================================================

// SetInstallment changes the monthly loan installment.
func (p *Payroll) SetInstallment(ctx context.Context, staffID string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ledger.Invalidf("installment", "must be non-negative, got %s", amount)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.staff[staffID]
	if !ok {
		return &UnknownStaffError{ID: staffID}
	}
	member.MonthlyLoanInstallment = amount
	return p.store.UpdateStaff(ctx, *member)
}

// StaffUpdate carries optional profile field changes. Nil means unchanged.
type StaffUpdate struct {
	Name       *string
	Role       *string
	Phone      *string
	BaseSalary *decimal.Decimal
}

// UpdateDetails edits profile fields. Balances cannot be touched this way.
func (p *Payroll) UpdateDetails(ctx context.Context, staffID string, update StaffUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.staff[staffID]
	if !ok {
		return &UnknownStaffError{ID: staffID}
	}
	if update.Name != nil {
		member.Name = *update.Name
	}
	if update.Role != nil {
		member.Role = *update.Role
	}
	if update.Phone != nil {
		member.Phone = *update.Phone
	}
	if update.BaseSalary != nil {
		if update.BaseSalary.IsNegative() {
			return ledger.Invalidf("base_salary", "must be non-negative")
		}
		member.BaseSalary = *update.BaseSalary
	}
	return p.store.UpdateStaff(ctx, *member)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// ToggleHoliday flips the holiday state for (staffID, date): present
// removes it, absent inserts a Full Day record. Returns whether the staff
// member is on holiday after the call.
func (p *Payroll) ToggleHoliday(ctx context.Context, staffID, date string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.staff[staffID]; !ok {
		return false, &UnknownStaffError{ID: staffID}
	}

	for i, h := range p.holidays {
		if h.StaffID == staffID && h.Date == date {
			if err := p.store.DeleteHoliday(ctx, h.ID); err != nil {
				return true, err
			}
			p.holidays = append(p.holidays[:i], p.holidays[i+1:]...)
			return false, nil
		}
	}

	holiday := StaffHoliday{
		ID:      "hol_" + uuid.NewString(),
		StaffID: staffID,
		Date:    date,
		Type:    HolidayFullDay,
	}
	if err := p.store.InsertHoliday(ctx, holiday); err != nil {
		return false, err
	}
	p.holidays = append(p.holidays, holiday)
	return true, nil
}

// Holidays returns every holiday record.
func (p *Payroll) Holidays() []StaffHoliday {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]StaffHoliday, len(p.holidays))
	copy(out, p.holidays)
	return out
}
