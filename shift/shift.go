/*
Package shift implements the open-day / close-day lifecycle.

STATE MACHINE:
  CLOSED -> OpenDay -> OPEN -> CloseDay -> CLOSED

  The open shift is tracked by an explicit current-shift pointer persisted
  next to the log collection, not inferred from "the most recent log is
  unreconciled". The pointer and the log row are written together on both
  transitions.

CLOSE ARITHMETIC:
  cashSales    = totalSales - (cardPayments + creditBills + hikingBarSales
                 + foreignCurrency)
  expensesCash = sum of transactions since the shift opened that flow out
                 of the till into an expense account, or that are tagged as
                 staff loans
  expectedCash = openingFloat + cashSales - expensesCash
  variance     = actualCash - expectedCash

BUSINESS RULE:
  Foreign currency taken during the shift requires a non-empty explanatory
  note at close. Without it the close is rejected and the shift stays open.
*/
package shift

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mozz/backoffice/ledger"
)

// =============================================================================
// TYPES
// =============================================================================

type LogID string

// PartnerBill is one credit bill recorded at close for a named partner.
type PartnerBill struct {
	Partner string
	Amount  decimal.Decimal
}

// DailyLog is one shift record. Close-time fields are fixed once Closed.
type DailyLog struct {
	ID                  LogID
	Date                string
	OpeningFloat        decimal.Decimal
	TotalSales          decimal.Decimal
	CardPayments        decimal.Decimal
	CreditBills         decimal.Decimal
	HikingBarSales      decimal.Decimal
	ForeignCurrency     decimal.Decimal
	ForeignCurrencyNote string
	ExpensesCash        decimal.Decimal
	ExpectedCash        decimal.Decimal
	ActualCash          *decimal.Decimal
	Bills               []PartnerBill
	Closed              bool
	OpenedAt            time.Time
}

// Variance is actual minus expected cash. Zero until the log is closed
// with a counted actual.
func (l DailyLog) Variance() decimal.Decimal {
	if l.ActualCash == nil {
		return decimal.Zero
	}
	return l.ActualCash.Sub(l.ExpectedCash)
}

// CloseInput carries the operator's end-of-shift figures.
type CloseInput struct {
	TotalSales          decimal.Decimal
	CardPayments        decimal.Decimal
	HikingBarSales      decimal.Decimal
	ForeignCurrency     decimal.Decimal
	ForeignCurrencyNote string
	ActualCash          decimal.Decimal
	Bills               []PartnerBill
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrShiftOpen is returned by OpenDay while a shift is already open.
	ErrShiftOpen = errors.New("a shift is already open")

	// ErrNoOpenShift is returned by CloseDay with no open shift.
	ErrNoOpenShift = errors.New("no open shift")

	// ErrMissingJustification is returned when foreign currency was taken
	// but the mandatory explanatory note is blank.
	ErrMissingJustification = errors.New("foreign currency requires an explanatory note")
)

// =============================================================================
// STORE
// =============================================================================

// Store persists the shift log collection and the current-shift pointer.
// Both transitions write the log row and the pointer in one call so the
// store never holds one without the other.
type Store interface {
	LoadLogs(ctx context.Context) ([]DailyLog, error)

	// OpenShift inserts the new log and points the current shift at it.
	OpenShift(ctx context.Context, log DailyLog) error

	// CloseShift rewrites the closed log and clears the pointer.
	CloseShift(ctx context.Context, log DailyLog) error

	// CurrentShift returns the open shift's id, or nil when closed.
	CurrentShift(ctx context.Context) (*LogID, error)
}

// =============================================================================
// SHIFT SERVICE
// =============================================================================

// Shift drives the day lifecycle on top of the book.
type Shift struct {
	mu      sync.Mutex
	store   Store
	book    *ledger.Book
	logs    []DailyLog // newest first
	current *LogID

	now func() time.Time
}

type Option func(*Shift)

func WithClock(now func() time.Time) Option {
	return func(s *Shift) { s.now = now }
}

// Open loads the shift state from the store.
func Open(ctx context.Context, store Store, book *ledger.Book, opts ...Option) (*Shift, error) {
	s := &Shift{store: store, book: book, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	logs, err := store.LoadLogs(ctx)
	if err != nil {
		return nil, err
	}
	s.logs = logs
	current, err := store.CurrentShift(ctx)
	if err != nil {
		return nil, err
	}
	s.current = current
	return s, nil
}

// Current returns a copy of the open shift's log, or nil when closed.
func (s *Shift) Current() *DailyLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Shift) currentLocked() *DailyLog {
	if s.current == nil {
		return nil
	}
	for i := range s.logs {
		if s.logs[i].ID == *s.current {
			log := s.logs[i]
			return &log
		}
	}
	return nil
}

// Logs returns all shift records, newest first.
func (s *Shift) Logs() []DailyLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DailyLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// OpenDay starts a new shift with the counted opening float. Allowed only
// while no shift is open; the rule is enforced here as well as in the UI.
func (s *Shift) OpenDay(ctx context.Context, openingFloat decimal.Decimal) (*DailyLog, error) {
	if openingFloat.IsNegative() {
		return nil, ledger.Invalidf("opening_float", "must be non-negative, got %s", openingFloat)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil, ErrShiftOpen
	}

	now := s.now()
	log := DailyLog{
		ID:           LogID("log_" + uuid.NewString()),
		Date:         now.Format("2006-01-02"),
		OpeningFloat: openingFloat,
		ExpectedCash: openingFloat,
		OpenedAt:     now,
	}
	if err := s.store.OpenShift(ctx, log); err != nil {
		return nil, err
	}

	id := log.ID
	s.logs = append([]DailyLog{log}, s.logs...)
	s.current = &id
	return &log, nil
}

// CloseDay closes the open shift, computing expected cash and fixing the
// close-time fields. The shift stays open on any validation failure.
func (s *Shift) CloseDay(ctx context.Context, in CloseInput) (*DailyLog, error) {
	if in.ForeignCurrency.IsPositive() && in.ForeignCurrencyNote == "" {
		return nil, ErrMissingJustification
	}
	for _, bill := range in.Bills {
		if bill.Partner == "" {
			return nil, ledger.Invalidf("bills", "credit bill without a partner")
		}
		if bill.Amount.IsNegative() {
			return nil, ledger.Invalidf("bills", "negative credit bill for %s", bill.Partner)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.currentLocked()
	if log == nil {
		return nil, ErrNoOpenShift
	}

	creditBills := decimal.Zero
	for _, bill := range in.Bills {
		creditBills = creditBills.Add(bill.Amount)
	}
	nonCash := in.CardPayments.Add(creditBills).Add(in.HikingBarSales).Add(in.ForeignCurrency)
	cashSales := in.TotalSales.Sub(nonCash)
	expenses := s.cashExpensesSince(log.OpenedAt)

	actual := in.ActualCash
	log.TotalSales = in.TotalSales
	log.CardPayments = in.CardPayments
	log.CreditBills = creditBills
	log.HikingBarSales = in.HikingBarSales
	log.ForeignCurrency = in.ForeignCurrency
	log.ForeignCurrencyNote = in.ForeignCurrencyNote
	log.ExpensesCash = expenses
	log.ExpectedCash = log.OpeningFloat.Add(cashSales).Sub(expenses)
	log.ActualCash = &actual
	log.Bills = in.Bills
	log.Closed = true

	if err := s.store.CloseShift(ctx, *log); err != nil {
		return nil, err
	}

	for i := range s.logs {
		if s.logs[i].ID == log.ID {
			s.logs[i] = *log
		}
	}
	s.current = nil
	return log, nil
}

// cashExpensesSince sums till outflows to expense accounts, plus staff
// loans paid from the till, since the given time.
func (s *Shift) cashExpensesSince(at time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range s.book.TransactionsSince(at) {
		if !tx.Debits(ledger.TillFloat) {
			continue
		}
		_, isLoan := tx.Purpose.(ledger.LoanIssue)
		if tx.To == ledger.OperatingExpenses || tx.To == ledger.HikingBarExpenses || isLoan {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// TopUpFloat moves cash from owner equity into the till mid-shift.
func (s *Shift) TopUpFloat(ctx context.Context, amount decimal.Decimal) error {
	_, err := s.book.Transfer(ctx, ledger.OwnerEquity, ledger.TillFloat, amount, "Shift Float Top-Up")
	return err
}
