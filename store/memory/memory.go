/*
Package memory provides an in-memory implementation of every store
interface. It backs tests and throwaway dev sessions; durable state lives
in store/sqlite.

Collections are held as copied slices, so a caller mutating what it got
back from a Load cannot corrupt the store.
*/
package memory

import (
	"context"
	"sync"

	"github.com/mozz/backoffice/expense"
	"github.com/mozz/backoffice/ledger"
	"github.com/mozz/backoffice/payroll"
	"github.com/mozz/backoffice/shift"
)

// Store implements ledger.Store, shift.Store, payroll.Store and
// expense.Store in memory.
type Store struct {
	mu sync.RWMutex

	accounts     []ledger.Account
	transactions []ledger.Transaction
	txIndex      map[ledger.TransactionID]int

	logs    []shift.DailyLog
	current *shift.LogID

	staff    []payroll.Staff
	holidays []payroll.StaffHoliday

	vendors    []expense.Vendor
	categories []expense.Category
	templates  []expense.Template
	recurring  []expense.Recurring
	partners   []string
}

func New() *Store {
	return &Store{txIndex: make(map[ledger.TransactionID]int)}
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// =============================================================================
// ledger.Store
// =============================================================================

func (s *Store) LoadAccounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.accounts), nil
}

func (s *Store) SaveAccounts(_ context.Context, accounts []ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = clone(accounts)
	return nil
}

func (s *Store) LoadTransactions(_ context.Context) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.transactions), nil
}

func (s *Store) AppendTransaction(_ context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	s.txIndex[tx.ID] = len(s.transactions) - 1
	return nil
}

func (s *Store) MarkReconciled(_ context.Context, ids []ledger.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		i, ok := s.txIndex[id]
		if !ok {
			return ledger.ErrUnknownTransaction
		}
		s.transactions[i].Reconciled = true
	}
	return nil
}

// =============================================================================
// shift.Store
// =============================================================================

func (s *Store) LoadLogs(_ context.Context) ([]shift.DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.logs), nil
}

func (s *Store) OpenShift(_ context.Context, log shift.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append([]shift.DailyLog{log}, s.logs...)
	id := log.ID
	s.current = &id
	return nil
}

func (s *Store) CloseShift(_ context.Context, log shift.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.logs {
		if s.logs[i].ID == log.ID {
			s.logs[i] = log
			break
		}
	}
	s.current = nil
	return nil
}

func (s *Store) CurrentShift(_ context.Context) (*shift.LogID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, nil
	}
	id := *s.current
	return &id, nil
}

// =============================================================================
// payroll.Store
// =============================================================================

func (s *Store) LoadStaff(_ context.Context) ([]payroll.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.staff), nil
}

func (s *Store) SaveStaff(_ context.Context, staff []payroll.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff = clone(staff)
	return nil
}

func (s *Store) UpdateStaff(_ context.Context, member payroll.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.staff {
		if s.staff[i].ID == member.ID {
			s.staff[i] = member
			return nil
		}
	}
	return &payroll.UnknownStaffError{ID: member.ID}
}

func (s *Store) LoadHolidays(_ context.Context) ([]payroll.StaffHoliday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.holidays), nil
}

func (s *Store) InsertHoliday(_ context.Context, holiday payroll.StaffHoliday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays = append(s.holidays, holiday)
	return nil
}

func (s *Store) DeleteHoliday(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.holidays {
		if h.ID == id {
			s.holidays = append(s.holidays[:i], s.holidays[i+1:]...)
			return nil
		}
	}
	return nil
}

// =============================================================================
// expense.Store
// =============================================================================

func (s *Store) LoadVendors(_ context.Context) ([]expense.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.vendors), nil
}

func (s *Store) SaveVendors(_ context.Context, vendors []expense.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors = clone(vendors)
	return nil
}

func (s *Store) LoadCategories(_ context.Context) ([]expense.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.categories), nil
}

func (s *Store) SaveCategories(_ context.Context, categories []expense.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = clone(categories)
	return nil
}

func (s *Store) LoadTemplates(_ context.Context) ([]expense.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.templates), nil
}

func (s *Store) SaveTemplates(_ context.Context, templates []expense.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = clone(templates)
	return nil
}

func (s *Store) LoadRecurring(_ context.Context) ([]expense.Recurring, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.recurring), nil
}

func (s *Store) SaveRecurring(_ context.Context, recurring []expense.Recurring) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring = clone(recurring)
	return nil
}

func (s *Store) LoadPartners(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.partners), nil
}

func (s *Store) SavePartners(_ context.Context, partners []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partners = clone(partners)
	return nil
}
