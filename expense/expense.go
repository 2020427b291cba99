/*
Package expense implements expense logging and the small registries that
feed it: vendors, expense categories, payment templates, recurring
payments, and the credit-partner list.

EXPENSE LOGGING:
  Log is a thin wrapper over the transfer primitive: money leaves the
  chosen source account into operating_expenses, tagged with an Expense
  purpose carrying the category breakdown and payee. Expenses are created
  unreconciled, like every default transfer.

TEMPLATES AND RECURRING PAYMENTS:
  A template is a saved expense form; Apply replays it. A recurring
  payment is a template with a frequency and a due date; RunDue logs every
  active payment that has come due and advances its due date one period.

PERSISTENCE:
  Each registry is a small independent collection rewritten in full on
  every mutation.
*/
package expense

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mozz/backoffice/ledger"
)

// =============================================================================
// TYPES
// =============================================================================

type Vendor struct {
	ID       string
	Name     string
	Category string
}

type Category struct {
	ID            string
	Name          string
	SubCategories []string
}

type PayeeType string

const (
	PayeeVendor PayeeType = "vendor"
	PayeeStaff  PayeeType = "staff"
)

// Template is a saved expense form.
type Template struct {
	ID          string
	Name        string
	Amount      decimal.Decimal
	Category    string
	SubCategory string
	SourceID    ledger.AccountID
	PayeeType   PayeeType
	PayeeID     string
	PayeeName   string
	Note        string
	Stock       bool
}

type Frequency string

const (
	Daily       Frequency = "Daily"
	Weekly      Frequency = "Weekly"
	Fortnightly Frequency = "Fortnightly"
	Monthly     Frequency = "Monthly"
)

// Recurring is a template that fires on a schedule.
type Recurring struct {
	Template
	Frequency Frequency
	NextDue   time.Time
	Active    bool
}

func (f Frequency) next(from time.Time) time.Time {
	switch f {
	case Daily:
		return from.AddDate(0, 0, 1)
	case Weekly:
		return from.AddDate(0, 0, 7)
	case Fortnightly:
		return from.AddDate(0, 0, 14)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store persists the registries, each rewritten in full on mutation.
type Store interface {
	LoadVendors(ctx context.Context) ([]Vendor, error)
	SaveVendors(ctx context.Context, vendors []Vendor) error

	LoadCategories(ctx context.Context) ([]Category, error)
	SaveCategories(ctx context.Context, categories []Category) error

	LoadTemplates(ctx context.Context) ([]Template, error)
	SaveTemplates(ctx context.Context, templates []Template) error

	LoadRecurring(ctx context.Context) ([]Recurring, error)
	SaveRecurring(ctx context.Context, recurring []Recurring) error

	LoadPartners(ctx context.Context) ([]string, error)
	SavePartners(ctx context.Context, partners []string) error
}

// =============================================================================
// TRACKER
// =============================================================================

// Tracker owns the registries and logs expenses through the book.
type Tracker struct {
	mu         sync.Mutex
	store      Store
	book       *ledger.Book
	vendors    []Vendor
	categories []Category
	templates  []Template
	recurring  []Recurring
	partners   []string
}

// Open loads every registry from the store.
func Open(ctx context.Context, store Store, book *ledger.Book) (*Tracker, error) {
	t := &Tracker{store: store, book: book}
	var err error
	if t.vendors, err = store.LoadVendors(ctx); err != nil {
		return nil, err
	}
	if t.categories, err = store.LoadCategories(ctx); err != nil {
		return nil, err
	}
	if t.templates, err = store.LoadTemplates(ctx); err != nil {
		return nil, err
	}
	if t.recurring, err = store.LoadRecurring(ctx); err != nil {
		return nil, err
	}
	if t.partners, err = store.LoadPartners(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Input is one expense to log.
type Input struct {
	Amount      decimal.Decimal
	SourceID    ledger.AccountID
	Category    string
	SubCategory string
	Note        string
	Stock       bool
	PayeeType   PayeeType
	PayeeID     string
	PayeeName   string
}

// Log records one expense: a transfer from the source account into
// operating_expenses tagged with the category breakdown.
func (t *Tracker) Log(ctx context.Context, in Input) (*ledger.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, ledger.Invalidf("amount", "must be positive, got %s", in.Amount)
	}
	if in.Category == "" {
		return nil, ledger.Invalidf("category", "required")
	}

	purpose := ledger.Expense{
		Category:    in.Category,
		SubCategory: in.SubCategory,
		PayeeName:   in.PayeeName,
		Stock:       in.Stock,
	}
	switch in.PayeeType {
	case PayeeVendor:
		purpose.VendorID = in.PayeeID
	case PayeeStaff:
		purpose.StaffID = in.PayeeID
	}

	note := in.Category
	if in.Note != "" {
		note = in.Category + ": " + in.Note
	}
	return t.book.Transfer(ctx, in.SourceID, ledger.OperatingExpenses, in.Amount, note,
		ledger.WithPurpose(purpose))
}

// =============================================================================
// VENDORS
// =============================================================================

func (t *Tracker) Vendors() []Vendor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Vendor, len(t.vendors))
	copy(out, t.vendors)
	return out
}

func (t *Tracker) AddVendor(ctx context.Context, name string) (Vendor, error) {
	if name == "" {
		return Vendor{}, ledger.Invalidf("name", "required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	v := Vendor{ID: "v_" + uuid.NewString(), Name: name}
	t.vendors = append(t.vendors, v)
	return v, t.store.SaveVendors(ctx, t.vendors)
}

func (t *Tracker) DeleteVendor(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, v := range t.vendors {
		if v.ID == id {
			t.vendors = append(t.vendors[:i], t.vendors[i+1:]...)
			return t.store.SaveVendors(ctx, t.vendors)
		}
	}
	return nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (t *Tracker) Categories() []Category {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

func (t *Tracker) AddCategory(ctx context.Context, name string) (Category, error) {
	if name == "" {
		return Category{}, ledger.Invalidf("name", "required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c := Category{ID: "cat_" + uuid.NewString(), Name: name}
	t.categories = append(t.categories, c)
	return c, t.store.SaveCategories(ctx, t.categories)
}

func (t *Tracker) DeleteCategory(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, c := range t.categories {
		if c.ID == id {
			t.categories = append(t.categories[:i], t.categories[i+1:]...)
			return t.store.SaveCategories(ctx, t.categories)
		}
	}
	return nil
}

func (t *Tracker) AddSubCategory(ctx context.Context, categoryID, name string) error {
	if name == "" {
		return ledger.Invalidf("name", "required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.categories {
		if t.categories[i].ID == categoryID {
			t.categories[i].SubCategories = append(t.categories[i].SubCategories, name)
			return t.store.SaveCategories(ctx, t.categories)
		}
	}
	return ledger.Invalidf("category_id", "unknown category %q", categoryID)
}

func (t *Tracker) DeleteSubCategory(ctx context.Context, categoryID, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.categories {
		if t.categories[i].ID != categoryID {
			continue
		}
		subs := t.categories[i].SubCategories[:0]
		for _, s := range t.categories[i].SubCategories {
			if s != name {
				subs = append(subs, s)
			}
		}
		t.categories[i].SubCategories = subs
		return t.store.SaveCategories(ctx, t.categories)
	}
	return nil
}

// =============================================================================
// CREDIT PARTNERS
// =============================================================================

func (t *Tracker) Partners() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.partners))
	copy(out, t.partners)
	return out
}

func (t *Tracker) AddPartner(ctx context.Context, name string) error {
	if name == "" {
		return ledger.Invalidf("name", "required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.partners {
		if p == name {
			return nil
		}
	}
	t.partners = append(t.partners, name)
	return t.store.SavePartners(ctx, t.partners)
}

func (t *Tracker) DeletePartner(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.partners[:0]
	for _, p := range t.partners {
		if p != name {
			kept = append(kept, p)
		}
	}
	t.partners = kept
	return t.store.SavePartners(ctx, t.partners)
}

// =============================================================================
// TEMPLATES
// =============================================================================

func (t *Tracker) Templates() []Template {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Template, len(t.templates))
	copy(out, t.templates)
	return out
}

func (t *Tracker) SaveTemplate(ctx context.Context, tpl Template) (Template, error) {
	if tpl.Name == "" {
		return Template{}, ledger.Invalidf("name", "required")
	}
	if !tpl.Amount.IsPositive() {
		return Template{}, ledger.Invalidf("amount", "must be positive")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if tpl.ID == "" {
		tpl.ID = "tpl_" + uuid.NewString()
	}
	t.templates = append(t.templates, tpl)
	return tpl, t.store.SaveTemplates(ctx, t.templates)
}

func (t *Tracker) DeleteTemplate(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, tpl := range t.templates {
		if tpl.ID == id {
			t.templates = append(t.templates[:i], t.templates[i+1:]...)
			return t.store.SaveTemplates(ctx, t.templates)
		}
	}
	return nil
}

// Apply logs an expense from a saved template.
func (t *Tracker) Apply(ctx context.Context, id string) (*ledger.Transaction, error) {
	t.mu.Lock()
	var found *Template
	for i := range t.templates {
		if t.templates[i].ID == id {
			tpl := t.templates[i]
			found = &tpl
			break
		}
	}
	t.mu.Unlock()
	if found == nil {
		return nil, ledger.Invalidf("template_id", "unknown template %q", id)
	}
	return t.Log(ctx, inputFromTemplate(*found))
}

func inputFromTemplate(tpl Template) Input {
	return Input{
		Amount:      tpl.Amount,
		SourceID:    tpl.SourceID,
		Category:    tpl.Category,
		SubCategory: tpl.SubCategory,
		Note:        tpl.Note,
		Stock:       tpl.Stock,
		PayeeType:   tpl.PayeeType,
		PayeeID:     tpl.PayeeID,
		PayeeName:   tpl.PayeeName,
	}
}

// =============================================================================
// RECURRING PAYMENTS
// =============================================================================

func (t *Tracker) RecurringPayments() []Recurring {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Recurring, len(t.recurring))
	copy(out, t.recurring)
	return out
}

func (t *Tracker) AddRecurring(ctx context.Context, r Recurring) (Recurring, error) {
	if r.Name == "" {
		return Recurring{}, ledger.Invalidf("name", "required")
	}
	if !r.Amount.IsPositive() {
		return Recurring{}, ledger.Invalidf("amount", "must be positive")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if r.ID == "" {
		r.ID = "rec_" + uuid.NewString()
	}
	r.Active = true
	t.recurring = append(t.recurring, r)
	return r, t.store.SaveRecurring(ctx, t.recurring)
}

// ToggleRecurring pauses or resumes a scheduled payment.
func (t *Tracker) ToggleRecurring(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.recurring {
		if t.recurring[i].ID == id {
			t.recurring[i].Active = !t.recurring[i].Active
			return t.recurring[i].Active, t.store.SaveRecurring(ctx, t.recurring)
		}
	}
	return false, ledger.Invalidf("recurring_id", "unknown recurring payment %q", id)
}

func (t *Tracker) DeleteRecurring(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, r := range t.recurring {
		if r.ID == id {
			t.recurring = append(t.recurring[:i], t.recurring[i+1:]...)
			return t.store.SaveRecurring(ctx, t.recurring)
		}
	}
	return nil
}

// findRecurringLocked returns a pointer into the recurring slice, or nil.
// Callers must hold t.mu; the pointer is invalid once the lock is released.
func (t *Tracker) findRecurringLocked(id string) *Recurring {
	for i := range t.recurring {
		if t.recurring[i].ID == id {
			return &t.recurring[i]
		}
	}
	return nil
}

// RunDue logs every active recurring payment due at or before now and
// advances its due date one period. Returns how many payments fired.
//
// Payments are tracked by id throughout, and re-resolved each time the
// lock is re-taken. The slice can shrink or reorder between the snapshot
// and the write-back when payments are deleted or toggled concurrently;
// a payment that disappeared, was paused, or is no longer due is skipped.
func (t *Tracker) RunDue(ctx context.Context, now time.Time) (int, error) {
	t.mu.Lock()
	var due []string
	for _, r := range t.recurring {
		if r.Active && !r.NextDue.After(now) {
			due = append(due, r.ID)
		}
	}
	t.mu.Unlock()

	fired := 0
	for _, id := range due {
		t.mu.Lock()
		r := t.findRecurringLocked(id)
		if r == nil || !r.Active || r.NextDue.After(now) {
			t.mu.Unlock()
			continue
		}
		snapshot := *r
		t.mu.Unlock()

		if _, err := t.Log(ctx, inputFromTemplate(snapshot.Template)); err != nil {
			return fired, err
		}

		t.mu.Lock()
		if r = t.findRecurringLocked(id); r != nil {
			r.NextDue = snapshot.Frequency.next(snapshot.NextDue)
		}
		err := t.store.SaveRecurring(ctx, t.recurring)
		t.mu.Unlock()
		if err != nil {
			return fired, err
		}
		fired++
	}
	return fired, nil
}
