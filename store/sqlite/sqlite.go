/*
Package sqlite provides the durable store behind the bookkeeping engine.

PURPOSE:
  Implements every persistence interface (ledger.Store, shift.Store,
  payroll.Store, expense.Store) on a single SQLite database. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  ledger.Store:   chart-of-accounts snapshot + append-only transaction log
  shift.Store:    daily logs + current-shift pointer
  payroll.Store:  staff roster + holiday records
  expense.Store:  vendors, categories, templates, recurring payments, partners

APPEND-ONLY ENFORCEMENT:
  The transactions table has no DELETE path and a single UPDATE path: the
  one-way reconciled flip issued by the ledger.

MONEY:
  Amounts are stored as decimal strings and parsed back via shopspring
  decimal. Never floats.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better crash recovery.
  A single process writes, so contention is not a concern.

USAGE:
  store, err := sqlite.New("./data/backoffice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  book, err := ledger.Open(ctx, store)

MIGRATION:
  Schema is auto-migrated on New(). One operator, one database file;
  versioned migrations would be overkill here.

SEE ALSO:
  - ledger/store.go: Interface definition for the transaction log
  - store/memory/memory.go: In-memory equivalent used by tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/mozz/backoffice/expense"
	"github.com/mozz/backoffice/ledger"
	"github.com/mozz/backoffice/payroll"
	"github.com/mozz/backoffice/shift"
)

// Store implements every persistence interface on one SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Chart of accounts (full snapshot, fourteen rows)
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		opening TEXT NOT NULL,
		balance TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	-- Transactions (append-only ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		from_account TEXT NOT NULL,
		to_account TEXT NOT NULL,
		amount TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		at TEXT NOT NULL,
		reconciled BOOLEAN NOT NULL DEFAULT FALSE,
		purpose_kind TEXT NOT NULL DEFAULT '',
		purpose_json TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_from ON transactions(from_account);
	CREATE INDEX IF NOT EXISTS idx_transactions_to ON transactions(to_account);
	CREATE INDEX IF NOT EXISTS idx_transactions_at ON transactions(at);

	-- Shift records
	CREATE TABLE IF NOT EXISTS daily_logs (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		opening_float TEXT NOT NULL,
		total_sales TEXT NOT NULL,
		card_payments TEXT NOT NULL,
		credit_bills TEXT NOT NULL,
		hiking_bar_sales TEXT NOT NULL,
		foreign_currency TEXT NOT NULL,
		foreign_currency_note TEXT NOT NULL DEFAULT '',
		expenses_cash TEXT NOT NULL,
		expected_cash TEXT NOT NULL,
		actual_cash TEXT,
		bills_json TEXT NOT NULL DEFAULT '[]',
		closed BOOLEAN NOT NULL DEFAULT FALSE,
		opened_at TEXT NOT NULL
	);

	-- Current-shift pointer (single row)
	CREATE TABLE IF NOT EXISTS shift_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		current_log TEXT
	);
	INSERT OR IGNORE INTO shift_state (id, current_log) VALUES (1, NULL);

	-- Staff roster
	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		base_salary TEXT NOT NULL,
		loan_balance TEXT NOT NULL,
		initial_loan_amount TEXT NOT NULL,
		monthly_loan_installment TEXT NOT NULL,
		advance_balance TEXT NOT NULL,
		joined_date TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	-- Holiday toggles: at most one record per staff member per date
	CREATE TABLE IF NOT EXISTS staff_holidays (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		UNIQUE(staff_id, date)
	);

	CREATE TABLE IF NOT EXISTS vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS expense_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sub_categories_json TEXT NOT NULL DEFAULT '[]',
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payment_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		sub_category TEXT NOT NULL DEFAULT '',
		source_id TEXT NOT NULL,
		payee_type TEXT NOT NULL DEFAULT '',
		payee_id TEXT NOT NULL DEFAULT '',
		payee_name TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		stock BOOLEAN NOT NULL DEFAULT FALSE,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recurring_payments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		sub_category TEXT NOT NULL DEFAULT '',
		source_id TEXT NOT NULL,
		payee_type TEXT NOT NULL DEFAULT '',
		payee_id TEXT NOT NULL DEFAULT '',
		payee_name TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		stock BOOLEAN NOT NULL DEFAULT FALSE,
		frequency TEXT NOT NULL,
		next_due TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS credit_partners (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func parseMoney(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", column, raw, err)
	}
	return d, nil
}

func parseTime(column, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", column, raw, err)
	}
	return t, nil
}

// ====== LEDGER STORE ======

func (s *Store) LoadAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, opening, balance FROM accounts ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var acc ledger.Account
		var opening, balance string
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Type, &opening, &balance); err != nil {
			return nil, err
		}
		if acc.Opening, err = parseMoney("opening", opening); err != nil {
			return nil, err
		}
		if acc.Balance, err = parseMoney("balance", balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (s *Store) SaveAccounts(ctx context.Context, accounts []ledger.Account) error {
	return s.rewrite(ctx, `DELETE FROM accounts`, func(tx *sql.Tx) error {
		for i, acc := range accounts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO accounts (id, name, type, opening, balance, position)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				acc.ID, acc.Name, acc.Type, acc.Opening.String(),
				acc.Balance.String(), i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_account, to_account, amount, note, at, reconciled,
		        purpose_kind, purpose_json
		 FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		var t ledger.Transaction
		var amount, at, kind, payload string
		if err := rows.Scan(&t.ID, &t.From, &t.To, &amount, &t.Note, &at,
			&t.Reconciled, &kind, &payload); err != nil {
			return nil, err
		}
		if t.Amount, err = parseMoney("amount", amount); err != nil {
			return nil, err
		}
		if t.At, err = parseTime("at", at); err != nil {
			return nil, err
		}
		if t.Purpose, err = ledger.DecodePurpose(kind, payload); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) AppendTransaction(ctx context.Context, t ledger.Transaction) error {
	kind, payload, err := ledger.EncodePurpose(t.Purpose)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, from_account, to_account, amount, note, at,
		                           reconciled, purpose_kind, purpose_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.From, t.To, t.Amount.String(), t.Note,
		t.At.Format(time.RFC3339Nano), t.Reconciled, kind, payload)
	return err
}

func (s *Store) MarkReconciled(ctx context.Context, ids []ledger.TransactionID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET reconciled = TRUE WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ====== SHIFT STORE ======

func (s *Store) LoadLogs(ctx context.Context) ([]shift.DailyLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, opening_float, total_sales, card_payments, credit_bills,
		        hiking_bar_sales, foreign_currency, foreign_currency_note,
		        expenses_cash, expected_cash, actual_cash, bills_json, closed, opened_at
		 FROM daily_logs ORDER BY opened_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []shift.DailyLog
	for rows.Next() {
		var log shift.DailyLog
		var opening, total, card, credit, hiking, foreign, expenses, expected string
		var actual sql.NullString
		var bills, openedAt string
		if err := rows.Scan(&log.ID, &log.Date, &opening, &total, &card, &credit,
			&hiking, &foreign, &log.ForeignCurrencyNote, &expenses, &expected,
			&actual, &bills, &log.Closed, &openedAt); err != nil {
			return nil, err
		}

		fields := []struct {
			dst  *decimal.Decimal
			name string
			raw  string
		}{
			{&log.OpeningFloat, "opening_float", opening},
			{&log.TotalSales, "total_sales", total},
			{&log.CardPayments, "card_payments", card},
			{&log.CreditBills, "credit_bills", credit},
			{&log.HikingBarSales, "hiking_bar_sales", hiking},
			{&log.ForeignCurrency, "foreign_currency", foreign},
			{&log.ExpensesCash, "expenses_cash", expenses},
			{&log.ExpectedCash, "expected_cash", expected},
		}
		for _, f := range fields {
			if *f.dst, err = parseMoney(f.name, f.raw); err != nil {
				return nil, err
			}
		}
		if actual.Valid {
			v, err := parseMoney("actual_cash", actual.String)
			if err != nil {
				return nil, err
			}
			log.ActualCash = &v
		}
		if err := json.Unmarshal([]byte(bills), &log.Bills); err != nil {
			return nil, fmt.Errorf("parse bills for log %s: %w", log.ID, err)
		}
		if log.OpenedAt, err = parseTime("opened_at", openedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// OpenShift inserts the new log and points the current shift at it in
// one transaction, so a crash never leaves the row without the pointer.
func (s *Store) OpenShift(ctx context.Context, log shift.DailyLog) error {
	bills, err := json.Marshal(log.Bills)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO daily_logs (id, date, opening_float, total_sales, card_payments,
		        credit_bills, hiking_bar_sales, foreign_currency, foreign_currency_note,
		        expenses_cash, expected_cash, actual_cash, bills_json, closed, opened_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.Date, log.OpeningFloat.String(), log.TotalSales.String(),
		log.CardPayments.String(), log.CreditBills.String(), log.HikingBarSales.String(),
		log.ForeignCurrency.String(), log.ForeignCurrencyNote, log.ExpensesCash.String(),
		log.ExpectedCash.String(), nullableMoney(log.ActualCash), string(bills),
		log.Closed, log.OpenedAt.Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE shift_state SET current_log = ? WHERE id = 1`, string(log.ID)); err != nil {
		return err
	}
	return tx.Commit()
}

// CloseShift rewrites the closed log and clears the pointer in one
// transaction.
func (s *Store) CloseShift(ctx context.Context, log shift.DailyLog) error {
	bills, err := json.Marshal(log.Bills)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE daily_logs SET date = ?, opening_float = ?, total_sales = ?,
		        card_payments = ?, credit_bills = ?, hiking_bar_sales = ?,
		        foreign_currency = ?, foreign_currency_note = ?, expenses_cash = ?,
		        expected_cash = ?, actual_cash = ?, bills_json = ?, closed = ?
		 WHERE id = ?`,
		log.Date, log.OpeningFloat.String(), log.TotalSales.String(),
		log.CardPayments.String(), log.CreditBills.String(), log.HikingBarSales.String(),
		log.ForeignCurrency.String(), log.ForeignCurrencyNote, log.ExpensesCash.String(),
		log.ExpectedCash.String(), nullableMoney(log.ActualCash), string(bills),
		log.Closed, log.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE shift_state SET current_log = NULL WHERE id = 1`); err != nil {
		return err
	}
	return tx.Commit()
}

func nullableMoney(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func (s *Store) CurrentShift(ctx context.Context) (*shift.LogID, error) {
	var current sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT current_log FROM shift_state WHERE id = 1`).Scan(&current)
	if err != nil {
		return nil, err
	}
	if !current.Valid {
		return nil, nil
	}
	id := shift.LogID(current.String)
	return &id, nil
}

// ====== PAYROLL STORE ======

func (s *Store) LoadStaff(ctx context.Context) ([]payroll.Staff, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, role, phone, base_salary, loan_balance, initial_loan_amount,
		        monthly_loan_installment, advance_balance, joined_date
		 FROM staff ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []payroll.Staff
	for rows.Next() {
		var m payroll.Staff
		var salary, loan, initial, installment, advance string
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Phone, &salary, &loan,
			&initial, &installment, &advance, &m.JoinedDate); err != nil {
			return nil, err
		}
		fields := []struct {
			dst  *decimal.Decimal
			name string
			raw  string
		}{
			{&m.BaseSalary, "base_salary", salary},
			{&m.LoanBalance, "loan_balance", loan},
			{&m.InitialLoanAmount, "initial_loan_amount", initial},
			{&m.MonthlyLoanInstallment, "monthly_loan_installment", installment},
			{&m.AdvanceBalance, "advance_balance", advance},
		}
		for _, f := range fields {
			if *f.dst, err = parseMoney(f.name, f.raw); err != nil {
				return nil, err
			}
		}
		roster = append(roster, m)
	}
	return roster, rows.Err()
}

func (s *Store) SaveStaff(ctx context.Context, staff []payroll.Staff) error {
	return s.rewrite(ctx, `DELETE FROM staff`, func(tx *sql.Tx) error {
		for i, m := range staff {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO staff (id, name, role, phone, base_salary, loan_balance,
				        initial_loan_amount, monthly_loan_installment, advance_balance,
				        joined_date, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				m.ID, m.Name, m.Role, m.Phone, m.BaseSalary.String(),
				m.LoanBalance.String(), m.InitialLoanAmount.String(),
				m.MonthlyLoanInstallment.String(), m.AdvanceBalance.String(),
				m.JoinedDate, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) UpdateStaff(ctx context.Context, m payroll.Staff) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE staff SET name = ?, role = ?, phone = ?, base_salary = ?,
		        loan_balance = ?, initial_loan_amount = ?, monthly_loan_installment = ?,
		        advance_balance = ?, joined_date = ?
		 WHERE id = ?`,
		m.Name, m.Role, m.Phone, m.BaseSalary.String(), m.LoanBalance.String(),
		m.InitialLoanAmount.String(), m.MonthlyLoanInstallment.String(),
		m.AdvanceBalance.String(), m.JoinedDate, m.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &payroll.UnknownStaffError{ID: m.ID}
	}
	return nil
}

func (s *Store) LoadHolidays(ctx context.Context) ([]payroll.StaffHoliday, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, staff_id, date, type FROM staff_holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []payroll.StaffHoliday
	for rows.Next() {
		var h payroll.StaffHoliday
		if err := rows.Scan(&h.ID, &h.StaffID, &h.Date, &h.Type); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) InsertHoliday(ctx context.Context, h payroll.StaffHoliday) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO staff_holidays (id, staff_id, date, type) VALUES (?, ?, ?, ?)`,
		h.ID, h.StaffID, h.Date, h.Type)
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM staff_holidays WHERE id = ?`, id)
	return err
}

// ====== EXPENSE STORE ======

func (s *Store) LoadVendors(ctx context.Context) ([]expense.Vendor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category FROM vendors ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []expense.Vendor
	for rows.Next() {
		var v expense.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Category); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (s *Store) SaveVendors(ctx context.Context, vendors []expense.Vendor) error {
	return s.rewrite(ctx, `DELETE FROM vendors`, func(tx *sql.Tx) error {
		for i, v := range vendors {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vendors (id, name, category, position) VALUES (?, ?, ?, ?)`,
				v.ID, v.Name, v.Category, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadCategories(ctx context.Context) ([]expense.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sub_categories_json FROM expense_categories ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []expense.Category
	for rows.Next() {
		var c expense.Category
		var subs string
		if err := rows.Scan(&c.ID, &c.Name, &subs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(subs), &c.SubCategories); err != nil {
			return nil, fmt.Errorf("parse sub-categories for %s: %w", c.ID, err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) SaveCategories(ctx context.Context, categories []expense.Category) error {
	return s.rewrite(ctx, `DELETE FROM expense_categories`, func(tx *sql.Tx) error {
		for i, c := range categories {
			subs, err := json.Marshal(c.SubCategories)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO expense_categories (id, name, sub_categories_json, position)
				 VALUES (?, ?, ?, ?)`,
				c.ID, c.Name, string(subs), i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadTemplates(ctx context.Context) ([]expense.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, amount, category, sub_category, source_id, payee_type,
		        payee_id, payee_name, note, stock
		 FROM payment_templates ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []expense.Template
	for rows.Next() {
		var t expense.Template
		var amount string
		if err := rows.Scan(&t.ID, &t.Name, &amount, &t.Category, &t.SubCategory,
			&t.SourceID, &t.PayeeType, &t.PayeeID, &t.PayeeName, &t.Note, &t.Stock); err != nil {
			return nil, err
		}
		if t.Amount, err = parseMoney("amount", amount); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *Store) SaveTemplates(ctx context.Context, templates []expense.Template) error {
	return s.rewrite(ctx, `DELETE FROM payment_templates`, func(tx *sql.Tx) error {
		for i, t := range templates {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO payment_templates (id, name, amount, category, sub_category,
				        source_id, payee_type, payee_id, payee_name, note, stock, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.Name, t.Amount.String(), t.Category, t.SubCategory,
				t.SourceID, t.PayeeType, t.PayeeID, t.PayeeName, t.Note, t.Stock, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadRecurring(ctx context.Context) ([]expense.Recurring, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, amount, category, sub_category, source_id, payee_type,
		        payee_id, payee_name, note, stock, frequency, next_due, active
		 FROM recurring_payments ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recurring []expense.Recurring
	for rows.Next() {
		var r expense.Recurring
		var amount, nextDue string
		if err := rows.Scan(&r.ID, &r.Name, &amount, &r.Category, &r.SubCategory,
			&r.SourceID, &r.PayeeType, &r.PayeeID, &r.PayeeName, &r.Note, &r.Stock,
			&r.Frequency, &nextDue, &r.Active); err != nil {
			return nil, err
		}
		if r.Amount, err = parseMoney("amount", amount); err != nil {
			return nil, err
		}
		if r.NextDue, err = parseTime("next_due", nextDue); err != nil {
			return nil, err
		}
		recurring = append(recurring, r)
	}
	return recurring, rows.Err()
}

func (s *Store) SaveRecurring(ctx context.Context, recurring []expense.Recurring) error {
	return s.rewrite(ctx, `DELETE FROM recurring_payments`, func(tx *sql.Tx) error {
		for i, r := range recurring {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recurring_payments (id, name, amount, category, sub_category,
				        source_id, payee_type, payee_id, payee_name, note, stock,
				        frequency, next_due, active, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.Name, r.Amount.String(), r.Category, r.SubCategory,
				r.SourceID, r.PayeeType, r.PayeeID, r.PayeeName, r.Note, r.Stock,
				r.Frequency, r.NextDue.Format(time.RFC3339Nano), r.Active, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadPartners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM credit_partners ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		partners = append(partners, name)
	}
	return partners, rows.Err()
}

func (s *Store) SavePartners(ctx context.Context, partners []string) error {
	return s.rewrite(ctx, `DELETE FROM credit_partners`, func(tx *sql.Tx) error {
		for i, name := range partners {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO credit_partners (name, position) VALUES (?, ?)`,
				name, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// rewrite replaces a whole collection inside one database transaction.
func (s *Store) rewrite(ctx context.Context, clear string, insert func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, clear); err != nil {
		return err
	}
	if err := insert(tx); err != nil {
		return err
	}
	return tx.Commit()
}
