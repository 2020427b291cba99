/*
purpose.go - Closed tagged-variant describing why a transfer happened

PURPOSE:
  Every transaction may carry a Purpose that records its business intent:
  an expense with its category, a staff loan, a payroll payout, a bank fee.
  Workflows dispatch on the concrete type instead of probing a loose
  metadata map, so a typo in a tag name is a compile error, not a silent
  filter miss.

CLOSED SET:
  The variant set is closed by the unexported marker method; packages
  outside ledger cannot add purposes. Plain transfers (float top-ups,
  manual account moves) carry no purpose at all.

PERSISTENCE:
  Purposes round-trip through (kind, JSON payload) pairs. See
  EncodePurpose / DecodePurpose at the bottom of this file.
*/
package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PURPOSE VARIANTS
// =============================================================================

// Purpose is the closed set of transaction intents.
type Purpose interface {
	Kind() PurposeKind
	isPurpose()
}

type PurposeKind string

const (
	KindExpense          PurposeKind = "expense"
	KindLoanIssue        PurposeKind = "loan_issue"
	KindLoanDeduction    PurposeKind = "loan_deduction"
	KindAdvanceIssue     PurposeKind = "advance_issue"
	KindAdvanceDeduction PurposeKind = "advance_deduction"
	KindPayout           PurposeKind = "payout"
	KindCreditSale       PurposeKind = "credit_sale"
	KindBankFee          PurposeKind = "bank_fee"
)

// Expense tags an operating-expense payment with its category breakdown
// and, when known, the payee it went to.
type Expense struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category,omitempty"`
	VendorID    string `json:"vendor_id,omitempty"`
	StaffID     string `json:"staff_id,omitempty"`
	PayeeName   string `json:"payee_name,omitempty"`
	Stock       bool   `json:"stock,omitempty"`
}

// LoanIssue tags money lent to a staff member.
type LoanIssue struct {
	StaffID string `json:"staff_id"`
}

// LoanDeduction tags a payroll deduction repaying a staff loan.
type LoanDeduction struct {
	StaffID string `json:"staff_id"`
}

// AdvanceIssue tags a salary advance given to a staff member.
type AdvanceIssue struct {
	StaffID string `json:"staff_id"`
}

// AdvanceDeduction tags a payroll deduction recovering an advance.
type AdvanceDeduction struct {
	StaffID string `json:"staff_id"`
}

// PayCycle distinguishes the two monthly payout runs.
type PayCycle string

const (
	CycleSalary        PayCycle = "1st"  // monthly salary run
	CycleServiceCharge PayCycle = "15th" // service-charge distribution
)

// Payout tags the net salary (or service charge) transfer for one staff
// member, recording the deductions that were netted out of the gross.
type Payout struct {
	StaffID         string          `json:"staff_id"`
	Cycle           PayCycle        `json:"cycle"`
	LoanDeducted    decimal.Decimal `json:"loan_deducted"`
	AdvanceDeducted decimal.Decimal `json:"advance_deducted"`
}

// CreditSale tags revenue booked against a credit partner (a bill the
// partner will settle later through pending_bills).
type CreditSale struct {
	Partner string `json:"partner"`
}

// BankFee tags the processor's cut recorded at card settlement.
type BankFee struct{}

func (Expense) Kind() PurposeKind          { return KindExpense }
func (LoanIssue) Kind() PurposeKind        { return KindLoanIssue }
func (LoanDeduction) Kind() PurposeKind    { return KindLoanDeduction }
func (AdvanceIssue) Kind() PurposeKind     { return KindAdvanceIssue }
func (AdvanceDeduction) Kind() PurposeKind { return KindAdvanceDeduction }
func (Payout) Kind() PurposeKind           { return KindPayout }
func (CreditSale) Kind() PurposeKind       { return KindCreditSale }
func (BankFee) Kind() PurposeKind          { return KindBankFee }

func (Expense) isPurpose()          {}
func (LoanIssue) isPurpose()        {}
func (LoanDeduction) isPurpose()    {}
func (AdvanceIssue) isPurpose()     {}
func (AdvanceDeduction) isPurpose() {}
func (Payout) isPurpose()           {}
func (CreditSale) isPurpose()       {}
func (BankFee) isPurpose()          {}

// StaffRelated returns the staff id a purpose refers to, if any.
func StaffRelated(p Purpose) (string, bool) {
	switch v := p.(type) {
	case LoanIssue:
		return v.StaffID, true
	case LoanDeduction:
		return v.StaffID, true
	case AdvanceIssue:
		return v.StaffID, true
	case AdvanceDeduction:
		return v.StaffID, true
	case Payout:
		return v.StaffID, true
	case Expense:
		if v.StaffID != "" {
			return v.StaffID, true
		}
	}
	return "", false
}

// =============================================================================
// ENCODING
// =============================================================================

// EncodePurpose serializes a purpose to its kind and JSON payload.
// A nil purpose encodes to ("", "").
func EncodePurpose(p Purpose) (kind string, payload string, err error) {
	if p == nil {
		return "", "", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("encode purpose %s: %w", p.Kind(), err)
	}
	return string(p.Kind()), string(raw), nil
}

// DecodePurpose is the inverse of EncodePurpose.
func DecodePurpose(kind string, payload string) (Purpose, error) {
	if kind == "" {
		return nil, nil
	}
	if payload == "" {
		payload = "{}"
	}
	switch PurposeKind(kind) {
	case KindExpense:
		var p Expense
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindLoanIssue:
		var p LoanIssue
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindLoanDeduction:
		var p LoanDeduction
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindAdvanceIssue:
		var p AdvanceIssue
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindAdvanceDeduction:
		var p AdvanceDeduction
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindPayout:
		var p Payout
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindCreditSale:
		var p CreditSale
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindBankFee:
		return BankFee{}, nil
	default:
		return nil, fmt.Errorf("unknown purpose kind %q", kind)
	}
}
