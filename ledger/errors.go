/*
errors.go - Centralized error types for the bookkeeping core

PURPOSE:
  All core error types in one place. Workflow packages wrap or return
  these; the API layer maps them to HTTP statuses with IsClientError /
  IsNotFound.

ERROR CATEGORIES:
  1. Validation errors  - malformed input, rejected before any mutation
  2. Reference errors   - unknown account / staff / transaction ids
  3. Workflow errors    - split mismatch, missing justification, shift state

PROPAGATION POLICY:
  Every operation is all-or-nothing for a single user action: all
  preconditions are checked before the first balance mutation, so a
  returned error always means "nothing changed".
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the base of all malformed-input failures.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownAccount is returned for a transfer naming an id outside the
	// chart of accounts. Balances are never created under phantom ids.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrUnknownTransaction is returned when a reconciliation references a
	// transaction id that is not in the log.
	ErrUnknownTransaction = errors.New("unknown transaction")

	// ErrAlreadyReconciled is returned when a settlement selects a
	// transaction whose reconciled flag has already flipped.
	ErrAlreadyReconciled = errors.New("transaction already reconciled")

	// ErrSplitMismatch is returned when a settlement split does not sum to
	// the transaction amount within SplitEpsilon.
	ErrSplitMismatch = errors.New("split does not match transaction amount")

	// ErrEmptySelection is returned by batch settlements given no ids.
	ErrEmptySelection = errors.New("empty settlement selection")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalidf builds a ValidationError for the given field.
func Invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UnknownAccountError identifies which id fell outside the chart.
type UnknownAccountError struct {
	ID AccountID
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %q", e.ID)
}

func (e *UnknownAccountError) Unwrap() error { return ErrUnknownAccount }

// SplitMismatchError reports the expected amount and the split total.
type SplitMismatchError struct {
	Transaction TransactionID
	Expected    decimal.Decimal
	Got         decimal.Decimal
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("split for %s sums to %s, transaction amount is %s",
		e.Transaction, e.Got, e.Expected)
}

func (e *SplitMismatchError) Unwrap() error { return ErrSplitMismatch }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrSplitMismatch) ||
		errors.Is(err, ErrAlreadyReconciled) ||
		errors.Is(err, ErrEmptySelection)
}

// IsNotFound reports whether the error names a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownAccount) ||
		errors.Is(err, ErrUnknownTransaction)
}
