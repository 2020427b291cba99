/*
Package reconcile implements the settlement workflows that mark pending
transactions as settled and fire the secondary transfers that go with
them.

FOUR SHAPES:
  1. SettleBarOrder:   split one hiking-bar order into cash/card/deductions
  2. SettleCardBatch:  settle a batch of card payments, recording the bank
                       fee leakage
  3. SettleCreditBills: settle a batch of partner credit bills with one
                       transfer
  4. SettleVendorBill: pay off a single outstanding bill from a cash account

FAILURE POLICY:
  All-or-nothing per call. Every precondition (selection non-empty, ids
  known, flags unreconciled, split exact, accounts correct) is validated
  before the first transfer fires, so a failed settlement leaves no
  partial effect behind.

FEE-ONLY CARD MODEL:
  Card sales were credited to the receivable account when recorded, so
  settlement does not move the gross again; only the processor's fee is
  transferred out. The net cash arriving at the bank is not modelled.
  This mirrors the till's paper process and is deliberate, not a
  double-entry bug.
*/
package reconcile

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mozz/backoffice/ledger"
)

// Reconciler runs settlement workflows against the book.
type Reconciler struct {
	Book *ledger.Book
}

func New(book *ledger.Book) *Reconciler {
	return &Reconciler{Book: book}
}

// =============================================================================
// HIKING BAR ORDER SPLIT
// =============================================================================

// Split is how one settled hiking-bar order breaks down.
type Split struct {
	Cash          decimal.Decimal
	Card          decimal.Decimal
	ServiceCharge decimal.Decimal
	Contra        decimal.Decimal
}

// Total returns the sum of all split components.
func (s Split) Total() decimal.Decimal {
	return s.Cash.Add(s.Card).Add(s.ServiceCharge).Add(s.Contra)
}

func (s Split) validate() error {
	for _, part := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"cash", s.Cash},
		{"card", s.Card},
		{"service_charge", s.ServiceCharge},
		{"contra", s.Contra},
	} {
		if part.v.IsNegative() {
			return ledger.Invalidf(part.name, "must be non-negative, got %s", part.v)
		}
	}
	return nil
}

// SettleBarOrder settles one pending hiking-bar order. The split must sum
// to the order amount within ledger.SplitEpsilon, otherwise the call fails
// with SplitMismatchError and nothing moves. On success up to three
// transfers drain the receivable (cash to the till, card to the bar's card
// receivable, service charge + contra to bar expenses) and the order is
// marked reconciled.
func (r *Reconciler) SettleBarOrder(ctx context.Context, txID ledger.TransactionID, split Split) error {
	if err := split.validate(); err != nil {
		return err
	}
	tx, err := r.Book.Find(txID)
	if err != nil {
		return err
	}
	if tx.Reconciled {
		return ledger.ErrAlreadyReconciled
	}
	if !tx.Credits(ledger.HikingBarRec) {
		return ledger.Invalidf("transaction", "%s is not a pending hiking-bar order", txID)
	}
	if !ledger.WithinEpsilon(split.Total(), tx.Amount) {
		return &ledger.SplitMismatchError{Transaction: txID, Expected: tx.Amount, Got: split.Total()}
	}

	if _, err := r.Book.Transfer(ctx, ledger.HikingBarRec, ledger.TillFloat, split.Cash,
		fmt.Sprintf("HB Cash: %s", txID)); err != nil {
		return err
	}
	if _, err := r.Book.Transfer(ctx, ledger.HikingBarRec, ledger.HikingBarCard, split.Card,
		fmt.Sprintf("HB Card: %s", txID)); err != nil {
		return err
	}
	deductions := split.ServiceCharge.Add(split.Contra)
	if _, err := r.Book.Transfer(ctx, ledger.HikingBarRec, ledger.HikingBarExpenses, deductions,
		fmt.Sprintf("HB Deduction: %s", txID)); err != nil {
		return err
	}
	return r.Book.MarkReconciled(ctx, txID)
}

// =============================================================================
// CARD SETTLEMENT BATCH
// =============================================================================

// SettleCardBatch settles a batch of card-payment transactions against the
// net amount the bank actually paid out. The selected transactions must all
// be unreconciled inflows to the same card receivable. The fee is derived,
// never negative: fee = max(0, selected total - net). Only the fee moves;
// see the package comment for the fee-only model.
func (r *Reconciler) SettleCardBatch(ctx context.Context, ids []ledger.TransactionID, receivable ledger.AccountID, net decimal.Decimal, note string) error {
	if len(ids) == 0 {
		return ledger.ErrEmptySelection
	}
	if net.IsNegative() {
		return ledger.Invalidf("net_amount", "must be non-negative, got %s", net)
	}

	total := decimal.Zero
	seen := make(map[ledger.TransactionID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return ledger.Invalidf("transaction", "%s selected twice", id)
		}
		seen[id] = struct{}{}
		tx, err := r.Book.Find(id)
		if err != nil {
			return err
		}
		if tx.Reconciled {
			return ledger.ErrAlreadyReconciled
		}
		if !tx.Credits(receivable) {
			return ledger.Invalidf("transaction", "%s is not a pending inflow to %s", id, receivable)
		}
		total = total.Add(tx.Amount)
	}

	fee := decimal.Max(decimal.Zero, total.Sub(net))
	if _, err := r.Book.Transfer(ctx, receivable, ledger.OperatingExpenses, fee,
		fmt.Sprintf("Bank Fee: %s", note),
		ledger.Reconciled(), ledger.WithPurpose(ledger.BankFee{})); err != nil {
		return err
	}
	return r.Book.MarkReconciled(ctx, ids...)
}

// =============================================================================
// CREDIT BILL BATCH
// =============================================================================

// SettleCreditBills settles a batch of partner credit bills: the selected
// amounts are summed and moved out of pending_bills into the destination
// account in a single transfer, then every bill is marked reconciled.
func (r *Reconciler) SettleCreditBills(ctx context.Context, ids []ledger.TransactionID, dest ledger.AccountID, note string) error {
	if len(ids) == 0 {
		return ledger.ErrEmptySelection
	}

	total := decimal.Zero
	seen := make(map[ledger.TransactionID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return ledger.Invalidf("transaction", "%s selected twice", id)
		}
		seen[id] = struct{}{}
		tx, err := r.Book.Find(id)
		if err != nil {
			return err
		}
		if tx.Reconciled {
			return ledger.ErrAlreadyReconciled
		}
		if !tx.Credits(ledger.PendingBills) {
			return ledger.Invalidf("transaction", "%s is not a pending credit bill", id)
		}
		total = total.Add(tx.Amount)
	}

	if _, err := r.Book.Transfer(ctx, ledger.PendingBills, dest, total,
		fmt.Sprintf("Bill Settle: %s", note)); err != nil {
		return err
	}
	return r.Book.MarkReconciled(ctx, ids...)
}

// =============================================================================
// SINGLE VENDOR BILL
// =============================================================================

// SettleVendorBill pays off one outstanding bill (a pending outflow from
// pending_bills) from a cash account. The settling transfer is created
// already reconciled and the original bill is marked settled.
func (r *Reconciler) SettleVendorBill(ctx context.Context, txID ledger.TransactionID, source ledger.AccountID) error {
	tx, err := r.Book.Find(txID)
	if err != nil {
		return err
	}
	if tx.Reconciled {
		return ledger.ErrAlreadyReconciled
	}
	if !tx.Debits(ledger.PendingBills) {
		return ledger.Invalidf("transaction", "%s is not an outstanding bill", txID)
	}

	if _, err := r.Book.Transfer(ctx, source, ledger.PendingBills, tx.Amount,
		fmt.Sprintf("Settled Bill: %s", tx.Note), ledger.Reconciled()); err != nil {
		return err
	}
	return r.Book.MarkReconciled(ctx, txID)
}
