/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that layer realistic data onto a fresh
	database for testing and demos. Each scenario walks the same paths the
	dashboard does: registries, shift lifecycle, transfers, staff events.

AVAILABLE SCENARIOS:

	opening-day:  registries seeded, one shift open, nothing to reconcile
	busy-day:     open shift with unsettled bar orders, card sales, and a
	              credit bill waiting in the reconciliation queue
	month-end:    outstanding loans and advances, installments set, a
	              recurring rent payment coming due

HOW SCENARIOS WORK:
 1. Seed vendors, categories, and credit partners
 2. Open a shift where the scenario needs one
 3. Record transfers and staff events through the normal services

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-day"}

NOTE:

	Scenarios assume a fresh database and do not reset existing data.
	Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ListScenarios, LoadScenario handlers
  - expense/expense.go: the registries each scenario seeds
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mozz/backoffice/expense"
	"github.com/mozz/backoffice/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "opening-day",
		Name:        "Opening Day",
		Description: "Registries seeded and a shift open with a clean drawer",
	},
	{
		ID:          "busy-day",
		Name:        "Busy Day",
		Description: "Open shift with bar orders, card sales, and a credit bill to settle",
	},
	{
		ID:          "month-end",
		Name:        "Month End",
		Description: "Outstanding staff loans, installments set, rent coming due",
	},
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario populates the database with one scenario's data.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "opening-day":
		err = h.loadOpeningDay(ctx)
	case "busy-day":
		err = h.loadBusyDay(ctx)
	case "month-end":
		err = h.loadMonthEnd(ctx)
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown scenario %q", req.ScenarioID), nil)
		return
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.log.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) seedRegistries(ctx context.Context) error {
	for _, name := range []string{"Keells", "Cargills", "Gas Depot"} {
		if _, err := h.Expenses.AddVendor(ctx, name); err != nil {
			return err
		}
	}
	categories := map[string][]string{
		"Food":      {"Meat", "Dairy", "Vegetables"},
		"Utilities": {"Gas", "Electricity"},
		"Transport": nil,
	}
	for name, subs := range categories {
		cat, err := h.Expenses.AddCategory(ctx, name)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if err := h.Expenses.AddSubCategory(ctx, cat.ID, sub); err != nil {
				return err
			}
		}
	}
	for _, partner := range []string{"Trek Lanka", "Hill Safari"} {
		if err := h.Expenses.AddPartner(ctx, partner); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadOpeningDay(ctx context.Context) error {
	if err := h.seedRegistries(ctx); err != nil {
		return err
	}
	_, err := h.Shifts.OpenDay(ctx, ledger.Money(500))
	return err
}

func (h *Handler) loadBusyDay(ctx context.Context) error {
	if err := h.loadOpeningDay(ctx); err != nil {
		return err
	}

	// Two bar orders and a card sale, all waiting in the queue. Revenue
	// entries post against equity, not the till; the till only moves for
	// cash.
	transfers := []struct {
		to     ledger.AccountID
		amount float64
		note   string
	}{
		{ledger.HikingBarRec, 85, "Bar order 112"},
		{ledger.HikingBarRec, 140, "Bar order 113"},
		{ledger.CardPayments, 230, "Card sale, table 4"},
	}
	for _, tr := range transfers {
		if _, err := h.Book.Transfer(ctx, ledger.OwnerEquity, tr.to,
			ledger.Money(tr.amount), tr.note); err != nil {
			return err
		}
	}

	// One credit bill for a partner who settles monthly.
	_, err := h.Book.Transfer(ctx, ledger.OwnerEquity, ledger.PendingBills,
		ledger.Money(120), "Trek Lanka group lunch",
		ledger.WithPurpose(ledger.CreditSale{Partner: "Trek Lanka"}))
	if err != nil {
		return err
	}

	// A cash expense during the shift.
	_, err = h.Expenses.Log(ctx, expense.Input{
		Amount:   ledger.Money(40),
		SourceID: ledger.TillFloat,
		Category: "Food",
		Note:     "Vegetables",
	})
	return err
}

func (h *Handler) loadMonthEnd(ctx context.Context) error {
	if err := h.seedRegistries(ctx); err != nil {
		return err
	}

	if err := h.Staff.IssueLoan(ctx, "s2", ledger.Money(300), ledger.Money(300),
		ledger.BusinessBank); err != nil {
		return err
	}
	if err := h.Staff.SetInstallment(ctx, "s2", ledger.Money(50)); err != nil {
		return err
	}
	if err := h.Staff.IssueAdvance(ctx, "s5", ledger.Money(75), ledger.TillFloat); err != nil {
		return err
	}

	_, err := h.Expenses.AddRecurring(ctx, expense.Recurring{
		Template: expense.Template{
			Name:     "Rent",
			Amount:   ledger.Money(900),
			Category: "Utilities",
			SourceID: ledger.BusinessBank,
		},
		Frequency: expense.Monthly,
		NextDue:   time.Now().AddDate(0, 0, 1),
	})
	return err
}
