/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Honor X-Forwarded-For behind a proxy
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/accounts/*      Chart of accounts and per-account journals
  /api/transactions/*  Ledger listing and manual transfers
  /api/reconcile/*     Settlement workflows
  /api/shift/*         Shift lifecycle
  /api/staff/*         Roster, payroll, loans, holidays
  /api/expenses/*      Expense logging
  /api/vendors, /api/categories, /api/partners, /api/templates,
  /api/recurring       Bookkeeping reference data

SECURITY NOTE:
  No authentication middleware. The server is meant to sit on a private
  network behind the restaurant's own reverse proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Ledger routes
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Get("/{id}", h.GetAccount)
			r.Get("/{id}/journal", h.GetJournal)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransfer)
		})

		r.Get("/summary", h.GetSummary)
		r.Get("/audit", h.RunAudit)

		// Reconciliation routes
		r.Route("/reconcile", func(r chi.Router) {
			r.Post("/order", h.SettleOrder)
			r.Post("/cards", h.SettleCards)
			r.Post("/credit-bills", h.SettleCreditBills)
			r.Post("/vendor-bill", h.SettleVendorBill)
		})

		// Shift routes
		r.Route("/shift", func(r chi.Router) {
			r.Get("/current", h.GetCurrentShift)
			r.Get("/logs", h.ListShiftLogs)
			r.Post("/open", h.OpenDay)
			r.Post("/close", h.CloseDay)
			r.Post("/top-up", h.TopUpFloat)
		})

		// Staff routes
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Get("/holidays", h.ListHolidays)
			r.Put("/{id}", h.UpdateStaff)
			r.Post("/{id}/loan", h.IssueLoan)
			r.Post("/{id}/advance", h.IssueAdvance)
			r.Post("/{id}/payroll", h.CommitPayroll)
			r.Put("/{id}/installment", h.SetInstallment)
			r.Post("/{id}/holidays", h.ToggleHoliday)
		})

		// Expense routes
		r.Post("/expenses", h.CreateExpense)

		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", h.ListVendors)
			r.Post("/", h.CreateVendor)
			r.Delete("/{id}", h.DeleteVendor)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Delete("/{id}", h.DeleteCategory)
			r.Post("/{id}/subcategories", h.CreateSubCategory)
			r.Delete("/{id}/subcategories/{name}", h.DeleteSubCategory)
		})

		r.Route("/partners", func(r chi.Router) {
			r.Get("/", h.ListPartners)
			r.Post("/", h.CreatePartner)
			r.Delete("/{name}", h.DeletePartner)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Delete("/{id}", h.DeleteTemplate)
			r.Post("/{id}/apply", h.ApplyTemplate)
		})

		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", h.ListRecurring)
			r.Post("/", h.CreateRecurring)
			r.Post("/run", h.RunDueRecurring)
			r.Post("/{id}/toggle", h.ToggleRecurring)
			r.Delete("/{id}", h.DeleteRecurring)
		})

		// Demo data loaders. Development and demo environments only.
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
