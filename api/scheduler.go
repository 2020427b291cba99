/*
scheduler.go - Recurring payment scheduler

PURPOSE:
  Periodically fires recurring payments (rent, utilities, subscriptions)
  whose due date has passed, so the owner does not have to open the
  dashboard for the ledger to stay current.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Each tick delegates to the expense tracker's due-payment run,
    which advances due dates as it logs
  - Idempotent by construction: a payment already advanced past now
    is simply not due on the next tick

CONFIGURATION:
  - CheckInterval: how often to check (default: 1 hour)
  - Enabled: whether the scheduler is active (default: true)

USAGE:
  scheduler := api.NewPaymentScheduler(tracker, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - expense/expense.go: RunDue, the actual firing logic
  - handlers.go: RunDueRecurring, the manual trigger endpoint
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mozz/backoffice/expense"
)

// PaymentScheduler fires due recurring payments in the background.
type PaymentScheduler struct {
	Tracker       *expense.Tracker
	CheckInterval time.Duration
	Enabled       bool

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewPaymentScheduler(tracker *expense.Tracker, log *zap.Logger) *PaymentScheduler {
	return &PaymentScheduler{
		Tracker:       tracker,
		CheckInterval: time.Hour,
		Enabled:       true,
		log:           log,
		stop:          make(chan struct{}),
	}
}

// Start begins the background run. A disabled scheduler does nothing.
func (ps *PaymentScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.log.Info("payment scheduler disabled, not starting")
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)
	go ps.run()

	ps.log.Info("payment scheduler started",
		zap.Duration("check_interval", ps.CheckInterval))
}

// Stop halts the scheduler and waits for an in-flight run to finish.
func (ps *PaymentScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker == nil {
		return
	}
	ps.ticker.Stop()
	close(ps.stop)
	ps.wg.Wait()
	ps.ticker = nil

	ps.log.Info("payment scheduler stopped")
}

func (ps *PaymentScheduler) run() {
	defer ps.wg.Done()

	// Catch up immediately on startup rather than waiting a full interval.
	ps.runOnce()

	for {
		select {
		case <-ps.ticker.C:
			ps.runOnce()
		case <-ps.stop:
			return
		}
	}
}

func (ps *PaymentScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fired, err := ps.Tracker.RunDue(ctx, time.Now())
	if err != nil {
		ps.log.Error("recurring payment run failed", zap.Error(err))
		return
	}
	if fired > 0 {
		ps.log.Info("recurring payments fired", zap.Int("count", fired))
	}
}
