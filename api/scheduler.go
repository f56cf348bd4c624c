/*
scheduler.go - Automated month-end draft-pay scheduler

PURPOSE:
  Periodically checks whether the previous calendar month has closed
  without stored pay records and, if so, runs the draft-pay batch for
  it and persists the results.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - A month is due once 'now' is past its end
  - Skips months that already have stored records (idempotent)
  - One batch covers every worker with an active company contract

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - CompanyID: The company whose config prices the run
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewMonthEndScheduler(store, handler, "c-demo")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunDraftPay endpoint (manual runs)
  - pay/draft.go: The orchestrator this scheduler drives
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/pay-engine/pay"
	"github.com/warp/pay-engine/store/sqlite"
)

// MonthEndScheduler handles automated month-end pay runs.
type MonthEndScheduler struct {
	Store         *sqlite.Store
	Handler       *Handler
	CompanyID     string
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewMonthEndScheduler creates a new scheduler.
func NewMonthEndScheduler(store *sqlite.Store, handler *Handler, companyID string) *MonthEndScheduler {
	return &MonthEndScheduler{
		Store:         store,
		Handler:       handler,
		CompanyID:     companyID,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ms *MonthEndScheduler) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ms.ticker = time.NewTicker(ms.CheckInterval)
	ms.wg.Add(1)

	go ms.run()

	log.Printf("[Scheduler] Started with check interval: %v", ms.CheckInterval)
}

// Stop stops the scheduler.
func (ms *MonthEndScheduler) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.ticker != nil {
		ms.ticker.Stop()
		close(ms.stop)
		ms.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ms *MonthEndScheduler) run() {
	defer ms.wg.Done()

	// Run immediately on start
	ms.checkAndProcess()

	for {
		select {
		case <-ms.ticker.C:
			ms.checkAndProcess()
		case <-ms.stop:
			return
		}
	}
}

// checkAndProcess runs the batch for the previous month if it is closed
// and has no stored records yet.
func (ms *MonthEndScheduler) checkAndProcess() {
	ctx := context.Background()
	now := time.Now()

	month := pay.PreviousMonthOf(now)
	monthKey := pay.MonthKey(month.Start)

	log.Printf("[Scheduler] Checking month %s at %v", monthKey, now)

	existing, err := ms.Store.PayRecordsForMonth(ctx, monthKey)
	if err != nil {
		log.Printf("[Scheduler] Error checking stored records: %v", err)
		return
	}
	if len(existing) > 0 {
		log.Printf("[Scheduler] Month %s already has %d records, skipping", monthKey, len(existing))
		return
	}

	if err := ms.processMonth(ctx, month, monthKey); err != nil {
		log.Printf("[Scheduler] Error processing month %s: %v", monthKey, err)
	}
}

func (ms *MonthEndScheduler) processMonth(ctx context.Context, month pay.DateRange, monthKey string) error {
	company, err := ms.Store.GetCompany(ctx, ms.CompanyID)
	if err != nil {
		if pay.IsNotFound(err) {
			log.Printf("[Scheduler] Company %s not configured yet, skipping", ms.CompanyID)
			return nil
		}
		return err
	}

	workers, err := ms.Store.ListWorkers(ctx)
	if err != nil {
		return err
	}
	if len(workers) == 0 {
		log.Printf("[Scheduler] No workers, nothing to process for %s", monthKey)
		return nil
	}

	orchestrator, err := ms.Handler.newOrchestrator(ctx)
	if err != nil {
		return err
	}

	records, err := orchestrator.ComputeDraftPay(ctx, month, workers, *company)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := ms.Store.SavePayRecord(ctx, record); err != nil {
			return err
		}
	}

	log.Printf("[Scheduler] Month %s completed: %d records stored", monthKey, len(records))
	return nil
}

// RunNow triggers an immediate check (for testing/admin).
func (ms *MonthEndScheduler) RunNow() {
	ms.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ms *MonthEndScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ms.CheckInterval)
}
