/*
draft.go - The draft-pay batch orchestrator

PURPOSE:
  For a batch of workers and a date range, resolves each worker's
  active company contract, aggregates the period, computes the
  month-over-month diff, and assembles one PayRecord per eligible
  worker.

PER-WORKER STATES:
  NoActiveContract -> excluded (silently)
  ActiveContract -> Aggregated -> DiffComputed -> Assembled

BATCH SEMANTICS:
  Workers are independent and processed with bounded parallelism. The
  only shared state is the per-run distance cache, which is write-once
  per key. A worker that fails mid-computation does not appear in the
  output; a caller contract violation fails the whole batch.

SEE ALSO:
  - aggregate.go: Step (b)
  - diff.go: Step (c)
  - sources.go: The read-only collaborators this orchestrator consumes
*/
package pay

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// PAY RECORD - The assembled per-worker result
// =============================================================================

// PayRecord is one worker's provisional payroll for one period.
type PayRecord struct {
	WorkerID  string
	Month     string
	StartDate time.Time
	EndDate   time.Time

	ContractHours Amount
	WorkedHours   Amount
	InternalHours Amount

	NotSurchargedAndNotExempt Amount
	SurchargedAndNotExempt    Amount
	NotSurchargedAndExempt    Amount
	SurchargedAndExempt       Amount

	SurchargedAndNotExemptDetails SurchargeDetails
	SurchargedAndExemptDetails    SurchargeDetails

	PaidKm             Amount
	PaidTransportHours Amount

	HolidaysHours Amount
	AbsencesHours Amount
	HoursToWork   Amount
	HoursBalance  Amount

	// HoursCounter is cumulative across periods:
	// previousCounter + previousDiff.hoursBalance + currentBalance.
	HoursCounter              Amount
	PreviousMonthHoursCounter Amount

	Transport Amount
	OtherFees Amount

	Diff PayDiff
}

// =============================================================================
// DIFF RESULT
// =============================================================================

// DiffResult bundles the diff with its hours-counter contribution.
type DiffResult struct {
	Diff PayDiff

	// HoursCounter is previousCounter + diff.hoursBalance, or zero
	// when the diff was skipped (unclosed month).
	HoursCounter Amount

	// PreviousCounter is the stored prior record's counter (zero when
	// there is none or the diff was skipped).
	PreviousCounter Amount
}

// NeutralDiffResult is returned for queries ending in an unclosed month.
func NeutralDiffResult() DiffResult {
	return DiffResult{Diff: NeutralDiff(), HoursCounter: ZeroHours(), PreviousCounter: ZeroHours()}
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

const defaultMaxConcurrency = 8

// Orchestrator runs draft-pay batches.
type Orchestrator struct {
	Source   EventSource
	Pay      PayStore
	Lookup   DistanceLookup
	Calendar Calendar

	Services map[string]Service
	Plans    map[PlanID]*SurchargePlan

	// MaxConcurrency bounds the worker pool (default 8).
	MaxConcurrency int

	// Now is injectable for deterministic closed-month tests.
	Now func() time.Time
}

// ComputeDraftPay computes one PayRecord per eligible worker. Workers
// without an active company contract at the range end are omitted, not
// errored. The result preserves the input worker order.
func (o *Orchestrator) ComputeDraftPay(ctx context.Context, query DateRange, workers []Worker, company Company) ([]*PayRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	// One distance cache per run, shared by all workers, discarded
	// with the run.
	cache := NewRunCache(o.Lookup)
	splitter := &HourSplitter{
		Resolver:  &Resolver{Calendar: o.Calendar},
		Transport: &TransportCalculator{Lookup: cache},
		Services:  o.Services,
		Plans:     o.Plans,
	}
	aggregator := &Aggregator{Splitter: splitter, Calendar: o.Calendar}

	workerIDs := make([]string, len(workers))
	for i, w := range workers {
		workerIDs[i] = w.ID
	}

	current, err := o.Source.EventsToPay(ctx, query, workerIDs)
	if err != nil {
		return nil, err
	}
	currentByWorker := indexByWorker(current)

	priorMonth := PreviousMonthOf(query.Start)
	prior, err := o.Source.EventsToPay(ctx, priorMonth, workerIDs)
	if err != nil {
		return nil, err
	}
	priorByWorker := indexByWorker(prior)

	concurrency := o.MaxConcurrency
	if concurrency <= 0 {
		concurrency = defaultMaxConcurrency
	}

	records := make([]*PayRecord, len(workers))
	errs := make([]error, len(workers))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			records[i], errs[i] = o.computeWorker(
				ctx, aggregator, workers[i], company, query, priorMonth,
				currentByWorker[workers[i].ID], priorByWorker[workers[i].ID])
		}(i)
	}
	wg.Wait()

	// A single failing worker indicates a caller data-contract
	// violation; surface it as one batch-level failure.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := make([]*PayRecord, 0, len(workers))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// computeWorker runs one worker through the per-worker state machine.
// A nil record with nil error means the worker was excluded.
func (o *Orchestrator) computeWorker(ctx context.Context, aggregator *Aggregator, worker Worker, company Company, query DateRange, priorMonth DateRange, currentEvents, priorEvents *WorkerEvents) (*PayRecord, error) {
	contract := ActiveCompanyContract(worker.Contracts, query.End)
	if contract == nil {
		return nil, nil
	}

	current := currentEvents
	if current == nil {
		current = &WorkerEvents{Worker: worker}
	}
	current.Worker = worker

	totals, err := aggregator.Aggregate(ctx, *current, company, query)
	if err != nil {
		return nil, err
	}

	diffResult, err := o.computeDiff(ctx, aggregator, worker, company, query, priorMonth, priorEvents)
	if err != nil {
		return nil, err
	}

	startDate := query.Start
	if contract.StartDate.After(startDate) {
		startDate = contract.StartDate
	}

	return &PayRecord{
		WorkerID:  worker.ID,
		Month:     MonthKey(query.Start),
		StartDate: startDate,
		EndDate:   query.End,

		ContractHours: totals.ContractHours,
		WorkedHours:   totals.WorkedHours,
		InternalHours: totals.InternalHours,

		NotSurchargedAndNotExempt: totals.NotSurchargedAndNotExempt,
		SurchargedAndNotExempt:    totals.SurchargedAndNotExempt,
		NotSurchargedAndExempt:    totals.NotSurchargedAndExempt,
		SurchargedAndExempt:       totals.SurchargedAndExempt,

		SurchargedAndNotExemptDetails: totals.SurchargedAndNotExemptDetails.Clone(),
		SurchargedAndExemptDetails:    totals.SurchargedAndExemptDetails.Clone(),

		PaidKm:             totals.PaidKm,
		PaidTransportHours: totals.PaidTransportHours,

		HolidaysHours: totals.HolidaysHours,
		AbsencesHours: totals.AbsencesHours,
		HoursToWork:   totals.HoursToWork,
		HoursBalance:  totals.HoursBalance,

		HoursCounter:              diffResult.HoursCounter.Add(totals.HoursBalance).Round(),
		PreviousMonthHoursCounter: diffResult.PreviousCounter,

		Transport: totals.Transport,
		OtherFees: totals.OtherFees,

		Diff: diffResult.Diff,
	}, nil
}

// computeDiff re-aggregates the prior calendar month and diffs it
// against the stored prior pay record. Queries ending in an unclosed
// month get the neutral result regardless of prior data.
func (o *Orchestrator) computeDiff(ctx context.Context, aggregator *Aggregator, worker Worker, company Company, query DateRange, priorMonth DateRange, priorEvents *WorkerEvents) (DiffResult, error) {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	if !query.End.Before(StartOfMonth(now())) {
		return NeutralDiffResult(), nil
	}

	prior := priorEvents
	if prior == nil {
		prior = &WorkerEvents{Worker: worker}
	}
	prior.Worker = worker

	totals, err := aggregator.Aggregate(ctx, *prior, company, priorMonth)
	if err != nil {
		return DiffResult{}, err
	}

	prevRecord, err := o.Pay.PreviousPayRecord(ctx, worker.ID, priorMonth.Start)
	if err != nil {
		return DiffResult{}, err
	}

	diff := Diff(totals, prevRecord)

	result := DiffResult{Diff: diff, PreviousCounter: ZeroHours()}
	if prevRecord != nil {
		result.PreviousCounter = prevRecord.HoursCounter
	}
	result.HoursCounter = result.PreviousCounter.Add(diff.HoursBalance)
	return result, nil
}

func indexByWorker(events []WorkerEvents) map[string]*WorkerEvents {
	byWorker := make(map[string]*WorkerEvents, len(events))
	for i := range events {
		byWorker[events[i].Worker.ID] = &events[i]
	}
	return byWorker
}
