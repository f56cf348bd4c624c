package pay_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/pay-engine/pay"
	"github.com/warp/pay-engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func julyQuery() pay.DateRange {
	return pay.DateRange{
		Start: at(2025, time.July, 1, 0, 0),
		End:   time.Date(2025, time.July, 31, 23, 59, 59, 0, time.UTC),
	}
}

func newOrchestrator(mem *store.Memory, now time.Time) *pay.Orchestrator {
	return &pay.Orchestrator{
		Source:   mem,
		Pay:      mem,
		Lookup:   mem,
		Calendar: emptyCalendar(),
		Now:      func() time.Time { return now },
	}
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

func TestDraftPay_NoCompanyContract_WorkerExcluded(t *testing.T) {
	// GIVEN: Three workers; the middle one only has a customer contract
	// WHEN: Running a draft-pay batch
	// THEN: Two records come back, preserving worker order

	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.July, 15, 0, 0))

	w1 := contractWorker(24)
	w1.ID = "w-1"
	w2 := pay.Worker{
		ID: "w-2",
		Contracts: []pay.ContractVersion{{
			StartDate:   at(2025, time.January, 1, 0, 0),
			WeeklyHours: 24,
			Status:      pay.ContractCustomer,
		}},
	}
	w3 := contractWorker(24)
	w3.ID = "w-3"

	records, err := o.ComputeDraftPay(context.Background(), julyQuery(), []pay.Worker{w1, w2, w3}, pay.Company{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].WorkerID != "w-1" || records[1].WorkerID != "w-3" {
		t.Errorf("expected order w-1, w-3, got %s, %s", records[0].WorkerID, records[1].WorkerID)
	}
}

func TestDraftPay_ContractEndedBeforeRangeEnd_Excluded(t *testing.T) {
	// GIVEN: A company contract that ended mid-July
	// WHEN: Running the July batch
	// THEN: The worker is excluded, not errored

	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.July, 15, 0, 0))

	end := at(2025, time.July, 10, 0, 0)
	worker := pay.Worker{
		ID: "w-1",
		Contracts: []pay.ContractVersion{{
			StartDate:   at(2025, time.January, 1, 0, 0),
			EndDate:     &end,
			WeeklyHours: 24,
			Status:      pay.ContractCompany,
		}},
	}

	records, err := o.ComputeDraftPay(context.Background(), julyQuery(), []pay.Worker{worker}, pay.Company{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestDraftPay_NoEvents_StillProducesRecord(t *testing.T) {
	// GIVEN: An active contract but an empty July schedule
	// WHEN: Running the batch
	// THEN: A record with contract hours and a negative balance comes back

	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.July, 15, 0, 0))
	worker := contractWorker(24)

	records, err := o.ComputeDraftPay(context.Background(), julyQuery(), []pay.Worker{worker}, pay.Company{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Month != "2025-07" {
		t.Errorf("expected month 2025-07, got %s", r.Month)
	}
	if !approxEqual(r.ContractHours, hours(24*4.33)) {
		t.Errorf("expected %.2f contract hours, got %v", 24*4.33, r.ContractHours.Value)
	}
	if !r.HoursBalance.IsNegative() {
		t.Errorf("expected negative balance, got %v", r.HoursBalance.Value)
	}
}

func TestDraftPay_StartDate_ClampedToContractStart(t *testing.T) {
	// GIVEN: A contract starting July 10
	// WHEN: Running the July batch
	// THEN: The record's start date is the contract start, not July 1

	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.July, 15, 0, 0))
	worker := pay.Worker{
		ID: "w-1",
		Contracts: []pay.ContractVersion{{
			StartDate:   at(2025, time.July, 10, 0, 0),
			WeeklyHours: 24,
			Status:      pay.ContractCompany,
		}},
	}

	records, err := o.ComputeDraftPay(context.Background(), julyQuery(), []pay.Worker{worker}, pay.Company{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].StartDate.Equal(at(2025, time.July, 10, 0, 0)) {
		t.Errorf("expected start date July 10, got %v", records[0].StartDate)
	}
}

// =============================================================================
// DIFF INTEGRATION
// =============================================================================

func TestDraftPay_UnclosedMonth_NeutralDiff(t *testing.T) {
	// GIVEN: A July query evaluated while July is still running
	// WHEN: Running the batch
	// THEN: The diff is neutral and the counter carries only the
	//       current balance

	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.July, 15, 0, 0))
	worker := contractWorker(24)
	mem.PutWorker(worker)
	mem.PutEvents(pay.ScheduledEvent{
		ID: "e-1", Type: pay.EventIntervention, WorkerID: worker.ID,
		Start: at(2025, time.July, 1, 9, 0), End: at(2025, time.July, 1, 19, 0),
	})

	records, err := o.ComputeDraftPay(context.Background(), julyQuery(), []pay.Worker{worker}, pay.Company{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := records[0]
	if !r.Diff.WorkedHours.IsZero() || !r.Diff.HoursBalance.IsZero() {
		t.Errorf("expected neutral diff, got %+v", r.Diff)
	}
	if !r.PreviousMonthHoursCounter.IsZero() {
		t.Errorf("expected zero previous counter, got %v", r.PreviousMonthHoursCounter.Value)
	}
	if !r.HoursCounter.Equal(r.HoursBalance.Round()) {
		t.Errorf("expected counter = balance, got %v vs %v", r.HoursCounter.Value, r.HoursBalance.Value)
	}
}

func TestDraftPay_ClosedMonth_DiffAgainstStoredRecord(t *testing.T) {
	// GIVEN: A closed July, a stored June record (8h worked, counter 10),
	//        and June events now summing to 10h
	// WHEN: Running the July batch in mid-August
	// THEN: The diff shows +2h and the counter chains
	//       prev(10) + diffBalance(2) + julyBalance

	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.August, 15, 0, 0))
	worker := contractWorker(24)
	mem.PutWorker(worker)

	// June as currently scheduled: one 10h intervention.
	mem.PutEvents(pay.ScheduledEvent{
		ID: "e-jun", Type: pay.EventIntervention, WorkerID: worker.ID,
		Start: at(2025, time.June, 3, 9, 0), End: at(2025, time.June, 3, 19, 0),
	})
	// July: one 10h intervention.
	mem.PutEvents(pay.ScheduledEvent{
		ID: "e-jul", Type: pay.EventIntervention, WorkerID: worker.ID,
		Start: at(2025, time.July, 1, 9, 0), End: at(2025, time.July, 1, 19, 0),
	})

	// The June record was computed before a 2h event edit.
	stored := &pay.PayRecord{
		WorkerID: worker.ID, Month: "2025-06",
		WorkedHours:               hours(8),
		InternalHours:             pay.ZeroHours(),
		NotSurchargedAndNotExempt: hours(8),
		SurchargedAndNotExempt:    pay.ZeroHours(),
		NotSurchargedAndExempt:    pay.ZeroHours(),
		SurchargedAndExempt:       pay.ZeroHours(),
		AbsencesHours:             pay.ZeroHours(),
		PaidKm:                    pay.ZeroKm(),
		PaidTransportHours:        pay.ZeroHours(),
		HoursCounter:              hours(10),
	}
	if err := mem.SavePayRecord(context.Background(), stored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := o.ComputeDraftPay(context.Background(), julyQuery(), []pay.Worker{worker}, pay.Company{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := records[0]

	if !approxEqual(r.Diff.WorkedHours, hours(2)) {
		t.Errorf("expected +2h worked diff, got %v", r.Diff.WorkedHours.Value)
	}
	if !approxEqual(r.Diff.HoursBalance, hours(2)) {
		t.Errorf("expected +2h balance diff, got %v", r.Diff.HoursBalance.Value)
	}
	if !approxEqual(r.PreviousMonthHoursCounter, hours(10)) {
		t.Errorf("expected previous counter 10, got %v", r.PreviousMonthHoursCounter.Value)
	}

	want := hours(12).Add(r.HoursBalance).Round()
	if !r.HoursCounter.Equal(want) {
		t.Errorf("expected counter %v, got %v", want.Value, r.HoursCounter.Value)
	}
}

func TestDraftPay_ClosedMonth_NoStoredRecord_DiffIsRecomputation(t *testing.T) {
	// GIVEN: A closed July with June events but no stored June record
	// WHEN: Running the batch
	// THEN: The diff carries June's full recomputed figures

	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.August, 15, 0, 0))
	worker := contractWorker(24)
	mem.PutWorker(worker)
	mem.PutEvents(pay.ScheduledEvent{
		ID: "e-jun", Type: pay.EventIntervention, WorkerID: worker.ID,
		Start: at(2025, time.June, 3, 9, 0), End: at(2025, time.June, 3, 19, 0),
	})

	records, err := o.ComputeDraftPay(context.Background(), julyQuery(), []pay.Worker{worker}, pay.Company{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := records[0]
	if !approxEqual(r.Diff.WorkedHours, hours(10)) {
		t.Errorf("expected 10h worked diff, got %v", r.Diff.WorkedHours.Value)
	}
	if !r.PreviousMonthHoursCounter.IsZero() {
		t.Errorf("expected zero previous counter, got %v", r.PreviousMonthHoursCounter.Value)
	}
}

// =============================================================================
// BATCH BEHAVIOUR
// =============================================================================

func TestDraftPay_InvalidRange_FailsBatch(t *testing.T) {
	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.July, 15, 0, 0))

	bad := pay.DateRange{Start: at(2025, time.July, 31, 0, 0), End: at(2025, time.July, 1, 0, 0)}
	_, err := o.ComputeDraftPay(context.Background(), bad, []pay.Worker{contractWorker(24)}, pay.Company{})
	if !pay.IsClientError(err) {
		t.Fatalf("expected client error, got %v", err)
	}
}

func TestDraftPay_ManyWorkers_BoundedPool(t *testing.T) {
	// GIVEN: More workers than the pool bound
	// WHEN: Running the batch with MaxConcurrency 2
	// THEN: Every eligible worker still gets a record, in order

	mem := store.NewMemory()
	o := newOrchestrator(mem, at(2025, time.July, 15, 0, 0))
	o.MaxConcurrency = 2

	var workers []pay.Worker
	for _, id := range []string{"w-1", "w-2", "w-3", "w-4", "w-5"} {
		w := contractWorker(24)
		w.ID = id
		workers = append(workers, w)
	}

	records, err := o.ComputeDraftPay(context.Background(), julyQuery(), workers, pay.Company{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	for i, r := range records {
		if r.WorkerID != workers[i].ID {
			t.Errorf("position %d: expected %s, got %s", i, workers[i].ID, r.WorkerID)
		}
	}
}
