package pay_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/pay-engine/pay"
)

// =============================================================================
// TEST HELPERS
// =============================================================================
// Note: eventAt, at, hours, approxEqual are in surcharge_test.go,
// fakeLookup and intervention in transport_test.go

func juneQuery() pay.DateRange {
	return pay.DateRange{
		Start: at(2025, time.June, 1, 0, 0),
		End:   time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC),
	}
}

func contractWorker(weeklyHours float64) pay.Worker {
	return pay.Worker{
		ID: "w-1",
		Contracts: []pay.ContractVersion{{
			StartDate:   at(2025, time.January, 1, 0, 0),
			WeeklyHours: weeklyHours,
			Status:      pay.ContractCompany,
		}},
	}
}

func newAggregator(cal pay.Calendar, lookup pay.DistanceLookup, services map[string]pay.Service, plans map[pay.PlanID]*pay.SurchargePlan) *pay.Aggregator {
	return &pay.Aggregator{
		Splitter: &pay.HourSplitter{
			Resolver:  &pay.Resolver{Calendar: cal},
			Transport: &pay.TransportCalculator{Lookup: lookup},
			Services:  services,
			Plans:     plans,
		},
		Calendar: cal,
	}
}

// =============================================================================
// CONTRACT HOURS / HOURS TO WORK
// =============================================================================

func TestAggregate_ContractHours_FullMonth(t *testing.T) {
	// GIVEN: A 24h/week contract open across all of June 2025
	// WHEN: Aggregating the full month with no events
	// THEN: Contract hours are 24 * 4.33, balance is the negated debt

	agg := newAggregator(emptyCalendar(), newFakeLookup(), nil, nil)
	in := pay.WorkerEvents{Worker: contractWorker(24)}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.ContractHours, hours(24*4.33)) {
		t.Errorf("expected %.2f contract hours, got %v", 24*4.33, totals.ContractHours.Value)
	}
	if !approxEqual(totals.HoursToWork, hours(24*4.33)) {
		t.Errorf("expected hoursToWork = contract hours, got %v", totals.HoursToWork.Value)
	}
	if !approxEqual(totals.HoursBalance, hours(-24*4.33)) {
		t.Errorf("expected negative balance, got %v", totals.HoursBalance.Value)
	}
}

func TestAggregate_Holiday_ReducesHoursToWork(t *testing.T) {
	// GIVEN: A public holiday on Monday June 9
	// WHEN: Aggregating June for a 24h/week contract
	// THEN: Holiday hours are weeklyHours/6 and reduce hoursToWork

	cal := pay.NewFixedCalendar(at(2025, time.June, 9, 0, 0))
	agg := newAggregator(cal, newFakeLookup(), nil, nil)
	in := pay.WorkerEvents{Worker: contractWorker(24)}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.HolidaysHours, hours(4)) {
		t.Errorf("expected 4 holiday hours, got %v", totals.HolidaysHours.Value)
	}
	want := totals.ContractHours.Sub(hours(4))
	if !approxEqual(totals.HoursToWork, want) {
		t.Errorf("expected hoursToWork %v, got %v", want.Value, totals.HoursToWork.Value)
	}
}

func TestAggregate_HoursToWork_ClampedAtZero(t *testing.T) {
	// GIVEN: A 6h/week contract and a 30h hourly absence
	// WHEN: Absences exceed contractual hours
	// THEN: hoursToWork floors at zero instead of going negative

	agg := newAggregator(emptyCalendar(), newFakeLookup(), nil, nil)
	in := pay.WorkerEvents{
		Worker: contractWorker(6),
		Absences: []pay.ScheduledEvent{{
			Type:          pay.EventAbsence,
			AbsenceNature: pay.AbsenceHourly,
			Start:         at(2025, time.June, 2, 0, 0),
			End:           at(2025, time.June, 3, 6, 0),
		}},
	}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.AbsencesHours, hours(30)) {
		t.Errorf("expected 30 absence hours, got %v", totals.AbsencesHours.Value)
	}
	if !totals.HoursToWork.IsZero() {
		t.Errorf("expected clamped hoursToWork, got %v", totals.HoursToWork.Value)
	}
}

func TestAggregate_InvalidRange_Error(t *testing.T) {
	agg := newAggregator(emptyCalendar(), newFakeLookup(), nil, nil)
	bad := pay.DateRange{Start: at(2025, time.June, 30, 0, 0), End: at(2025, time.June, 1, 0, 0)}

	_, err := agg.Aggregate(context.Background(), pay.WorkerEvents{Worker: contractWorker(24)}, pay.Company{}, bad)
	if !pay.IsClientError(err) {
		t.Fatalf("expected client error, got %v", err)
	}
}

// =============================================================================
// ABSENCES
// =============================================================================

func TestAggregate_DailyAbsence_BusinessDaysTimesDailyRate(t *testing.T) {
	// GIVEN: A daily absence spanning Monday-Wednesday, 24h/week contract
	// WHEN: Aggregating June
	// THEN: 3 business days at 24/6 = 4h each make 12 absence hours

	agg := newAggregator(emptyCalendar(), newFakeLookup(), nil, nil)
	in := pay.WorkerEvents{
		Worker: contractWorker(24),
		Absences: []pay.ScheduledEvent{{
			Type:          pay.EventAbsence,
			AbsenceNature: pay.AbsenceDaily,
			Start:         at(2025, time.June, 2, 0, 0),
			End:           time.Date(2025, time.June, 4, 23, 59, 0, 0, time.UTC),
		}},
	}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.AbsencesHours, hours(12)) {
		t.Errorf("expected 12 absence hours, got %v", totals.AbsencesHours.Value)
	}
}

func TestAggregate_DailyAbsence_SkipsSundaysAndHolidays(t *testing.T) {
	// GIVEN: A daily absence spanning Sat June 7 - Mon June 9, with
	//        June 9 a public holiday
	// WHEN: Aggregating June
	// THEN: Only Saturday counts (Sunday and the holiday are skipped)

	cal := pay.NewFixedCalendar(at(2025, time.June, 9, 0, 0))
	agg := newAggregator(cal, newFakeLookup(), nil, nil)
	in := pay.WorkerEvents{
		Worker: contractWorker(24),
		Absences: []pay.ScheduledEvent{{
			Type:          pay.EventAbsence,
			AbsenceNature: pay.AbsenceDaily,
			Start:         at(2025, time.June, 7, 0, 0),
			End:           time.Date(2025, time.June, 9, 23, 59, 0, 0, time.UTC),
		}},
	}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.AbsencesHours, hours(4)) {
		t.Errorf("expected 4 absence hours, got %v", totals.AbsencesHours.Value)
	}
}

func TestAggregate_HourlyAbsence_LiteralDuration(t *testing.T) {
	agg := newAggregator(emptyCalendar(), newFakeLookup(), nil, nil)
	in := pay.WorkerEvents{
		Worker: contractWorker(24),
		Absences: []pay.ScheduledEvent{{
			Type:          pay.EventAbsence,
			AbsenceNature: pay.AbsenceHourly,
			Start:         at(2025, time.June, 3, 10, 0),
			End:           at(2025, time.June, 3, 13, 30),
		}},
	}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.AbsencesHours, hours(3.5)) {
		t.Errorf("expected 3.5 absence hours, got %v", totals.AbsencesHours.Value)
	}
}

// =============================================================================
// BUCKETS AND DETAILS
// =============================================================================

func TestAggregate_Buckets_SumToWorkedHours(t *testing.T) {
	// GIVEN: A surcharged intervention, an exempt intervention and an
	//        internal hour across the month
	// WHEN: Aggregating
	// THEN: The four buckets partition workedHours exactly

	services := map[string]pay.Service{
		"svc-std":    {ID: "svc-std", Name: "Home care", SurchargePlanID: "plan-we"},
		"svc-exempt": {ID: "svc-exempt", Name: "Family help", ExemptFromCharges: true},
	}
	plans := map[pay.PlanID]*pay.SurchargePlan{
		"plan-we": {ID: "plan-we", Name: "Weekend", Sunday: 25},
	}
	agg := newAggregator(emptyCalendar(), newFakeLookup(), services, plans)

	sundayEvt := eventAt(at(2025, time.June, 8, 10, 0), at(2025, time.June, 8, 12, 0))
	sundayEvt.ServiceID = "svc-std"
	exemptEvt := eventAt(at(2025, time.June, 8, 14, 0), at(2025, time.June, 8, 16, 0))
	exemptEvt.ServiceID = "svc-exempt"
	internalEvt := pay.ScheduledEvent{
		Type:  pay.EventInternalHour,
		Start: at(2025, time.June, 9, 9, 0),
		End:   at(2025, time.June, 9, 10, 0),
	}

	in := pay.WorkerEvents{
		Worker:      contractWorker(24),
		EventsByDay: pay.GroupByDay([]pay.ScheduledEvent{sundayEvt, exemptEvt, internalEvt}),
	}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !approxEqual(totals.WorkedHours, hours(5)) {
		t.Errorf("expected 5 worked hours, got %v", totals.WorkedHours.Value)
	}
	if !approxEqual(totals.SurchargedAndNotExempt, hours(2)) {
		t.Errorf("expected 2h surcharged/not-exempt, got %v", totals.SurchargedAndNotExempt.Value)
	}
	if !approxEqual(totals.NotSurchargedAndExempt, hours(2)) {
		t.Errorf("expected 2h not-surcharged/exempt, got %v", totals.NotSurchargedAndExempt.Value)
	}
	if !approxEqual(totals.NotSurchargedAndNotExempt, hours(1)) {
		t.Errorf("expected 1h not-surcharged/not-exempt, got %v", totals.NotSurchargedAndNotExempt.Value)
	}
	if !approxEqual(totals.InternalHours, hours(1)) {
		t.Errorf("expected 1 internal hour, got %v", totals.InternalHours.Value)
	}

	sum := totals.SurchargedAndNotExempt.
		Add(totals.NotSurchargedAndNotExempt).
		Add(totals.SurchargedAndExempt).
		Add(totals.NotSurchargedAndExempt)
	if !approxEqual(sum, totals.WorkedHours) {
		t.Errorf("buckets %v do not sum to worked %v", sum.Value, totals.WorkedHours.Value)
	}

	plan, ok := totals.SurchargedAndNotExemptDetails["plan-we"]
	if !ok {
		t.Fatal("expected plan-we in details")
	}
	detail := plan.Kinds[pay.SurchargeSunday]
	if !approxEqual(detail.Hours, hours(2)) || detail.Percentage != 25 {
		t.Errorf("unexpected sunday detail: %+v", detail)
	}
}

// =============================================================================
// TRANSPORT WITHIN A DAY
// =============================================================================

func TestAggregate_TransportBetweenConsecutiveEvents(t *testing.T) {
	// GIVEN: Two interventions 20 minutes apart, driving lookup of 10min/5km
	// WHEN: Aggregating the day
	// THEN: The literal 20min gap is paid (inside tolerance) and counted
	//       both as transport and as worked time

	lookup := newFakeLookup()
	lookup.put("12 rue A", "34 rue B", pay.ModeDriving, 600, 5000)
	agg := newAggregator(emptyCalendar(), lookup, nil, nil)

	worker := contractWorker(24)
	worker.TransportType = pay.TransportPrivate

	e1 := intervention(at(2025, time.June, 10, 9, 0), at(2025, time.June, 10, 10, 0), "12 rue A")
	e2 := intervention(at(2025, time.June, 10, 10, 20), at(2025, time.June, 10, 11, 0), "34 rue B")

	in := pay.WorkerEvents{Worker: worker, EventsByDay: pay.GroupByDay([]pay.ScheduledEvent{e1, e2})}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.PaidTransportHours, pay.HoursFromMinutes(20)) {
		t.Errorf("expected 20min paid transport, got %v", totals.PaidTransportHours.Value)
	}
	if !approxEqual(totals.PaidKm, pay.NewAmount(5, pay.UnitKilometers)) {
		t.Errorf("expected 5 paid km, got %v", totals.PaidKm.Value)
	}
	// 60min + 40min + 20min transport
	if !approxEqual(totals.WorkedHours, hours(2)) {
		t.Errorf("expected 2 worked hours, got %v", totals.WorkedHours.Value)
	}
}

func TestAggregate_FixedServiceEvent_SkippedButAnchorsChain(t *testing.T) {
	// GIVEN: A fixed-service event between two regular interventions
	// WHEN: Aggregating the day
	// THEN: It contributes no hours, and the following event's transport
	//       is measured against it (yielding zero), not against the
	//       event before it

	lookup := newFakeLookup()
	lookup.put("12 rue A", "56 rue C", pay.ModeDriving, 1200, 9000)
	agg := newAggregator(emptyCalendar(), lookup, nil, nil)

	worker := contractWorker(24)
	worker.TransportType = pay.TransportPrivate

	e1 := intervention(at(2025, time.June, 10, 9, 0), at(2025, time.June, 10, 10, 0), "12 rue A")
	fixed := intervention(at(2025, time.June, 10, 10, 0), at(2025, time.June, 10, 11, 0), "34 rue B")
	fixed.HasFixedService = true
	e3 := intervention(at(2025, time.June, 10, 11, 30), at(2025, time.June, 10, 12, 0), "56 rue C")

	in := pay.WorkerEvents{Worker: worker, EventsByDay: pay.GroupByDay([]pay.ScheduledEvent{e1, fixed, e3})}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// e1 (1h) + e3 (30min); the fixed event's hour never lands anywhere.
	if !approxEqual(totals.WorkedHours, hours(1.5)) {
		t.Errorf("expected 1.5 worked hours, got %v", totals.WorkedHours.Value)
	}
	if !totals.PaidTransportHours.IsZero() {
		t.Errorf("expected zero transport against a fixed-service prev, got %v", totals.PaidTransportHours.Value)
	}
}

// =============================================================================
// TRANSPORT REFUND AND FEES
// =============================================================================

func TestAggregate_TransitRefund_ProratedByWorkedDays(t *testing.T) {
	// GIVEN: A public-transport worker with zip, invoice and a matching
	//        department subsidy, working one day of June's 25 business days
	// WHEN: Aggregating
	// THEN: The refund is price * 0.5 * 1/25

	agg := newAggregator(emptyCalendar(), newFakeLookup(), nil, nil)
	worker := contractWorker(24)
	worker.TransportType = pay.TransportPublic
	worker.ZipCode = "75011"
	worker.TransportInvoiceLink = "uploads/invoice-123.pdf"

	company := pay.Company{
		TransportSubs: []pay.TransportSubsidy{{Department: "75", Price: 84}},
	}

	evt := intervention(at(2025, time.June, 3, 9, 0), at(2025, time.June, 3, 11, 0), "")
	in := pay.WorkerEvents{Worker: worker, EventsByDay: pay.GroupByDay([]pay.ScheduledEvent{evt})}

	totals, err := agg.Aggregate(context.Background(), in, company, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := pay.NewAmount(84*0.5/25, pay.UnitEuros)
	if !approxEqual(totals.Transport, want) {
		t.Errorf("expected refund %v, got %v", want.Value, totals.Transport.Value)
	}
}

func TestAggregate_TransitRefund_MissingInvoice_Zero(t *testing.T) {
	agg := newAggregator(emptyCalendar(), newFakeLookup(), nil, nil)
	worker := contractWorker(24)
	worker.TransportType = pay.TransportPublic
	worker.ZipCode = "75011"
	// No invoice link uploaded.

	company := pay.Company{TransportSubs: []pay.TransportSubsidy{{Department: "75", Price: 84}}}
	evt := intervention(at(2025, time.June, 3, 9, 0), at(2025, time.June, 3, 11, 0), "")
	in := pay.WorkerEvents{Worker: worker, EventsByDay: pay.GroupByDay([]pay.ScheduledEvent{evt})}

	totals, err := agg.Aggregate(context.Background(), in, company, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Transport.IsZero() {
		t.Errorf("expected zero refund, got %v", totals.Transport.Value)
	}
}

func TestAggregate_PrivateRefund_KmTimesRate(t *testing.T) {
	// GIVEN: A private-vehicle worker with 5 paid km and a 0.35/km rate
	// WHEN: Aggregating
	// THEN: The refund is 1.75 euros

	lookup := newFakeLookup()
	lookup.put("12 rue A", "34 rue B", pay.ModeDriving, 600, 5000)
	agg := newAggregator(emptyCalendar(), lookup, nil, nil)

	worker := contractWorker(24)
	worker.TransportType = pay.TransportPrivate

	e1 := intervention(at(2025, time.June, 10, 9, 0), at(2025, time.June, 10, 10, 0), "12 rue A")
	e2 := intervention(at(2025, time.June, 10, 10, 20), at(2025, time.June, 10, 11, 0), "34 rue B")
	in := pay.WorkerEvents{Worker: worker, EventsByDay: pay.GroupByDay([]pay.ScheduledEvent{e1, e2})}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{AmountPerKm: 0.35}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.Transport, pay.NewAmount(1.75, pay.UnitEuros)) {
		t.Errorf("expected 1.75 euros, got %v", totals.Transport.Value)
	}
}

func TestAggregate_PhoneFee_AlwaysApplied(t *testing.T) {
	agg := newAggregator(emptyCalendar(), newFakeLookup(), nil, nil)
	in := pay.WorkerEvents{Worker: contractWorker(24)}

	totals, err := agg.Aggregate(context.Background(), in, pay.Company{PhoneFeeAmount: 20}, juneQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(totals.OtherFees, pay.NewAmount(20, pay.UnitEuros)) {
		t.Errorf("expected 20 euros other fees, got %v", totals.OtherFees.Value)
	}
}
