/*
aggregate.go - One worker's period aggregation

PURPOSE:
  Walks a worker's day-grouped events and absences for a pay period,
  folds hour contributions into PaidHoursTotals, and derives the
  contractual figures: absence hours, hours to work, hours balance and
  transport refund.

ORDERING INVARIANT:
  Within a day group, events are processed in non-decreasing start
  order (stable tie-break). This is a correctness requirement, not a
  performance choice: it decides which "previous event" paid transport
  is measured against.

DEGRADED INPUTS:
  Missing surcharge plans, subsidy config, addresses or transport modes
  zero out the affected sub-computation. Nothing here returns an error
  for absent configuration.

SEE ALSO:
  - split.go: Per-event contributions
  - contract.go: Contract month info
  - diff.go: Re-runs this aggregation over the prior month
*/
package pay

import (
	"context"

	"github.com/shopspring/decimal"
)

// PeriodTotals is the aggregator's full output for one worker/period.
type PeriodTotals struct {
	PaidHoursTotals

	ContractHours Amount
	HolidaysHours Amount
	AbsencesHours Amount
	HoursToWork   Amount
	HoursBalance  Amount

	Transport Amount
	OtherFees Amount
}

// Aggregator computes PeriodTotals for one worker and range.
type Aggregator struct {
	Splitter *HourSplitter
	Calendar Calendar
}

// Aggregate runs the full period aggregation.
func (a *Aggregator) Aggregate(ctx context.Context, in WorkerEvents, company Company, query DateRange) (*PeriodTotals, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	totals := NewPaidHoursTotals()
	workedDays := 0

	for _, day := range in.EventsByDay {
		events := make([]ScheduledEvent, len(day))
		copy(events, day)
		SortByStart(events)

		counted := false
		var prev *ScheduledEvent
		for i := range events {
			contribution, ok, err := a.Splitter.Contribution(ctx, in.Worker, prev, events[i], query)
			if err != nil {
				return nil, err
			}
			if !ok {
				// Fixed-service interventions still anchor the
				// transport chain for the next event.
				prev = &events[i]
				continue
			}
			totals.Apply(contribution)
			counted = true
			prev = &events[i]
		}
		if counted {
			workedDays++
		}
	}

	out := &PeriodTotals{PaidHoursTotals: *totals}

	out.AbsencesHours = a.absenceHours(in.Absences, in.Worker.Contracts, query)

	info := ContractMonthInfo(in.Worker.Contracts, query, a.Calendar)
	out.ContractHours = info.ContractHours
	out.HolidaysHours = info.HolidaysHours

	out.HoursToWork = out.ContractHours.
		Sub(out.HolidaysHours).
		Sub(out.AbsencesHours).
		ClampAtZero()
	out.HoursBalance = out.WorkedHours.Sub(out.HoursToWork)

	out.Transport = a.transportRefund(in.Worker, company, out, query, workedDays)
	out.OtherFees = NewAmount(company.PhoneFeeAmount, UnitEuros)

	return out, nil
}

// =============================================================================
// ABSENCE HOURS
// =============================================================================

// absenceHours sums a period's absences. Hourly absences count their
// literal clamped duration; daily absences count weeklyHours/6 per
// business day in the overlap of absence, query range, and contract.
func (a *Aggregator) absenceHours(absences []ScheduledEvent, versions []ContractVersion, query DateRange) Amount {
	total := ZeroHours()

	for _, absence := range absences {
		clamped := absence.ClampTo(query)

		if absence.AbsenceNature == AbsenceHourly {
			total = total.Add(HoursFromMinutes(clamped.DurationMinutes()))
			continue
		}

		for d := dayOf(clamped.Start); !d.After(clamped.End); d = d.AddDate(0, 0, 1) {
			if !a.Calendar.IsBusinessDay(d) {
				continue
			}
			version := MatchingVersion(versions, d)
			if version == nil || !version.Covers(d) {
				continue
			}
			total = total.Add(NewAmount(version.WeeklyHours/6, UnitHours))
		}
	}
	return total
}

// =============================================================================
// TRANSPORT REFUND
// =============================================================================

// transportRefund computes the monthly transport fee refund.
// Public transit: half the department subsidy, prorated by the share
// of business days actually worked; requires the company subsidy
// config, the worker's zip code and an uploaded transit invoice.
// Private vehicle: paid kilometres at the company's per-km rate.
// Anything missing degrades to zero.
func (a *Aggregator) transportRefund(worker Worker, company Company, totals *PeriodTotals, query DateRange, workedDays int) Amount {
	switch worker.TransportType {
	case TransportPublic:
		if worker.ZipCode == "" || worker.TransportInvoiceLink == "" {
			return ZeroEuros()
		}
		subsidy := company.SubsidyFor(worker.Department())
		if subsidy == nil {
			return ZeroEuros()
		}
		business := BusinessDaysIn(a.Calendar, query.Start, query.End)
		if business == 0 {
			return ZeroEuros()
		}
		ratio := float64(workedDays) / float64(business)
		if ratio > 1 {
			ratio = 1
		}
		return NewAmount(subsidy.Price*0.5*ratio, UnitEuros)

	case TransportPrivate:
		if company.AmountPerKm <= 0 {
			return ZeroEuros()
		}
		return Amount{
			Value: totals.PaidKm.Value.Mul(decimal.NewFromFloat(company.AmountPerKm)),
			Unit:  UnitEuros,
		}

	default:
		return ZeroEuros()
	}
}

// WorkedDaysIn counts the distinct days of a range carrying at least
// one countable event. Exposed for the API layer's period summaries.
func WorkedDaysIn(groups [][]ScheduledEvent) int {
	days := make(map[string]bool)
	for _, group := range groups {
		for _, e := range group {
			if e.Type == EventIntervention && e.HasFixedService {
				continue
			}
			days[e.Start.Format("2006-01-02")] = true
		}
	}
	return len(days)
}
