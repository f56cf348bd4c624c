/*
totals.go - The per-period paid-hours accumulator

PURPOSE:
  PaidHoursTotals accumulates one worker's hour contributions over one
  pay period. It is created empty at the start of an aggregation,
  folded once per event, and never shared across workers or periods.

OWNERSHIP:
  The accumulator is the single owner of its surcharge-details maps.
  The resolver emits flat DetailEntry values; only Apply merges them
  into the nested per-plan, per-kind structure. No other code mutates
  the maps, which keeps aliasing impossible by construction.

SEE ALSO:
  - surcharge.go: Where DetailEntry values come from
  - aggregate.go: Drives the fold over a period's events
*/
package pay

// =============================================================================
// SURCHARGE DETAILS - per-plan, per-kind attribution
// =============================================================================

// SurchargeDetail is the accumulated hours and the percentage for one
// surcharge kind under one plan.
type SurchargeDetail struct {
	Hours      Amount
	Percentage float64
}

// PlanDetail groups a plan's attributed surcharges with its name.
type PlanDetail struct {
	PlanName string
	Kinds    map[SurchargeKind]SurchargeDetail
}

// SurchargeDetails maps plan id to that plan's attributions.
type SurchargeDetails map[PlanID]*PlanDetail

// Add merges one attribution, accumulating hours for an existing
// plan/kind pair.
func (d SurchargeDetails) Add(entry DetailEntry) {
	plan, ok := d[entry.PlanID]
	if !ok {
		plan = &PlanDetail{PlanName: entry.PlanName, Kinds: make(map[SurchargeKind]SurchargeDetail)}
		d[entry.PlanID] = plan
	}
	detail := plan.Kinds[entry.Kind]
	if detail.Hours.Unit == "" {
		detail.Hours = ZeroHours()
	}
	detail.Hours = detail.Hours.Add(entry.Hours)
	detail.Percentage = entry.Percentage
	plan.Kinds[entry.Kind] = detail
}

// Clone deep-copies the details. Used when a record must not alias the
// accumulator it came from.
func (d SurchargeDetails) Clone() SurchargeDetails {
	out := make(SurchargeDetails, len(d))
	for id, plan := range d {
		kinds := make(map[SurchargeKind]SurchargeDetail, len(plan.Kinds))
		for k, v := range plan.Kinds {
			kinds[k] = v
		}
		out[id] = &PlanDetail{PlanName: plan.PlanName, Kinds: kinds}
	}
	return out
}

// =============================================================================
// PAID HOURS TOTALS
// =============================================================================

// PaidHoursTotals is the running breakdown for one worker and period.
type PaidHoursTotals struct {
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
}

// NewPaidHoursTotals returns an empty accumulator.
func NewPaidHoursTotals() *PaidHoursTotals {
	return &PaidHoursTotals{
		WorkedHours:                   ZeroHours(),
		InternalHours:                 ZeroHours(),
		NotSurchargedAndNotExempt:     ZeroHours(),
		SurchargedAndNotExempt:        ZeroHours(),
		NotSurchargedAndExempt:        ZeroHours(),
		SurchargedAndExempt:           ZeroHours(),
		SurchargedAndNotExemptDetails: make(SurchargeDetails),
		SurchargedAndExemptDetails:    make(SurchargeDetails),
		PaidKm:                        ZeroKm(),
		PaidTransportHours:            ZeroHours(),
	}
}

// EventContribution is one event's share of the totals, produced by the
// hour splitter.
type EventContribution struct {
	Surcharged    Amount
	NotSurcharged Amount
	Details       []DetailEntry

	Exempt   bool
	Internal bool

	TransportHours Amount
	Km             Amount
}

// Apply folds one contribution into the totals.
func (t *PaidHoursTotals) Apply(c EventContribution) {
	paid := c.Surcharged.Add(c.NotSurcharged)
	t.WorkedHours = t.WorkedHours.Add(paid)

	if c.Internal {
		t.InternalHours = t.InternalHours.Add(paid)
	}

	if c.Exempt {
		t.SurchargedAndExempt = t.SurchargedAndExempt.Add(c.Surcharged)
		t.NotSurchargedAndExempt = t.NotSurchargedAndExempt.Add(c.NotSurcharged)
		for _, entry := range c.Details {
			t.SurchargedAndExemptDetails.Add(entry)
		}
	} else {
		t.SurchargedAndNotExempt = t.SurchargedAndNotExempt.Add(c.Surcharged)
		t.NotSurchargedAndNotExempt = t.NotSurchargedAndNotExempt.Add(c.NotSurcharged)
		for _, entry := range c.Details {
			t.SurchargedAndNotExemptDetails.Add(entry)
		}
	}

	t.PaidTransportHours = t.PaidTransportHours.Add(c.TransportHours)
	t.PaidKm = t.PaidKm.Add(c.Km)
}
