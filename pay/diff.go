/*
diff.go - Month-over-month pay diff

PURPOSE:
  Compares a fresh aggregation of the prior calendar month against the
  worker's stored prior pay record, producing signed per-field deltas.
  The prior-month totals are recomputed in full - never reused from the
  current period - so late event edits show up as diffs.

CLOSED-MONTH POLICY:
  Diffs only exist for fully closed past months. When the query range
  ends inside the current calendar month (or later), the diff is the
  neutral zero value and the hours counter contribution is zero.

ROUNDING:
  Every delta is rounded to two decimal places.

SEE ALSO:
  - aggregate.go: The aggregation re-run over the prior month
  - draft.go: Feeds the diff into the assembled pay record
*/
package pay

// PayDiff is the signed per-field delta between the recomputed prior
// month and the stored prior pay record.
type PayDiff struct {
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

	AbsencesHours Amount
	HoursBalance  Amount
}

// NeutralDiff is the zero diff used when the queried month is not yet
// closed.
func NeutralDiff() PayDiff {
	return PayDiff{
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
		AbsencesHours:                 ZeroHours(),
		HoursBalance:                  ZeroHours(),
	}
}

// Diff computes the pay diff from the recomputed prior-month totals and
// the stored prior record. prev may be nil (first computed month): the
// diff is then the recomputed totals themselves.
func Diff(current *PeriodTotals, prev *PayRecord) PayDiff {
	d := PayDiff{
		WorkedHours:               delta(current.WorkedHours, prevAmount(prev, func(p *PayRecord) Amount { return p.WorkedHours })),
		InternalHours:             delta(current.InternalHours, prevAmount(prev, func(p *PayRecord) Amount { return p.InternalHours })),
		NotSurchargedAndNotExempt: delta(current.NotSurchargedAndNotExempt, prevAmount(prev, func(p *PayRecord) Amount { return p.NotSurchargedAndNotExempt })),
		SurchargedAndNotExempt:    delta(current.SurchargedAndNotExempt, prevAmount(prev, func(p *PayRecord) Amount { return p.SurchargedAndNotExempt })),
		NotSurchargedAndExempt:    delta(current.NotSurchargedAndExempt, prevAmount(prev, func(p *PayRecord) Amount { return p.NotSurchargedAndExempt })),
		SurchargedAndExempt:       delta(current.SurchargedAndExempt, prevAmount(prev, func(p *PayRecord) Amount { return p.SurchargedAndExempt })),
		PaidKm:                    delta(current.PaidKm, prevAmount(prev, func(p *PayRecord) Amount { return p.PaidKm })),
		PaidTransportHours:        delta(current.PaidTransportHours, prevAmount(prev, func(p *PayRecord) Amount { return p.PaidTransportHours })),
		AbsencesHours:             delta(current.AbsencesHours, prevAmount(prev, func(p *PayRecord) Amount { return p.AbsencesHours })),
	}

	var prevNotExempt, prevExempt SurchargeDetails
	if prev != nil {
		prevNotExempt = prev.SurchargedAndNotExemptDetails
		prevExempt = prev.SurchargedAndExemptDetails
	}
	d.SurchargedAndNotExemptDetails = diffDetails(current.SurchargedAndNotExemptDetails, prevNotExempt)
	d.SurchargedAndExemptDetails = diffDetails(current.SurchargedAndExemptDetails, prevExempt)

	// The balance diff is recomputed from its parts, not diffed from
	// the stored balance.
	d.HoursBalance = d.AbsencesHours.Add(d.WorkedHours).Round()

	return d
}

func prevAmount(prev *PayRecord, field func(*PayRecord) Amount) *Amount {
	if prev == nil {
		return nil
	}
	a := field(prev)
	return &a
}

// delta is cur - prev when both exist, cur when only the current side
// exists, rounded to 2 decimals.
func delta(cur Amount, prev *Amount) Amount {
	if prev == nil {
		return cur.Round()
	}
	return cur.Sub(*prev).Round()
}

// diffDetails starts from the current-period details and subtracts the
// prior record's hours per plan/kind. A plan/kind present only in the
// prior record appears with negative hours, keeping its plan name.
func diffDetails(current, prev SurchargeDetails) SurchargeDetails {
	out := current.Clone()
	for planID, prevPlan := range prev {
		plan, ok := out[planID]
		if !ok {
			plan = &PlanDetail{PlanName: prevPlan.PlanName, Kinds: make(map[SurchargeKind]SurchargeDetail)}
			out[planID] = plan
		}
		for kind, prevDetail := range prevPlan.Kinds {
			detail, ok := plan.Kinds[kind]
			if !ok {
				detail = SurchargeDetail{Hours: ZeroHours(), Percentage: prevDetail.Percentage}
			}
			detail.Hours = detail.Hours.Sub(prevDetail.Hours).Round()
			plan.Kinds[kind] = detail
		}
	}
	for _, plan := range out {
		for kind, detail := range plan.Kinds {
			detail.Hours = detail.Hours.Round()
			plan.Kinds[kind] = detail
		}
	}
	return out
}
