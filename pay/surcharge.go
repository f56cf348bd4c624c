/*
surcharge.go - Surcharge plan resolution

PURPOSE:
  Given one scheduled event and its surcharge plan, decides which single
  calendar surcharge (if any) applies, or how much of the event overlaps
  the plan's evening/custom clock windows, and splits the event's paid
  hours into surcharged and not-surcharged buckets.

CRITICAL INVARIANTS:
  1. Calendar surcharges are EXCLUSIVE. They are evaluated in a fixed
     priority order and the first match takes the entire event:
       Dec 25 > May 1 > public holiday > Saturday > Sunday
     An event on a Sunday Dec 25 is attributed entirely to Dec 25.
  2. Evening and custom windows are ADDITIVE and independent, and only
     reachable when no calendar surcharge matched.
  3. Paid transport time counts toward the surcharged window overlap
     only when the event's start falls inside the window.

WINDOW WRAP:
  A window whose end clock is at or before its start clock wraps past
  midnight; its end is shifted one day forward before computing overlap.

SEE ALSO:
  - split.go: Feeds events and transport into the resolver
  - totals.go: Where the resulting detail entries accumulate
*/
package pay

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SURCHARGE PLAN
// =============================================================================

type PlanID string

type SurchargeKind string

const (
	SurchargeTwentyFifthOfDecember SurchargeKind = "twentyFifthOfDecember"
	SurchargeFirstOfMay            SurchargeKind = "firstOfMay"
	SurchargePublicHoliday         SurchargeKind = "publicHoliday"
	SurchargeSaturday              SurchargeKind = "saturday"
	SurchargeSunday                SurchargeKind = "sunday"
	SurchargeEvening               SurchargeKind = "evening"
	SurchargeCustom                SurchargeKind = "custom"
)

// SurchargePlan is a catalog entry of time-based surcharge rules.
// Each field, when positive, is a surcharge percentage. Evening and
// custom carry companion HH:MM clock windows.
type SurchargePlan struct {
	ID   PlanID
	Name string

	Saturday              float64
	Sunday                float64
	PublicHoliday         float64
	FirstOfMay            float64
	TwentyFifthOfDecember float64

	Evening      float64
	EveningStart string
	EveningEnd   string

	Custom      float64
	CustomStart string
	CustomEnd   string
}

// HasAnySurcharge reports whether any rule is configured at a positive
// percentage. A plan without one leaves every hour not-surcharged.
func (p *SurchargePlan) HasAnySurcharge() bool {
	return p.Saturday > 0 || p.Sunday > 0 || p.PublicHoliday > 0 ||
		p.FirstOfMay > 0 || p.TwentyFifthOfDecember > 0 ||
		p.Evening > 0 || p.Custom > 0
}

// Validate enforces the window invariant: an evening or custom
// surcharge without both clock times is a configuration error.
func (p *SurchargePlan) Validate() error {
	if p.Evening > 0 {
		if err := validateWindow(p.ID, SurchargeEvening, p.EveningStart, p.EveningEnd); err != nil {
			return err
		}
	}
	if p.Custom > 0 {
		if err := validateWindow(p.ID, SurchargeCustom, p.CustomStart, p.CustomEnd); err != nil {
			return err
		}
	}
	return nil
}

func validateWindow(id PlanID, kind SurchargeKind, start, end string) error {
	if start == "" || end == "" {
		return &WindowError{PlanID: id, Kind: kind}
	}
	if _, err := ParseClock(start); err != nil {
		return err
	}
	if _, err := ParseClock(end); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// CLOCK TIME - HH:MM window boundaries
// =============================================================================

// ParseClock parses an "HH:MM" string into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	return hour*60 + minute, nil
}

// windowFor instantiates a clock window on the event's start date.
// A window ending at or before its start wraps past midnight.
func windowFor(event ScheduledEvent, startClock, endClock int) (time.Time, time.Time) {
	day := time.Date(event.Start.Year(), event.Start.Month(), event.Start.Day(),
		0, 0, 0, 0, event.Start.Location())
	start := day.Add(time.Duration(startClock) * time.Minute)
	end := day.Add(time.Duration(endClock) * time.Minute)
	if endClock <= startClock {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// WindowOverlapMinutes computes how many paid minutes of the event fall
// inside the clock window instantiated on the event's start date.
// Transport minutes are included when the event starts inside the
// window (the worker was already "on surcharged time" while moving).
func WindowOverlapMinutes(event ScheduledEvent, startClock, endClock int, transportMinutes float64) float64 {
	wStart, wEnd := windowFor(event, startClock, endClock)

	switch {
	// Window fully contains the event.
	case !wStart.After(event.Start) && !wEnd.Before(event.End):
		return event.DurationMinutes() + transportMinutes

	// Window covers the event's head: starts at/before the event start,
	// ends inside the event.
	case !wStart.After(event.Start) && wEnd.After(event.Start) && wEnd.Before(event.End):
		return wEnd.Sub(event.Start).Minutes() + transportMinutes

	// Window covers the event's tail: starts inside the event, ends
	// at/after the event end.
	case wStart.After(event.Start) && wStart.Before(event.End) && !wEnd.Before(event.End):
		return event.End.Sub(wStart).Minutes()

	// Window strictly inside the event.
	case wStart.After(event.Start) && wEnd.Before(event.End):
		return wEnd.Sub(wStart).Minutes()

	default:
		return 0
	}
}

// =============================================================================
// RESOLVER
// =============================================================================

// DetailEntry is one surcharge attribution produced by the resolver.
// Entries are merged into the per-plan, per-kind details map by the
// totals accumulator, which is their single owner.
type DetailEntry struct {
	PlanID     PlanID
	PlanName   string
	Kind       SurchargeKind
	Hours      Amount
	Percentage float64
}

// SurchargeSplit is the resolver's output for one event.
type SurchargeSplit struct {
	Surcharged    Amount
	NotSurcharged Amount
	Details       []DetailEntry
}

// Resolver applies surcharge plans to events.
type Resolver struct {
	Calendar Calendar
}

// Apply splits an event's paid hours (event duration plus paid
// transport) between surcharged and not-surcharged buckets.
func (r *Resolver) Apply(event ScheduledEvent, plan *SurchargePlan, transport PaidTransport) (SurchargeSplit, error) {
	totalMinutes := event.DurationMinutes() + transport.DurationMinutes
	totalPaid := HoursFromMinutes(totalMinutes)

	if plan == nil || !plan.HasAnySurcharge() {
		return SurchargeSplit{Surcharged: ZeroHours(), NotSurcharged: totalPaid}, nil
	}

	// Calendar surcharges: first match wins, takes the whole event.
	if kind, pct, ok := r.matchCalendar(event, plan); ok {
		return SurchargeSplit{
			Surcharged:    totalPaid,
			NotSurcharged: ZeroHours(),
			Details: []DetailEntry{{
				PlanID: plan.ID, PlanName: plan.Name,
				Kind: kind, Hours: totalPaid, Percentage: pct,
			}},
		}, nil
	}

	// Evening and custom windows: independent, additive.
	split := SurchargeSplit{Surcharged: ZeroHours()}
	surchargedMinutes := 0.0

	for _, w := range []struct {
		kind       SurchargeKind
		pct        float64
		start, end string
	}{
		{SurchargeEvening, plan.Evening, plan.EveningStart, plan.EveningEnd},
		{SurchargeCustom, plan.Custom, plan.CustomStart, plan.CustomEnd},
	} {
		if w.pct <= 0 {
			continue
		}
		if w.start == "" || w.end == "" {
			return SurchargeSplit{}, &WindowError{PlanID: plan.ID, Kind: w.kind}
		}
		startClock, err := ParseClock(w.start)
		if err != nil {
			return SurchargeSplit{}, err
		}
		endClock, err := ParseClock(w.end)
		if err != nil {
			return SurchargeSplit{}, err
		}
		minutes := WindowOverlapMinutes(event, startClock, endClock, transport.DurationMinutes)
		if minutes <= 0 {
			continue
		}
		hours := HoursFromMinutes(minutes)
		split.Surcharged = split.Surcharged.Add(hours)
		surchargedMinutes += minutes
		split.Details = append(split.Details, DetailEntry{
			PlanID: plan.ID, PlanName: plan.Name,
			Kind: w.kind, Hours: hours, Percentage: w.pct,
		})
	}

	split.NotSurcharged = HoursFromMinutes(totalMinutes - surchargedMinutes)
	return split, nil
}

// matchCalendar evaluates the exclusive calendar rules in their fixed
// priority order against the event's start date.
func (r *Resolver) matchCalendar(event ScheduledEvent, plan *SurchargePlan) (SurchargeKind, float64, bool) {
	start := event.Start
	switch {
	case plan.TwentyFifthOfDecember > 0 && start.Month() == time.December && start.Day() == 25:
		return SurchargeTwentyFifthOfDecember, plan.TwentyFifthOfDecember, true
	case plan.FirstOfMay > 0 && start.Month() == time.May && start.Day() == 1:
		return SurchargeFirstOfMay, plan.FirstOfMay, true
	case plan.PublicHoliday > 0 && r.Calendar.IsPublicHoliday(start):
		return SurchargePublicHoliday, plan.PublicHoliday, true
	case plan.Saturday > 0 && start.Weekday() == time.Saturday:
		return SurchargeSaturday, plan.Saturday, true
	case plan.Sunday > 0 && start.Weekday() == time.Sunday:
		return SurchargeSunday, plan.Sunday, true
	default:
		return "", 0, false
	}
}
