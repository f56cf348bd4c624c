package pay

import (
	"sort"
	"time"
)

// =============================================================================
// SCHEDULED EVENT - One unit of planned work or absence
// =============================================================================

type EventType string

const (
	EventIntervention EventType = "intervention"
	EventInternalHour EventType = "internal_hour"
	EventAbsence      EventType = "absence"
)

type AbsenceNature string

const (
	AbsenceDaily  AbsenceNature = "daily"
	AbsenceHourly AbsenceNature = "hourly"
)

// ScheduledEvent is immutable once computed against. The engine clamps
// a copy to the query range before touching it.
type ScheduledEvent struct {
	ID       string
	Type     EventType
	Start    time.Time
	End      time.Time
	WorkerID string

	// Intervention fields
	ServiceID       string
	HasFixedService bool
	Address         string

	// Absence fields
	AbsenceNature AbsenceNature
}

// Duration returns the event's literal length.
func (e ScheduledEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// DurationMinutes returns the event's literal length in minutes.
func (e ScheduledEvent) DurationMinutes() float64 {
	return e.Duration().Minutes()
}

// ClampTo returns a copy with start/end limited to the query range.
// Events are never counted outside the requested period.
func (e ScheduledEvent) ClampTo(r DateRange) ScheduledEvent {
	clamped := e
	if clamped.Start.Before(r.Start) {
		clamped.Start = r.Start
	}
	if clamped.End.After(r.End) {
		clamped.End = r.End
	}
	if clamped.End.Before(clamped.Start) {
		clamped.End = clamped.Start
	}
	return clamped
}

// SortByStart orders a day's events by start time, ascending. The sort
// is stable: ties keep their original order. Ordering matters because
// transport time is computed against the immediately preceding event.
func SortByStart(events []ScheduledEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}

// GroupByDay splits a flat event list into per-day groups, ordered by
// day. Within a group the original order is preserved; the aggregator
// sorts each group by start time before processing.
func GroupByDay(events []ScheduledEvent) [][]ScheduledEvent {
	byDay := make(map[string][]ScheduledEvent)
	var keys []string
	for _, e := range events {
		k := e.Start.Format("2006-01-02")
		if _, seen := byDay[k]; !seen {
			keys = append(keys, k)
		}
		byDay[k] = append(byDay[k], e)
	}
	sort.Strings(keys)
	groups := make([][]ScheduledEvent, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, byDay[k])
	}
	return groups
}

// =============================================================================
// SERVICE - What an intervention delivers
// =============================================================================

// Service carries the surcharge-relevant flags of an intervention's
// service. ExemptFromCharges hours are tracked separately from standard
// hours for tax/accounting reasons.
type Service struct {
	ID                string
	Name              string
	ExemptFromCharges bool
	SurchargePlanID   PlanID
}

// =============================================================================
// WORKER EVENTS - One worker's slice of a pay period
// =============================================================================

// WorkerEvents bundles everything the aggregator needs for one worker:
// work events grouped by day, plus the worker's absences for the range.
type WorkerEvents struct {
	Worker      Worker
	EventsByDay [][]ScheduledEvent
	Absences    []ScheduledEvent
}
