package pay

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE RANGE - The query boundary for a pay computation
// =============================================================================

// DateRange is the inclusive [Start, End] window a draft pay run covers.
// Events are never counted outside the range: their start/end are
// clamped to the range boundary before any computation.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate rejects malformed ranges. An end before the start is a
// caller contract violation, not a degraded computation.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// Contains returns true if t is within [Start, End].
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r DateRange) String() string {
	return "[" + r.Start.Format("2006-01-02") + ", " + r.End.Format("2006-01-02") + "]"
}

// =============================================================================
// MONTH ARITHMETIC - Used by the diff engine
// =============================================================================

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last instant covered by t's month at second
// precision (23:59:59 on the last day).
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Second)
}

// MonthOf returns the calendar-month range containing t.
func MonthOf(t time.Time) DateRange {
	return DateRange{Start: StartOfMonth(t), End: EndOfMonth(t)}
}

// PreviousMonthOf returns the calendar month immediately before the one
// containing t. The diff engine re-aggregates this range in full.
func PreviousMonthOf(t time.Time) DateRange {
	return MonthOf(StartOfMonth(t).AddDate(0, -1, 0))
}

// MonthKey formats a month for pay-record storage, e.g. "2026-07".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
