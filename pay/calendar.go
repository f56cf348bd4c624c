package pay

import "time"

// =============================================================================
// CALENDAR - Holiday and business-day capability
// =============================================================================

// Calendar answers the two date questions the engine depends on.
// It is passed in explicitly (never a package-level singleton) so tests
// can inject a fixed calendar and stay deterministic.
type Calendar interface {
	// IsPublicHoliday reports whether the date is a public holiday.
	IsPublicHoliday(t time.Time) bool

	// IsBusinessDay reports whether the date is a working day:
	// Monday through Saturday and not a public holiday. The six-day
	// week matches the weeklyHours/6 daily-absence rule.
	IsBusinessDay(t time.Time) bool
}

// FixedCalendar is a Calendar backed by an explicit holiday list.
type FixedCalendar struct {
	holidays map[string]bool
}

// NewFixedCalendar builds a calendar from the given holiday dates.
// Only the year/month/day of each date is significant.
func NewFixedCalendar(holidays ...time.Time) *FixedCalendar {
	c := &FixedCalendar{holidays: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format("2006-01-02")] = true
	}
	return c
}

func (c *FixedCalendar) IsPublicHoliday(t time.Time) bool {
	return c.holidays[t.Format("2006-01-02")]
}

func (c *FixedCalendar) IsBusinessDay(t time.Time) bool {
	return t.Weekday() != time.Sunday && !c.IsPublicHoliday(t)
}

// =============================================================================
// BUSINESS-DAY ENUMERATION
// =============================================================================

// BusinessDaysIn counts business days in [from, to] inclusive.
func BusinessDaysIn(cal Calendar, from, to time.Time) int {
	count := 0
	for d := dayOf(from); !d.After(dayOf(to)); d = d.AddDate(0, 0, 1) {
		if cal.IsBusinessDay(d) {
			count++
		}
	}
	return count
}

// HolidaysOnBusinessWeekdaysIn counts public holidays in [from, to]
// that fall on a day that would otherwise be worked (not a Sunday).
func HolidaysOnBusinessWeekdaysIn(cal Calendar, from, to time.Time) int {
	count := 0
	for d := dayOf(from); !d.After(dayOf(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Sunday && cal.IsPublicHoliday(d) {
			count++
		}
	}
	return count
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
