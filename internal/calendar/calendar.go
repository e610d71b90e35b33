// Package calendar provides a business-day calendar for building the
// date axes of stored series. The holiday set is injected at
// construction instead of living in a package singleton, so tests and
// multi-market callers can carry different calendars side by side.
package calendar

import "time"

const dayKey = "2006-01-02"

// Calendar answers business-day questions for one market. A nil
// holiday list is a plain Mon–Fri calendar.
type Calendar struct {
	holidays map[string]struct{}
}

// New builds a calendar with the given holiday dates. Only the
// calendar day of each entry matters; time of day and zone are
// ignored.
func New(holidays []time.Time) *Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.UTC().Format(dayKey)] = struct{}{}
	}
	return &Calendar{holidays: set}
}

// IsHoliday reports whether t falls on a configured holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[t.UTC().Format(dayKey)]
	return ok
}

// IsBusinessDay reports whether t is a weekday and not a holiday.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	wd := t.UTC().Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.IsHoliday(t)
}

// Next returns the first business day strictly after t, normalized to
// UTC midnight.
func (c *Calendar) Next(t time.Time) time.Time {
	d := midnight(t).AddDate(0, 0, 1)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Previous returns the last business day strictly before t, normalized
// to UTC midnight.
func (c *Calendar) Previous(t time.Time) time.Time {
	d := midnight(t).AddDate(0, 0, -1)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Range returns every business day in the closed interval [start,
// end], normalized to UTC midnight and ascending. An inverted interval
// yields nil.
func (c *Calendar) Range(start, end time.Time) []time.Time {
	lo, hi := midnight(start), midnight(end)
	if hi.Before(lo) {
		return nil
	}
	var out []time.Time
	for d := lo; !d.After(hi); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			out = append(out, d)
		}
	}
	return out
}

func midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
