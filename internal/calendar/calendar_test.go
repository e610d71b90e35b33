package calendar

import (
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	// 2026-08-24 is a Monday; 2026-08-26 is declared a holiday.
	cal := New([]time.Time{d(2026, time.August, 26)})

	cases := []struct {
		day  time.Time
		want bool
	}{
		{d(2026, time.August, 24), true},  // Monday
		{d(2026, time.August, 22), false}, // Saturday
		{d(2026, time.August, 23), false}, // Sunday
		{d(2026, time.August, 26), false}, // holiday
		{d(2026, time.August, 27), true},  // Thursday
	}
	for _, c := range cases {
		if got := cal.IsBusinessDay(c.day); got != c.want {
			t.Errorf("IsBusinessDay(%s): got %v, want %v", c.day.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestNextAndPrevious_SkipWeekendAndHoliday(t *testing.T) {
	// Friday 2026-08-28 → next Monday is a holiday → Tuesday 09-01.
	cal := New([]time.Time{d(2026, time.August, 31)})

	next := cal.Next(d(2026, time.August, 28))
	if !next.Equal(d(2026, time.September, 1)) {
		t.Errorf("Next: got %s, want 2026-09-01", next.Format("2006-01-02"))
	}

	prev := cal.Previous(d(2026, time.September, 1))
	if !prev.Equal(d(2026, time.August, 28)) {
		t.Errorf("Previous: got %s, want 2026-08-28", prev.Format("2006-01-02"))
	}
}

func TestRange_BusinessDaysOnly(t *testing.T) {
	// Mon 08-24 .. Mon 08-31 with Wed 08-26 a holiday: five days.
	cal := New([]time.Time{d(2026, time.August, 26)})

	days := cal.Range(d(2026, time.August, 24), d(2026, time.August, 31))
	want := []time.Time{
		d(2026, time.August, 24),
		d(2026, time.August, 25),
		d(2026, time.August, 27),
		d(2026, time.August, 28),
		d(2026, time.August, 31),
	}
	if len(days) != len(want) {
		t.Fatalf("Range length: got %d, want %d", len(days), len(want))
	}
	for i := range want {
		if !days[i].Equal(want[i]) {
			t.Errorf("Range[%d]: got %s, want %s", i, days[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}

	if got := cal.Range(d(2026, time.September, 1), d(2026, time.August, 1)); got != nil {
		t.Errorf("inverted interval: got %v, want nil", got)
	}
}

func TestHolidayIgnoresTimeOfDay(t *testing.T) {
	cal := New([]time.Time{time.Date(2026, time.August, 26, 18, 30, 0, 0, time.UTC)})
	if !cal.IsHoliday(d(2026, time.August, 26)) {
		t.Error("holiday declared with time of day not matched at midnight")
	}
}
