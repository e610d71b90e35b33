package series

import (
	"fmt"
	"time"
)

// TS is a date-indexed series of float64 observations. Dates are UTC
// midnight timestamps in strictly ascending order and Values is the
// parallel array of observations, with math.NaN marking missing data.
// Construction validates the invariants once; every other function in
// this package assumes them and never re-sorts.
type TS struct {
	Dates  []time.Time
	Values []float64
}

// New builds a TS from parallel date and value slices.
func New(dates []time.Time, values []float64) (TS, error) {
	if len(dates) != len(values) {
		return TS{}, fmt.Errorf("new series: %d dates vs %d values: %w", len(dates), len(values), ErrShape)
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return TS{}, fmt.Errorf("new series: dates not strictly ascending at index %d: %w", i, ErrDomain)
		}
	}
	return TS{Dates: dates, Values: values}, nil
}

// Len returns the number of observations.
func (ts TS) Len() int { return len(ts.Values) }

// Trim returns the sub-series with start <= date <= end. Both bounds
// are inclusive; a zero time leaves that side unbounded. The result
// shares the receiver's backing arrays.
func (ts TS) Trim(start, end time.Time) TS {
	lo, hi := SearchTrimRange(ts.Dates, start, end)
	return TS{Dates: ts.Dates[lo:hi], Values: ts.Values[lo:hi]}
}

// SearchTrimRange locates the half-open index range [lo, hi) covering
// the closed date interval [start, end] in an ascending date array.
// The left bound is resolved with a left-biased search (first date
// >= start) and the right bound with a right-biased one (first date
// > end), which is what makes the inclusive end work without an exact
// match. Zero times leave the corresponding side unbounded; an
// interval with no dates inside yields lo == hi.
func SearchTrimRange(dates []time.Time, start, end time.Time) (int, int) {
	lo, hi := 0, len(dates)
	if !start.IsZero() {
		lo = searchDate(dates, start, false)
	}
	if !end.IsZero() {
		hi = searchDate(dates, end, true)
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// searchDate is a binary search over ascending dates. With right=false
// it returns the first index whose date is >= target, with right=true
// the first index whose date is > target.
func searchDate(dates []time.Time, target time.Time, right bool) int {
	lo, hi := 0, len(dates)
	for lo < hi {
		mid := (lo + hi) / 2
		before := dates[mid].Before(target)
		if right {
			before = !dates[mid].After(target)
		}
		if before {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// TrimValues trims parallel date and value slices to the closed date
// interval [start, end]. The returned slices share the inputs' backing
// arrays.
func TrimValues(dates []time.Time, values []float64, start, end time.Time) ([]time.Time, []float64, error) {
	if len(dates) != len(values) {
		return nil, nil, fmt.Errorf("trim: %d dates vs %d values: %w", len(dates), len(values), ErrShape)
	}
	lo, hi := SearchTrimRange(dates, start, end)
	return dates[lo:hi], values[lo:hi], nil
}

// TrimMatrix trims a set of parallel value rows (for example high, low
// and close of the same instrument) along the shared date axis.
func TrimMatrix(dates []time.Time, rows [][]float64, start, end time.Time) ([]time.Time, [][]float64, error) {
	for i, row := range rows {
		if len(row) != len(dates) {
			return nil, nil, fmt.Errorf("trim: row %d has %d values vs %d dates: %w", i, len(row), len(dates), ErrShape)
		}
	}
	lo, hi := SearchTrimRange(dates, start, end)
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = row[lo:hi]
	}
	return dates[lo:hi], out, nil
}
