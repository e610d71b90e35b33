package series

import (
	"fmt"
	"math"
	"time"
)

// LastValidIndex returns the index of the last non-NaN value at or
// before pos. Pass len(v)-1 to search the whole series.
func LastValidIndex(v []float64, pos int) (int, error) {
	if len(v) == 0 {
		return 0, fmt.Errorf("last valid index: empty input: %w", ErrAllNaN)
	}
	if pos >= len(v) {
		pos = len(v) - 1
	}
	for i := pos; i >= 0; i-- {
		if !math.IsNaN(v[i]) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("last valid index: no valid value at or before %d: %w", pos, ErrAllNaN)
}

// LastValidValue returns the last non-NaN observation at or before
// date t, together with its index. The date is resolved against the
// ascending dates array with a right-biased search, so t itself does
// not have to be present in the series.
func LastValidValue(v []float64, dates []time.Time, t time.Time) (float64, int, error) {
	if len(v) != len(dates) {
		return 0, 0, fmt.Errorf("last valid value: %d values vs %d dates: %w", len(v), len(dates), ErrShape)
	}
	pos := searchDate(dates, t, true) - 1
	if pos < 0 {
		return 0, 0, fmt.Errorf("last valid value: no observation at or before %s: %w", t.Format("2006-01-02"), ErrAllNaN)
	}
	i, err := LastValidIndex(v, pos)
	if err != nil {
		return 0, 0, err
	}
	return v[i], i, nil
}

// NextValidIndex returns the index of the first non-NaN value at or
// after pos.
func NextValidIndex(v []float64, pos int) (int, error) {
	if pos < 0 {
		pos = 0
	}
	for i := pos; i < len(v); i++ {
		if !math.IsNaN(v[i]) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("next valid index: no valid value at or after %d: %w", pos, ErrAllNaN)
}

// NextValidValue returns the first non-NaN observation at or after
// pos, together with its index.
func NextValidValue(v []float64, pos int) (float64, int, error) {
	i, err := NextValidIndex(v, pos)
	if err != nil {
		return 0, 0, err
	}
	return v[i], i, nil
}

// NextValidValueAt returns the first non-NaN observation at or after
// date t, together with its index. The date is resolved against the
// ascending dates array with a left-biased search, mirroring
// LastValidValue on the forward side.
func NextValidValueAt(v []float64, dates []time.Time, t time.Time) (float64, int, error) {
	if len(v) != len(dates) {
		return 0, 0, fmt.Errorf("next valid value: %d values vs %d dates: %w", len(v), len(dates), ErrShape)
	}
	pos := searchDate(dates, t, false)
	if pos >= len(v) {
		return 0, 0, fmt.Errorf("next valid value: no observation at or after %s: %w", t.Format("2006-01-02"), ErrAllNaN)
	}
	i, err := NextValidIndex(v, pos)
	if err != nil {
		return 0, 0, err
	}
	return v[i], i, nil
}

// DropNA returns a copy of v with NaN entries removed and the original
// indices of the surviving entries.
func DropNA(v []float64) ([]float64, []int) {
	out := make([]float64, 0, len(v))
	idx := make([]int, 0, len(v))
	for i, x := range v {
		if !math.IsNaN(x) {
			out = append(out, x)
			idx = append(idx, i)
		}
	}
	return out, idx
}

// DropNA2 jointly filters two parallel series, keeping only positions
// where both are valid. Used by the regression helpers, where a hole
// in either series invalidates the pair.
func DropNA2(a, b []float64) ([]float64, []float64, error) {
	if len(a) != len(b) {
		return nil, nil, fmt.Errorf("dropna: %d vs %d values: %w", len(a), len(b), ErrShape)
	}
	outA := make([]float64, 0, len(a))
	outB := make([]float64, 0, len(b))
	for i := range a {
		if !math.IsNaN(a[i]) && !math.IsNaN(b[i]) {
			outA = append(outA, a[i])
			outB = append(outB, b[i])
		}
	}
	return outA, outB, nil
}

// FillNA returns a copy of v with every NaN replaced by fill.
func FillNA(v []float64, fill float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			out[i] = fill
		} else {
			out[i] = x
		}
	}
	return out
}

// Ffill forward-fills NaN holes with the last valid observation.
// Leading NaNs have no predecessor and are replaced with first; pass
// math.NaN() to leave them in place.
func Ffill(v []float64, first float64) []float64 {
	out := make([]float64, len(v))
	last := first
	for i, x := range v {
		if math.IsNaN(x) {
			out[i] = last
		} else {
			out[i] = x
			last = x
		}
	}
	return out
}

// FfillRows applies Ffill to each row of a matrix laid out the way
// TrimMatrix returns it: one row per field, dates along the columns.
// Each row fills independently.
func FfillRows(rows [][]float64, first float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = Ffill(row, first)
	}
	return out
}

// CheckDense returns ErrNanPresent if v contains any NaN, and
// ErrAllNaN if it contains nothing else. Indicator constructors use it
// to fail eagerly instead of emitting poisoned output.
func CheckDense(v []float64) error {
	if len(v) == 0 {
		return fmt.Errorf("dense check: empty input: %w", ErrAllNaN)
	}
	nans := 0
	for _, x := range v {
		if math.IsNaN(x) {
			nans++
		}
	}
	switch {
	case nans == len(v):
		return fmt.Errorf("dense check: %w", ErrAllNaN)
	case nans > 0:
		return fmt.Errorf("dense check: %d of %d values: %w", nans, len(v), ErrNanPresent)
	}
	return nil
}

// NanMean averages the non-NaN entries of v. It returns NaN when no
// valid entry exists.
func NanMean(v []float64) float64 {
	sum, n := 0.0, 0
	for _, x := range v {
		if !math.IsNaN(x) {
			sum += x
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// NanStd is the NaN-skipping standard deviation of v with the given
// delta degrees of freedom.
func NanStd(v []float64, ddof int) float64 {
	mean := NanMean(v)
	if math.IsNaN(mean) {
		return math.NaN()
	}
	sum, n := 0.0, 0
	for _, x := range v {
		if !math.IsNaN(x) {
			d := x - mean
			sum += d * d
			n++
		}
	}
	if n-ddof <= 0 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n-ddof))
}
