package series

import (
	"fmt"
	"math"
	"sort"
)

// checkWindow validates a window length against the input size.
func checkWindow(n, w int) error {
	if w <= 0 {
		return fmt.Errorf("rolling: window %d: %w", w, ErrDomain)
	}
	if w > n {
		return fmt.Errorf("rolling: window %d over %d values: %w", w, n, ErrShortSeries)
	}
	return nil
}

// Windows returns the n-w+1 overlapping windows of length w over v.
// Each window is a sub-slice sharing v's backing array, so the result
// costs no copies and must be treated as read-only.
func Windows(v []float64, w int) ([][]float64, error) {
	if err := checkWindow(len(v), w); err != nil {
		return nil, err
	}
	out := make([][]float64, len(v)-w+1)
	for i := range out {
		out[i] = v[i : i+w]
	}
	return out, nil
}

// RollingSum computes the sum of every window of length w in O(n) via
// a running prefix sum. The result has length n-w+1 and entry i covers
// v[i:i+w]. NaNs are not skipped: once a NaN enters the running sum it
// poisons every later window, so callers needing holes handled must
// Ffill or DropNA first.
func RollingSum(v []float64, w int) ([]float64, error) {
	if err := checkWindow(len(v), w); err != nil {
		return nil, err
	}
	cum := make([]float64, len(v))
	run := 0.0
	for i, x := range v {
		run += x
		cum[i] = run
	}
	out := make([]float64, len(v)-w+1)
	out[0] = cum[w-1]
	for i := 1; i < len(out); i++ {
		out[i] = cum[i+w-1] - cum[i-1]
	}
	return out, nil
}

// RollingMean is RollingSum scaled by the window length.
func RollingMean(v []float64, w int) ([]float64, error) {
	out, err := RollingSum(v, w)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] /= float64(w)
	}
	return out, nil
}

// RollingStd computes the standard deviation of every window of
// length w with the given delta degrees of freedom (ddof=1 gives the
// sample standard deviation).
func RollingStd(v []float64, w, ddof int) ([]float64, error) {
	if err := checkWindow(len(v), w); err != nil {
		return nil, err
	}
	if ddof < 0 || ddof >= w {
		return nil, fmt.Errorf("rolling std: ddof %d with window %d: %w", ddof, w, ErrDomain)
	}
	out := make([]float64, len(v)-w+1)
	for i := range out {
		out[i] = windowStd(v[i:i+w], ddof)
	}
	return out, nil
}

func windowStd(win []float64, ddof int) float64 {
	mean := 0.0
	for _, x := range win {
		mean += x
	}
	mean /= float64(len(win))
	acc := 0.0
	for _, x := range win {
		d := x - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(win)-ddof))
}

// RollingMedian computes the median of every window of length w. Each
// window is copied and sorted, so the bulk cost is O(n · w log w).
func RollingMedian(v []float64, w int) ([]float64, error) {
	if err := checkWindow(len(v), w); err != nil {
		return nil, err
	}
	out := make([]float64, len(v)-w+1)
	buf := make([]float64, w)
	for i := range out {
		copy(buf, v[i:i+w])
		sort.Float64s(buf)
		out[i] = sortedMedian(buf)
	}
	return out, nil
}

func sortedMedian(win []float64) float64 {
	m := len(win) / 2
	if len(win)%2 == 1 {
		return win[m]
	}
	return 0.5 * (win[m-1] + win[m])
}

// RollingMax computes the maximum of every window of length w. A NaN
// inside a window yields NaN for that window.
func RollingMax(v []float64, w int) ([]float64, error) {
	return rollingExtreme(v, w, func(a, b float64) bool { return b > a })
}

// RollingMin computes the minimum of every window of length w. A NaN
// inside a window yields NaN for that window.
func RollingMin(v []float64, w int) ([]float64, error) {
	return rollingExtreme(v, w, func(a, b float64) bool { return b < a })
}

func rollingExtreme(v []float64, w int, better func(cur, cand float64) bool) ([]float64, error) {
	if err := checkWindow(len(v), w); err != nil {
		return nil, err
	}
	out := make([]float64, len(v)-w+1)
	for i := range out {
		out[i] = windowExtreme(v[i:i+w], better)
	}
	return out, nil
}

func windowExtreme(win []float64, better func(cur, cand float64) bool) float64 {
	best := win[0]
	for _, x := range win[1:] {
		if math.IsNaN(x) {
			return math.NaN()
		}
		if better(best, x) {
			best = x
		}
	}
	if math.IsNaN(best) {
		return math.NaN()
	}
	return best
}

// RollingArgMax returns, for every window of length w, the offset of
// the window maximum relative to the window start. Ties resolve to the
// earliest offset.
func RollingArgMax(v []float64, w int) ([]int, error) {
	return rollingArgExtreme(v, w, func(a, b float64) bool { return b > a })
}

// RollingArgMin is the minimum counterpart of RollingArgMax.
func RollingArgMin(v []float64, w int) ([]int, error) {
	return rollingArgExtreme(v, w, func(a, b float64) bool { return b < a })
}

func rollingArgExtreme(v []float64, w int, better func(cur, cand float64) bool) ([]int, error) {
	if err := checkWindow(len(v), w); err != nil {
		return nil, err
	}
	out := make([]int, len(v)-w+1)
	for i := range out {
		win := v[i : i+w]
		best := 0
		for j := 1; j < w; j++ {
			if better(win[best], win[j]) {
				best = j
			}
		}
		out[i] = best
	}
	return out, nil
}
