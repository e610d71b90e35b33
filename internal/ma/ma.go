// Package ma implements the moving-average family as whole-array
// transforms. Every function returns an output aligned with its input:
// positions that lack a full window hold NaN, so the caller can zip
// the result straight back onto the original date axis.
package ma

import (
	"fmt"
	"math"

	"quant-analytics/internal/series"
)

// SMA is the simple moving average over a window of w observations.
// The first w-1 positions are NaN.
func SMA(v []float64, w int) ([]float64, error) {
	mean, err := series.RollingMean(v, w)
	if err != nil {
		return nil, err
	}
	return padLeft(mean, len(v)), nil
}

// SMAApprox is the online approximation of the SMA: an exponential
// update with gain 1/w seeded at the first valid value. NaN inputs
// hold the running value flat.
func SMAApprox(v []float64, w int) ([]float64, error) {
	if w <= 0 {
		return nil, fmt.Errorf("sma approx: window %d: %w", w, series.ErrDomain)
	}
	if len(v) < w {
		return nil, fmt.Errorf("sma approx: %d values for window %d: %w", len(v), w, series.ErrShortSeries)
	}
	fv, err := series.NextValidIndex(v, 0)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	for i := 0; i < fv; i++ {
		out[i] = math.NaN()
	}
	curr := v[fv]
	out[fv] = curr
	for i := fv + 1; i < len(v); i++ {
		if !math.IsNaN(v[i]) {
			curr += (v[i] - curr) / float64(w)
		}
		out[i] = curr
	}
	return out, nil
}

// SMStd is the rolling sample standard deviation (ddof=1 matches the
// pandas default).
func SMStd(v []float64, w, ddof int) ([]float64, error) {
	std, err := series.RollingStd(v, w, ddof)
	if err != nil {
		return nil, err
	}
	return padLeft(std, len(v)), nil
}

// CSMA is the cumulative simple moving average: the running mean of
// all valid observations seen so far. NaN entries do not contribute to
// either the sum or the divisor.
func CSMA(v []float64) []float64 {
	out := make([]float64, len(v))
	sum, n := 0.0, 0
	for i, x := range v {
		if !math.IsNaN(x) {
			sum += x
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// WMA is the linearly weighted moving average: weights 1..w within
// each window, renormalized over the valid entries so a NaN drops out
// instead of poisoning the window.
func WMA(v []float64, w int) ([]float64, error) {
	wins, err := series.Windows(v, w)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(wins))
	for i, win := range wins {
		num, den := 0.0, 0.0
		for j, x := range win {
			if math.IsNaN(x) {
				continue
			}
			wgt := float64(j + 1)
			num += wgt * x
			den += wgt
		}
		if den == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = num / den
		}
	}
	return padLeft(out, len(v)), nil
}

// EWMA is the exponentially weighted moving average with smoothing
// alpha = 2/(1+w), computed with the explicit recurrence. The average
// is seeded at the first valid value; a NaN input holds the running
// value flat. This is the reference implementation the closed form is
// checked against.
func EWMA(v []float64, w int) ([]float64, error) {
	if w <= 0 {
		return nil, fmt.Errorf("ewma: window %d: %w", w, series.ErrDomain)
	}
	fv, err := series.NextValidIndex(v, 0)
	if err != nil {
		return nil, err
	}
	alpha := 2 / (1 + float64(w))
	coeff := 1 - alpha

	out := make([]float64, len(v))
	for i := 0; i < fv; i++ {
		out[i] = math.NaN()
	}
	curr := v[fv]
	out[fv] = curr
	for i := fv + 1; i < len(v); i++ {
		if !math.IsNaN(v[i]) {
			curr = alpha*v[i] + coeff*curr
		}
		out[i] = curr
	}
	return out, nil
}

// EWMAClosedForm computes the same average as EWMA without the serial
// recurrence, by expanding it into power, scale and offset arrays over
// a single cumulative sum. It requires dense input because the
// cumulative sum cannot skip holes, and it degrades for very long
// series where (1-alpha)^n underflows. Kept as the vectorized
// strategy; results agree with EWMA within floating tolerance.
func EWMAClosedForm(v []float64, w int) ([]float64, error) {
	if w <= 0 {
		return nil, fmt.Errorf("ewma closed form: window %d: %w", w, series.ErrDomain)
	}
	if err := series.CheckDense(v); err != nil {
		return nil, err
	}
	n := len(v)
	alpha := 2 / (1 + float64(w))
	rev := 1 - alpha

	pows := make([]float64, n+1)
	pows[0] = 1
	for i := 1; i <= n; i++ {
		pows[i] = pows[i-1] * rev
	}

	pw0 := alpha * pows[n-1]
	out := make([]float64, n)
	cum := 0.0
	for i := 0; i < n; i++ {
		scale := 1 / pows[i]
		cum += v[i] * pw0 * scale
		out[i] = v[0]*pows[i+1] + cum/pows[n-1-i]
	}
	return out, nil
}

// MMA is the modified (Wilder) moving average: an EWMA with smoothing
// alpha = 1/w, seeded and NaN-handled like EWMA.
func MMA(v []float64, w int) ([]float64, error) {
	if w <= 0 {
		return nil, fmt.Errorf("mma: window %d: %w", w, series.ErrDomain)
	}
	fv, err := series.NextValidIndex(v, 0)
	if err != nil {
		return nil, err
	}
	alpha := 1 / float64(w)
	coeff := 1 - alpha

	out := make([]float64, len(v))
	for i := 0; i < fv; i++ {
		out[i] = math.NaN()
	}
	curr := v[fv]
	out[fv] = curr
	for i := fv + 1; i < len(v); i++ {
		if !math.IsNaN(v[i]) {
			curr = alpha*v[i] + coeff*curr
		}
		out[i] = curr
	}
	return out, nil
}

// SMD is the simple moving median over a window of w observations.
func SMD(v []float64, w int) ([]float64, error) {
	med, err := series.RollingMedian(v, w)
	if err != nil {
		return nil, err
	}
	return padLeft(med, len(v)), nil
}

// DEMA is the double exponential moving average 2·e1 - e2, where the
// EWMAs are computed in waterfall.
func DEMA(v []float64, w int) ([]float64, error) {
	e1, err := EWMA(v, w)
	if err != nil {
		return nil, err
	}
	e2, err := EWMA(e1, w)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	for i := range out {
		out[i] = 2*e1[i] - e2[i]
	}
	return out, nil
}

// TEMA is the triple exponential moving average 3·e1 - 3·e2 + e3.
func TEMA(v []float64, w int) ([]float64, error) {
	e1, err := EWMA(v, w)
	if err != nil {
		return nil, err
	}
	e2, err := EWMA(e1, w)
	if err != nil {
		return nil, err
	}
	e3, err := EWMA(e2, w)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	for i := range out {
		out[i] = 3*e1[i] - 3*e2[i] + e3[i]
	}
	return out, nil
}

// padLeft re-aligns a rolling result of length n-w+1 onto the original
// n-length axis by prefixing NaNs.
func padLeft(tail []float64, n int) []float64 {
	out := make([]float64, n)
	lead := n - len(tail)
	for i := 0; i < lead; i++ {
		out[i] = math.NaN()
	}
	copy(out[lead:], tail)
	return out
}
