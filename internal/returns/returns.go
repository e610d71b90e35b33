// Package returns converts price series into simple or logarithmic
// return series and compounds them back. All slice outputs stay
// aligned with the input dates: position i of a return series is the
// return realized between observations i-1 and i, so position 0 is
// always NaN.
package returns

import (
	"fmt"
	"math"

	"quant-analytics/internal/series"
)

// Ret computes simple returns v[i]/v[i-1] - 1 from a price series.
// Holes are forward-filled before differencing, so a price gap yields
// a zero return followed by the full catch-up move, not two NaNs.
func Ret(prices []float64) ([]float64, error) {
	return diffRet(prices, false)
}

// LogRet computes logarithmic returns ln(v[i]/v[i-1]) from a price
// series, with the same forward-fill treatment as Ret.
func LogRet(prices []float64) ([]float64, error) {
	return diffRet(prices, true)
}

func diffRet(prices []float64, isLog bool) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("returns: need at least 2 prices, have %d: %w", len(prices), series.ErrShortSeries)
	}
	vf := series.Ffill(prices, math.NaN())
	out := make([]float64, len(vf))
	out[0] = math.NaN()
	for i := 1; i < len(vf); i++ {
		if isLog {
			out[i] = math.Log(vf[i] / vf[i-1])
		} else {
			out[i] = vf[i]/vf[i-1] - 1
		}
	}
	return out, nil
}

// Compound compounds a rate of return r over t periods at frequency n:
// (1 + r/n)^t - 1.
func Compound(r, t, n float64) float64 {
	return math.Pow(1+r/n, t) - 1
}

// TotRet compounds a return series into the total return over the
// whole period. NaN entries are skipped, mirroring the NaN-as-missing
// convention of the return transforms.
func TotRet(rets []float64, isLog bool) float64 {
	if isLog {
		sum := 0.0
		for _, r := range rets {
			if !math.IsNaN(r) {
				sum += r
			}
		}
		return sum
	}
	prod := 1.0
	for _, r := range rets {
		if !math.IsNaN(r) {
			prod *= 1 + r
		}
	}
	return prod - 1
}

// TotRetFromPrices computes the total return between the first and
// last valid prices of the series.
func TotRetFromPrices(prices []float64, isLog bool) (float64, error) {
	first, _, err := series.NextValidValue(prices, 0)
	if err != nil {
		return 0, err
	}
	li, err := series.LastValidIndex(prices, len(prices)-1)
	if err != nil {
		return 0, err
	}
	last := prices[li]
	if isLog {
		return math.Log(last / first), nil
	}
	return last/first - 1, nil
}

// CompRet compounds a return series into a running level series
// starting from base. NaN returns compound as flat periods, so the
// level never regresses to NaN once established.
func CompRet(rets []float64, base float64, isLog bool) []float64 {
	out := make([]float64, len(rets))
	if isLog {
		sum := 0.0
		for i, r := range rets {
			if !math.IsNaN(r) {
				sum += r
			}
			out[i] = base * math.Exp(sum)
		}
		return out
	}
	prod := 1.0
	for i, r := range rets {
		if !math.IsNaN(r) {
			prod *= 1 + r
		}
		out[i] = base * prod
	}
	return out
}

// ExpRet is the per-period expected return of a return series: the
// geometric mean for simple returns and the arithmetic NaN-skipping
// mean for log returns.
func ExpRet(rets []float64, isLog bool) float64 {
	if len(rets) == 0 {
		return math.NaN()
	}
	if isLog {
		return series.NanMean(rets)
	}
	return Compound(TotRet(rets, false), 1/float64(len(rets)), 1)
}
