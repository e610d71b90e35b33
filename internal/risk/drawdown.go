package risk

import (
	"fmt"
	"math"

	"quant-analytics/internal/series"
)

// Drawdown measures how far the price sits below the peak of its
// trailing w-window: dd = peak/price - 1, zero at a fresh peak. mdd is
// the worst drawdown inside the trailing w-window of dd itself; before
// a full dd window exists it carries the running maximum, with NaN
// positions treated as fully drawn down. Both outputs have length
// len(ts)-w+1.
func Drawdown(ts []float64, w int) (dd, mdd []float64, err error) {
	if w <= 0 {
		return nil, nil, fmt.Errorf("drawdown: window %d: %w", w, series.ErrDomain)
	}
	if len(ts) < w {
		return nil, nil, fmt.Errorf("drawdown: %d observations, window %d: %w", len(ts), w, series.ErrShortSeries)
	}

	n := len(ts) - w + 1
	dd = make([]float64, n)
	for j := 0; j < n; j++ {
		dd[j] = nanMax(ts[j:j+w])/ts[j+w-1] - 1
	}

	mdd = make([]float64, n)
	cur := -1.0
	for j := 0; j < n && j < w; j++ {
		x := dd[j]
		if math.IsNaN(x) {
			x = -1
		}
		if x > cur {
			cur = x
		}
		mdd[j] = cur
	}
	for j := w - 1; j < n; j++ {
		mdd[j] = nanMax(dd[j-w+1 : j+1])
	}
	return dd, mdd, nil
}

// nanMax is the NaN-skipping maximum; NaN when nothing is valid.
func nanMax(win []float64) float64 {
	out := math.NaN()
	for _, x := range win {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(out) || x > out {
			out = x
		}
	}
	return out
}
