package indicator

import (
	"fmt"
	"math"

	"quant-analytics/internal/series"
)

// Bollinger computes Bollinger bands: a rolling mean with bands at
// alpha rolling standard deviations, plus the %b position of the price
// within the bands and the relative band width. On a constant window
// the band collapses and %b degrades to NaN (0/0). The online step
// slides both moments in O(1). Outputs: high, mean, low, bperc, width.
type Bollinger struct {
	base
	w     int
	alpha float64
	ts    []float64

	maArr  []float64
	lowArr []float64
	hiArr  []float64
	bp     []float64
	width  []float64

	mean float64
	ssq  float64
}

// NewBollinger builds a Bollinger band indicator over ts with bands at
// alpha standard deviations.
func NewBollinger(ts []float64, mode Mode, w int, alpha float64) (*Bollinger, error) {
	if w < 2 {
		return nil, fmt.Errorf("bollinger: window %d below 2: %w", w, series.ErrDomain)
	}
	if alpha <= 0 || math.IsNaN(alpha) {
		return nil, fmt.Errorf("bollinger: band multiplier %g: %w", alpha, series.ErrDomain)
	}
	b := &Bollinger{w: w, alpha: alpha, ts: ts}
	if err := b.init("bollinger", mode, w, ts); err != nil {
		return nil, err
	}
	b.fill = b.bulkFill
	if mode == Bulk {
		b.step = b.indBulk
	} else {
		b.step = b.indOnline
	}
	return b, nil
}

func (b *Bollinger) bulkFill(end int) {
	b.maArr = nanSlice(b.maxT)
	b.lowArr = nanSlice(b.maxT)
	b.hiArr = nanSlice(b.maxT)
	b.bp = nanSlice(b.maxT)
	b.width = nanSlice(b.maxT)

	for i := b.w - 1; i < end; i++ {
		m, ssq := momentsOf(b.ts[i-b.w+1 : i+1])
		std := math.Sqrt(ssq / float64(b.w-1))
		b.write(i, m, std)
		if i == end-1 {
			b.mean, b.ssq = m, ssq
		}
	}
}

func (b *Bollinger) write(i int, mean, std float64) {
	dev := b.alpha * std
	low := mean - dev
	high := mean + dev
	diff := 2 * dev
	b.maArr[i] = mean
	b.lowArr[i] = low
	b.hiArr[i] = high
	b.bp[i] = (b.ts[i] - low) / diff
	b.width[i] = diff / mean
}

func (b *Bollinger) indBulk() []float64 {
	return []float64{b.hiArr[b.t], b.maArr[b.t], b.lowArr[b.t], b.bp[b.t], b.width[b.t]}
}

func (b *Bollinger) indOnline() []float64 {
	b.mean, b.ssq = slideMoments(b.mean, b.ssq, b.ts[b.t], b.ts[b.t-b.w], b.w)
	std := math.Sqrt(b.ssq / float64(b.w-1))
	b.write(b.t, b.mean, std)
	return []float64{b.hiArr[b.t], b.maArr[b.t], b.lowArr[b.t], b.bp[b.t], b.width[b.t]}
}

func (b *Bollinger) Values() map[string][]float64 {
	return map[string][]float64{
		"high": b.hiArr, "mean": b.maArr, "low": b.lowArr,
		"bperc": b.bp, "width": b.width,
	}
}
