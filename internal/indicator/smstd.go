package indicator

import (
	"fmt"
	"math"

	"quant-analytics/internal/series"
)

// Smstd is the rolling sample standard deviation over a window of w
// observations. The online step slides the mean and the centered sum
// of squares in O(1) instead of rescanning the window. Output: smstd.
type Smstd struct {
	base
	w    int
	ddof int
	ts   []float64
	std  []float64

	mean float64
	ssq  float64 // centered sum of squares of the current window
}

// NewSmstd builds a rolling standard deviation indicator over ts.
// ddof=1 gives the sample deviation matching the pandas default.
func NewSmstd(ts []float64, mode Mode, w, ddof int) (*Smstd, error) {
	if err := checkW("smstd", w); err != nil {
		return nil, err
	}
	if ddof < 0 || ddof >= w {
		return nil, fmt.Errorf("smstd: ddof %d with window %d: %w", ddof, w, series.ErrDomain)
	}
	s := &Smstd{w: w, ddof: ddof, ts: ts}
	if err := s.init("smstd", mode, w, ts); err != nil {
		return nil, err
	}
	s.fill = s.bulkFill
	if mode == Bulk {
		s.step = s.indBulk
	} else {
		s.step = s.indOnline
	}
	return s, nil
}

func (s *Smstd) bulkFill(end int) {
	s.std = nanSlice(s.maxT)
	for i := s.w - 1; i < end; i++ {
		m, ssq := momentsOf(s.ts[i-s.w+1 : i+1])
		s.std[i] = math.Sqrt(ssq / float64(s.w-s.ddof))
		if i == end-1 {
			s.mean, s.ssq = m, ssq
		}
	}
}

func (s *Smstd) indBulk() []float64 { return []float64{s.std[s.t]} }

func (s *Smstd) indOnline() []float64 {
	s.mean, s.ssq = slideMoments(s.mean, s.ssq, s.ts[s.t], s.ts[s.t-s.w], s.w)
	std := math.Sqrt(s.ssq / float64(s.w-s.ddof))
	s.std[s.t] = std
	return []float64{std}
}

func (s *Smstd) Values() map[string][]float64 {
	return map[string][]float64{"smstd": s.std}
}

// momentsOf computes the mean and centered sum of squares of a window.
func momentsOf(win []float64) (mean, ssq float64) {
	for _, x := range win {
		mean += x
	}
	mean /= float64(len(win))
	for _, x := range win {
		d := x - mean
		ssq += d * d
	}
	return mean, ssq
}

// slideMoments advances a window's mean and centered sum of squares
// when newV enters and oldV leaves. The update is algebraically exact;
// the max(0, ·) guard only absorbs rounding on near-constant windows.
func slideMoments(mean, ssq, newV, oldV float64, w int) (float64, float64) {
	newMean := mean + (newV-oldV)/float64(w)
	ssq += (newV - oldV) * (newV + oldV - newMean - mean)
	if ssq < 0 {
		ssq = 0
	}
	return newMean, ssq
}

// Csma is the cumulative simple moving average: the running mean of
// every observation seen so far. Output: csma.
type Csma struct {
	base
	ts    []float64
	ma    []float64
	sum   float64
	count int
}

// NewCsma builds a cumulative mean indicator over ts.
func NewCsma(ts []float64, mode Mode) (*Csma, error) {
	c := &Csma{ts: ts}
	if err := c.init("csma", mode, 1, ts); err != nil {
		return nil, err
	}
	c.fill = c.bulkFill
	if mode == Bulk {
		c.step = c.indBulk
	} else {
		c.step = c.indOnline
	}
	return c, nil
}

func (c *Csma) bulkFill(end int) {
	c.ma = nanSlice(c.maxT)
	c.sum, c.count = 0, 0
	for i := 0; i < end; i++ {
		c.sum += c.ts[i]
		c.count++
		c.ma[i] = c.sum / float64(c.count)
	}
}

func (c *Csma) indBulk() []float64 { return []float64{c.ma[c.t]} }

func (c *Csma) indOnline() []float64 {
	c.sum += c.ts[c.t]
	c.count++
	v := c.sum / float64(c.count)
	c.ma[c.t] = v
	return []float64{v}
}

func (c *Csma) Values() map[string][]float64 {
	return map[string][]float64{"csma": c.ma}
}
