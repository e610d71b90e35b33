package indicator

import (
	"fmt"

	"quant-analytics/internal/series"
)

// Stochastic is the stochastic oscillator: the raw %K position of the
// price within its rolling w-price range, smoothed once into %D and
// again into a slow %D. If the two smoothing windows arrive reversed
// they are swapped silently so that wK <= wD. Outputs: pd, pdslow.
type Stochastic struct {
	base
	wp, wk, wd int
	ts         []float64

	pk     []float64
	pd     []float64
	pdSlow []float64
}

// NewStochastic builds a stochastic oscillator over ts with a price
// window wPrice and smoothing windows wK and wD.
func NewStochastic(ts []float64, mode Mode, wPrice, wK, wD int) (*Stochastic, error) {
	if wPrice <= 0 || wK <= 0 || wD <= 0 {
		return nil, fmt.Errorf("stochastic: windows %d/%d/%d: %w", wPrice, wK, wD, series.ErrDomain)
	}
	if wK > wD {
		wK, wD = wD, wK
	}
	s := &Stochastic{wp: wPrice, wk: wK, wd: wD, ts: ts}
	// First index with a fully warmed slow %D: wp-1 for %K, plus
	// wk-1 and wd-1 for the two smoothings, plus one step of margin
	// for the sliding updates.
	if err := s.init("stochastic", mode, wPrice+wK+wD-2, ts); err != nil {
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

func (s *Stochastic) pkAt(t int) float64 {
	win := s.ts[t-s.wp+1 : t+1]
	high, low := win[0], win[0]
	for _, x := range win[1:] {
		if x > high {
			high = x
		}
		if x < low {
			low = x
		}
	}
	return (s.ts[t] - low) / (high - low)
}

func (s *Stochastic) bulkFill(end int) {
	s.pk = nanSlice(s.maxT)
	s.pd = nanSlice(s.maxT)
	s.pdSlow = nanSlice(s.maxT)

	sumK, sumD := 0.0, 0.0
	for t := s.wp - 1; t < end; t++ {
		pk := s.pkAt(t)
		s.pk[t] = pk

		sumK += pk
		if t-s.wp+1 >= s.wk {
			sumK -= s.pk[t-s.wk]
		}
		if t >= s.wp+s.wk-2 {
			s.pd[t] = sumK / float64(s.wk)
			sumD += s.pd[t]
			if t-s.wp-s.wk+2 >= s.wd {
				sumD -= s.pd[t-s.wd]
			}
			if t >= s.wp+s.wk+s.wd-3 {
				s.pdSlow[t] = sumD / float64(s.wd)
			}
		}
	}
}

func (s *Stochastic) indBulk() []float64 {
	return []float64{s.pd[s.t], s.pdSlow[s.t]}
}

func (s *Stochastic) indOnline() []float64 {
	pk := s.pkAt(s.t)
	pd := s.pd[s.t-1] + (pk-s.pk[s.t-s.wk])/float64(s.wk)
	pdSlow := s.pdSlow[s.t-1] + (pd-s.pd[s.t-s.wd])/float64(s.wd)
	s.pk[s.t] = pk
	s.pd[s.t] = pd
	s.pdSlow[s.t] = pdSlow
	return []float64{pd, pdSlow}
}

func (s *Stochastic) Values() map[string][]float64 {
	return map[string][]float64{"pd": s.pd, "pdslow": s.pdSlow}
}
