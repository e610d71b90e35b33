package indicator

// Sma is the simple moving average over a window of w observations.
// Output: sma.
type Sma struct {
	base
	w  int
	ts []float64
	ma []float64
}

// NewSma builds an SMA indicator over ts.
func NewSma(ts []float64, mode Mode, w int) (*Sma, error) {
	if err := checkW("sma", w); err != nil {
		return nil, err
	}
	s := &Sma{w: w, ts: ts}
	if err := s.init("sma", mode, w, ts); err != nil {
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

func (s *Sma) bulkFill(end int) {
	s.ma = nanSlice(s.maxT)
	sum := 0.0
	for i := 0; i < end; i++ {
		sum += s.ts[i]
		if i >= s.w {
			sum -= s.ts[i-s.w]
		}
		if i >= s.w-1 {
			s.ma[i] = sum / float64(s.w)
		}
	}
}

func (s *Sma) indBulk() []float64 { return []float64{s.ma[s.t]} }

func (s *Sma) indOnline() []float64 {
	ma := s.ma[s.t-1] + (s.ts[s.t]-s.ts[s.t-s.w])/float64(s.w)
	s.ma[s.t] = ma
	return []float64{ma}
}

func (s *Sma) Values() map[string][]float64 {
	return map[string][]float64{"sma": s.ma}
}
