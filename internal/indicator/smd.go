package indicator

import "sort"

// Smd is the rolling median over a window of w observations. The
// online step maintains the current window as a sorted slice: the
// value leaving the window is removed and the entering one inserted by
// binary search, so each step costs O(w) moves instead of a full
// re-sort. Output: smd.
type Smd struct {
	base
	w   int
	ts  []float64
	med []float64
	win []float64 // sorted copy of the current window (online mode)
}

// NewSmd builds a rolling median indicator over ts.
func NewSmd(ts []float64, mode Mode, w int) (*Smd, error) {
	if err := checkW("smd", w); err != nil {
		return nil, err
	}
	s := &Smd{w: w, ts: ts}
	if err := s.init("smd", mode, w, ts); err != nil {
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

func (s *Smd) bulkFill(end int) {
	s.med = nanSlice(s.maxT)
	buf := make([]float64, s.w)
	for i := s.w - 1; i < end; i++ {
		copy(buf, s.ts[i-s.w+1:i+1])
		sort.Float64s(buf)
		s.med[i] = medianOfSorted(buf)
	}
	if s.mode == Online {
		// Seed the sorted window with the observations ending at
		// end-1, ready for the first slide.
		s.win = make([]float64, s.w)
		copy(s.win, s.ts[end-s.w:end])
		sort.Float64s(s.win)
	}
}

func (s *Smd) indBulk() []float64 { return []float64{s.med[s.t]} }

func (s *Smd) indOnline() []float64 {
	s.remove(s.ts[s.t-s.w])
	s.insert(s.ts[s.t])
	v := medianOfSorted(s.win)
	s.med[s.t] = v
	return []float64{v}
}

func (s *Smd) remove(x float64) {
	i := sort.SearchFloat64s(s.win, x)
	s.win = append(s.win[:i], s.win[i+1:]...)
}

func (s *Smd) insert(x float64) {
	i := sort.SearchFloat64s(s.win, x)
	s.win = append(s.win, 0)
	copy(s.win[i+1:], s.win[i:])
	s.win[i] = x
}

func (s *Smd) Values() map[string][]float64 {
	return map[string][]float64{"smd": s.med}
}

func medianOfSorted(win []float64) float64 {
	m := len(win) / 2
	if len(win)%2 == 1 {
		return win[m]
	}
	return 0.5 * (win[m-1] + win[m])
}
