package indicator

import "math"

// trueRange computes the HLC true range at index i:
// max(high_i, close_{i-1}) - min(low_i, close_{i-1}).
func trueRange(high, low, close []float64, i int) float64 {
	prev := close[i-1]
	return math.Max(high[i], prev) - math.Min(low[i], prev)
}

// Tr is the per-step true range. With full HLC input it spans the bar
// and the previous close; with a close-only series it degrades to the
// absolute one-step difference. Output: tr.
type Tr struct {
	base
	high  []float64
	low   []float64
	close []float64
	isHLC bool
	tr    []float64
}

// NewTr builds a close-only true range indicator.
func NewTr(close []float64, mode Mode) (*Tr, error) {
	t := &Tr{close: close}
	if err := t.init("tr", mode, 2, close); err != nil {
		return nil, err
	}
	t.wire(mode)
	return t, nil
}

// NewTrHLC builds a true range indicator over high/low/close rows.
func NewTrHLC(high, low, close []float64, mode Mode) (*Tr, error) {
	t := &Tr{high: high, low: low, close: close, isHLC: true}
	if err := t.init("tr", mode, 2, high, low, close); err != nil {
		return nil, err
	}
	t.wire(mode)
	return t, nil
}

func (t *Tr) wire(mode Mode) {
	t.fill = t.bulkFill
	if mode == Bulk {
		t.step = t.indBulk
	} else {
		t.step = t.indOnline
	}
}

func (t *Tr) at(i int) float64 {
	if t.isHLC {
		return trueRange(t.high, t.low, t.close, i)
	}
	return math.Abs(t.close[i] - t.close[i-1])
}

func (t *Tr) bulkFill(end int) {
	t.tr = nanSlice(t.maxT)
	for i := 1; i < end; i++ {
		t.tr[i] = t.at(i)
	}
}

func (t *Tr) indBulk() []float64 { return []float64{t.tr[t.t]} }

func (t *Tr) indOnline() []float64 {
	v := t.at(t.t)
	t.tr[t.t] = v
	return []float64{v}
}

func (t *Tr) Values() map[string][]float64 {
	return map[string][]float64{"tr": t.tr}
}

// Atr is the average true range: the first value at index w is the
// plain mean of the first w true ranges, every later one is the Wilder
// smoothing (atr·(w-1) + tr) / w. Accepts HLC or close-only input like
// Tr. Output: atr.
type Atr struct {
	base
	w     int
	high  []float64
	low   []float64
	close []float64
	isHLC bool
	atr   []float64
}

// NewAtr builds a close-only ATR indicator, using absolute one-step
// differences as the range proxy.
func NewAtr(close []float64, mode Mode, w int) (*Atr, error) {
	if err := checkW("atr", w); err != nil {
		return nil, err
	}
	a := &Atr{w: w, close: close}
	if err := a.init("atr", mode, w+1, close); err != nil {
		return nil, err
	}
	a.wire(mode)
	return a, nil
}

// NewAtrHLC builds an ATR indicator over high/low/close rows.
func NewAtrHLC(high, low, close []float64, mode Mode, w int) (*Atr, error) {
	if err := checkW("atr", w); err != nil {
		return nil, err
	}
	a := &Atr{w: w, high: high, low: low, close: close, isHLC: true}
	if err := a.init("atr", mode, w+1, high, low, close); err != nil {
		return nil, err
	}
	a.wire(mode)
	return a, nil
}

func (a *Atr) wire(mode Mode) {
	a.fill = a.bulkFill
	if mode == Bulk {
		a.step = a.indBulk
	} else {
		a.step = a.indOnline
	}
}

func (a *Atr) trAt(i int) float64 {
	if a.isHLC {
		return trueRange(a.high, a.low, a.close, i)
	}
	return math.Abs(a.close[i] - a.close[i-1])
}

func (a *Atr) bulkFill(end int) {
	a.atr = nanSlice(a.maxT)

	sum := 0.0
	for i := 1; i <= a.w && i < end; i++ {
		sum += a.trAt(i)
	}
	if end <= a.w {
		return
	}
	cur := sum / float64(a.w)
	a.atr[a.w] = cur
	for i := a.w + 1; i < end; i++ {
		cur = (cur*float64(a.w-1) + a.trAt(i)) / float64(a.w)
		a.atr[i] = cur
	}
}

func (a *Atr) indBulk() []float64 { return []float64{a.atr[a.t]} }

func (a *Atr) indOnline() []float64 {
	v := (a.atr[a.t-1]*float64(a.w-1) + a.trAt(a.t)) / float64(a.w)
	a.atr[a.t] = v
	return []float64{v}
}

func (a *Atr) Values() map[string][]float64 {
	return map[string][]float64{"atr": a.atr}
}
