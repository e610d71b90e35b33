package indicator

import (
	"fmt"
	"math"

	"quant-analytics/internal/series"
)

// Tsi is the true strength index: the one-step price changes are
// smoothed through a slow EWMA and then a fast one, and the double-
// smoothed change is scaled by the same double smoothing of its
// absolute value. Both chains seed at the first change. Output: tsi.
type Tsi struct {
	base
	ws, wf int
	as, cs float64
	af, cf float64
	ts     []float64

	tsi []float64
	fs  float64 // slow EWMA of changes
	pc  float64 // fast EWMA of fs
	fsA float64 // slow EWMA of |changes|
	pcA float64 // fast EWMA of fsA
}

// NewTsi builds a TSI indicator over ts with slow and fast smoothing
// windows.
func NewTsi(ts []float64, mode Mode, wSlow, wFast int) (*Tsi, error) {
	if wSlow <= 0 || wFast <= 0 {
		return nil, fmt.Errorf("tsi: windows %d/%d: %w", wSlow, wFast, series.ErrDomain)
	}
	t := &Tsi{ws: wSlow, wf: wFast, ts: ts}
	t.as = 2 / (1 + float64(wSlow))
	t.cs = 1 - t.as
	t.af = 2 / (1 + float64(wFast))
	t.cf = 1 - t.af
	if err := t.init("tsi", mode, wSlow+wFast, ts); err != nil {
		return nil, err
	}
	t.fill = t.bulkFill
	if mode == Bulk {
		t.step = t.indBulk
	} else {
		t.step = t.indOnline
	}
	return t, nil
}

func (t *Tsi) stepAt(i int) float64 {
	d := t.ts[i] - t.ts[i-1]
	t.fs = t.as*d + t.cs*t.fs
	t.pc = t.af*t.fs + t.cf*t.pc
	ad := math.Abs(d)
	t.fsA = t.as*ad + t.cs*t.fsA
	t.pcA = t.af*t.fsA + t.cf*t.pcA
	return 100 * (t.pc / t.pcA)
}

func (t *Tsi) bulkFill(end int) {
	t.tsi = nanSlice(t.maxT)

	d1 := t.ts[1] - t.ts[0]
	t.fs, t.pc = d1, d1
	t.fsA, t.pcA = math.Abs(d1), math.Abs(d1)
	t.tsi[1] = 100 * (t.pc / t.pcA)
	for i := 2; i < end; i++ {
		t.tsi[i] = t.stepAt(i)
	}
}

func (t *Tsi) indBulk() []float64 { return []float64{t.tsi[t.t]} }

func (t *Tsi) indOnline() []float64 {
	v := t.stepAt(t.t)
	t.tsi[t.t] = v
	return []float64{v}
}

func (t *Tsi) Values() map[string][]float64 {
	return map[string][]float64{"tsi": t.tsi}
}
