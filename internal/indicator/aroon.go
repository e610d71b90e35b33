package indicator

// Aroon measures how recently the rolling window printed its extremes:
// up and down are 100·offset/w of the window argmax and argmin (ties
// resolve to the earliest position), and the oscillator is their
// difference. Outputs: up, down, aroon.
type Aroon struct {
	base
	w  int
	ts []float64

	up   []float64
	down []float64
	aro  []float64
}

// NewAroon builds an Aroon indicator over ts.
func NewAroon(ts []float64, mode Mode, w int) (*Aroon, error) {
	if err := checkW("aroon", w); err != nil {
		return nil, err
	}
	a := &Aroon{w: w, ts: ts}
	if err := a.init("aroon", mode, w, ts); err != nil {
		return nil, err
	}
	a.fill = a.bulkFill
	if mode == Bulk {
		a.step = a.indBulk
	} else {
		a.step = a.indOnline
	}
	return a, nil
}

func (a *Aroon) at(t int) (up, down float64) {
	win := a.ts[t-a.w+1 : t+1]
	iMax, iMin := 0, 0
	for j := 1; j < len(win); j++ {
		if win[j] > win[iMax] {
			iMax = j
		}
		if win[j] < win[iMin] {
			iMin = j
		}
	}
	return 100 * float64(iMax) / float64(a.w), 100 * float64(iMin) / float64(a.w)
}

func (a *Aroon) bulkFill(end int) {
	a.up = nanSlice(a.maxT)
	a.down = nanSlice(a.maxT)
	a.aro = nanSlice(a.maxT)
	for t := a.w - 1; t < end; t++ {
		up, down := a.at(t)
		a.up[t] = up
		a.down[t] = down
		a.aro[t] = up - down
	}
}

func (a *Aroon) indBulk() []float64 {
	return []float64{a.up[a.t], a.down[a.t], a.aro[a.t]}
}

func (a *Aroon) indOnline() []float64 {
	up, down := a.at(a.t)
	a.up[a.t] = up
	a.down[a.t] = down
	a.aro[a.t] = up - down
	return []float64{up, down, up - down}
}

func (a *Aroon) Values() map[string][]float64 {
	return map[string][]float64{"up": a.up, "down": a.down, "aroon": a.aro}
}
