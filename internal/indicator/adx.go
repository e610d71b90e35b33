package indicator

import "math"

// Adx is the average directional index over high/low/close rows. The
// directional movements and the true range are Wilder-smoothed over w
// steps, the directional indicators are their percentage ratios, and
// the ADX itself is a second Wilder smoothing of the DX spread. The
// two smoothing stages mean a 2w warm-up. Outputs: plusdi, minusdi,
// adx.
type Adx struct {
	base
	w     int
	high  []float64
	low   []float64
	close []float64

	plusDI  []float64
	minusDI []float64
	adx     []float64
	dx      []float64

	smTR, smPlus, smMinus float64
}

// NewAdx builds an ADX indicator over high/low/close rows.
func NewAdx(high, low, close []float64, mode Mode, w int) (*Adx, error) {
	if err := checkW("adx", w); err != nil {
		return nil, err
	}
	a := &Adx{w: w, high: high, low: low, close: close}
	if err := a.init("adx", mode, 2*w, high, low, close); err != nil {
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

// moves computes the true range and directional movements at index t.
func (a *Adx) moves(t int) (tr, plusDM, minusDM float64) {
	hl := a.high[t] - a.low[t]
	hc := math.Abs(a.high[t] - a.close[t-1])
	lc := math.Abs(a.low[t] - a.close[t-1])
	tr = math.Max(hl, math.Max(hc, lc))

	up := a.high[t] - a.high[t-1]
	down := a.low[t-1] - a.low[t]
	if up > down && up > 0 {
		plusDM = up
	}
	if down > up && down > 0 {
		minusDM = down
	}
	return tr, plusDM, minusDM
}

// advance rolls the Wilder accumulators to index t and computes the
// directional indicators and the DX there. Valid for t > w.
func (a *Adx) advance(t int) {
	tr, pdm, mdm := a.moves(t)
	w := float64(a.w)
	a.smTR += tr - a.smTR/w
	a.smPlus += pdm - a.smPlus/w
	a.smMinus += mdm - a.smMinus/w

	pdi := 100 * a.smPlus / a.smTR
	mdi := 100 * a.smMinus / a.smTR
	a.plusDI[t] = pdi
	a.minusDI[t] = mdi
	a.dx[t] = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
}

func (a *Adx) bulkFill(end int) {
	a.plusDI = nanSlice(a.maxT)
	a.minusDI = nanSlice(a.maxT)
	a.adx = nanSlice(a.maxT)
	a.dx = nanSlice(a.maxT)

	// Seed the smoothed accumulators with the first w raw moves.
	a.smTR, a.smPlus, a.smMinus = 0, 0, 0
	for t := 1; t <= a.w; t++ {
		tr, pdm, mdm := a.moves(t)
		a.smTR += tr
		a.smPlus += pdm
		a.smMinus += mdm
	}

	dxSum := 0.0
	for t := a.w + 1; t < end; t++ {
		a.advance(t)
		if t <= 2*a.w {
			dxSum += a.dx[t]
			if t == 2*a.w {
				a.adx[t] = dxSum / float64(a.w)
			}
		} else {
			a.adx[t] = (a.adx[t-1]*float64(a.w-1) + a.dx[t]) / float64(a.w)
		}
	}
}

func (a *Adx) indBulk() []float64 {
	return []float64{a.plusDI[a.t], a.minusDI[a.t], a.adx[a.t]}
}

func (a *Adx) indOnline() []float64 {
	a.advance(a.t)
	if a.t == 2*a.w {
		sum := 0.0
		for t := a.w + 1; t <= 2*a.w; t++ {
			sum += a.dx[t]
		}
		a.adx[a.t] = sum / float64(a.w)
	} else {
		a.adx[a.t] = (a.adx[a.t-1]*float64(a.w-1) + a.dx[a.t]) / float64(a.w)
	}
	return []float64{a.plusDI[a.t], a.minusDI[a.t], a.adx[a.t]}
}

func (a *Adx) Values() map[string][]float64 {
	return map[string][]float64{"plusdi": a.plusDI, "minusdi": a.minusDI, "adx": a.adx}
}
