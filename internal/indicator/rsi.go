package indicator

// The up/down split used by both RSI variants: gains keep their value
// in up, losses keep their magnitude in down. On a flat step both are
// zero. A zero down average makes the strength ratio +Inf and the RSI
// saturates naturally at 100; an all-flat window gives 0/0 and the RSI
// is NaN. Neither case is special-cased.
func upDown(prev, cur float64) (up, down float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiOf(maUp, maDown float64) float64 {
	rs := maUp / maDown
	return 100 - 100/(1+rs)
}

// RsiWilder is the relative strength index with exponentially smoothed
// gain and loss averages (smoothing 2/(1+w)), seeded at the first
// price difference. Output: rsi.
type RsiWilder struct {
	base
	w     int
	alpha float64
	c     float64
	ts    []float64

	rsi    []float64
	up     []float64
	down   []float64
	maUp   float64
	maDown float64
}

// NewRsiWilder builds a Wilder-style RSI indicator over ts.
func NewRsiWilder(ts []float64, mode Mode, w int) (*RsiWilder, error) {
	if err := checkW("rsiwilder", w); err != nil {
		return nil, err
	}
	r := &RsiWilder{w: w, ts: ts}
	r.alpha = 2 / (1 + float64(w))
	r.c = 1 - r.alpha
	minLen := w
	if minLen < 2 {
		minLen = 2 // the seed needs one full price difference
	}
	if err := r.init("rsiwilder", mode, minLen, ts); err != nil {
		return nil, err
	}
	r.fill = r.bulkFill
	if mode == Bulk {
		r.step = r.indBulk
	} else {
		r.step = r.indOnline
	}
	return r, nil
}

func (r *RsiWilder) bulkFill(end int) {
	r.rsi = nanSlice(r.maxT)
	r.up = nanSlice(r.maxT)
	r.down = nanSlice(r.maxT)

	r.up[1], r.down[1] = upDown(r.ts[0], r.ts[1])
	r.maUp = r.up[1]
	r.maDown = r.down[1]
	for i := 2; i < end; i++ {
		r.up[i], r.down[i] = upDown(r.ts[i-1], r.ts[i])
		r.maUp = r.alpha*r.up[i] + r.c*r.maUp
		r.maDown = r.alpha*r.down[i] + r.c*r.maDown
		r.rsi[i] = rsiOf(r.maUp, r.maDown)
	}
}

func (r *RsiWilder) indBulk() []float64 { return []float64{r.rsi[r.t]} }

func (r *RsiWilder) indOnline() []float64 {
	up, down := upDown(r.ts[r.t-1], r.ts[r.t])
	r.maUp = r.alpha*up + r.c*r.maUp
	r.maDown = r.alpha*down + r.c*r.maDown
	v := rsiOf(r.maUp, r.maDown)
	r.up[r.t] = up
	r.down[r.t] = down
	r.rsi[r.t] = v
	return []float64{v}
}

func (r *RsiWilder) Values() map[string][]float64 {
	return map[string][]float64{"rsi": r.rsi}
}

// RsiCutler is the relative strength index with simple moving averages
// of gains and losses over the last w differences, defined from index
// w onward (the first index with w full differences). Output: rsi.
type RsiCutler struct {
	base
	w  int
	ts []float64

	rsi    []float64
	up     []float64
	down   []float64
	maUp   float64
	maDown float64
}

// NewRsiCutler builds a Cutler-style RSI indicator over ts.
func NewRsiCutler(ts []float64, mode Mode, w int) (*RsiCutler, error) {
	if err := checkW("rsicutler", w); err != nil {
		return nil, err
	}
	r := &RsiCutler{w: w, ts: ts}
	if err := r.init("rsicutler", mode, w+1, ts); err != nil {
		return nil, err
	}
	r.fill = r.bulkFill
	if mode == Bulk {
		r.step = r.indBulk
	} else {
		r.step = r.indOnline
	}
	return r, nil
}

func (r *RsiCutler) bulkFill(end int) {
	r.rsi = nanSlice(r.maxT)
	r.up = nanSlice(r.maxT)
	r.down = nanSlice(r.maxT)

	sumUp, sumDown := 0.0, 0.0
	for i := 1; i < end; i++ {
		r.up[i], r.down[i] = upDown(r.ts[i-1], r.ts[i])
		sumUp += r.up[i]
		sumDown += r.down[i]
		if i > r.w {
			sumUp -= r.up[i-r.w]
			sumDown -= r.down[i-r.w]
		}
		if i >= r.w {
			r.maUp = sumUp / float64(r.w)
			r.maDown = sumDown / float64(r.w)
			r.rsi[i] = rsiOf(r.maUp, r.maDown)
		}
	}
}

func (r *RsiCutler) indBulk() []float64 { return []float64{r.rsi[r.t]} }

func (r *RsiCutler) indOnline() []float64 {
	up, down := upDown(r.ts[r.t-1], r.ts[r.t])
	r.maUp += (up - r.up[r.t-r.w]) / float64(r.w)
	r.maDown += (down - r.down[r.t-r.w]) / float64(r.w)
	v := rsiOf(r.maUp, r.maDown)
	r.up[r.t] = up
	r.down[r.t] = down
	r.rsi[r.t] = v
	return []float64{v}
}

func (r *RsiCutler) Values() map[string][]float64 {
	return map[string][]float64{"rsi": r.rsi}
}
