package indicator

// Ewma is the exponentially weighted moving average with smoothing
// alpha = 2/(1+w), seeded at the first observation. Output: ewma.
type Ewma struct {
	base
	w     int
	alpha float64
	c     float64
	ts    []float64
	ma    []float64
}

// NewEwma builds an EWMA indicator over ts.
func NewEwma(ts []float64, mode Mode, w int) (*Ewma, error) {
	if err := checkW("ewma", w); err != nil {
		return nil, err
	}
	e := &Ewma{w: w, ts: ts}
	e.alpha = 2 / (1 + float64(w))
	e.c = 1 - e.alpha
	if err := e.init("ewma", mode, w, ts); err != nil {
		return nil, err
	}
	e.fill = e.bulkFill
	if mode == Bulk {
		e.step = e.indBulk
	} else {
		e.step = e.indOnline
	}
	return e, nil
}

func (e *Ewma) bulkFill(end int) {
	e.ma = nanSlice(e.maxT)
	e.ma[0] = e.ts[0]
	for i := 1; i < end; i++ {
		e.ma[i] = e.alpha*e.ts[i] + e.c*e.ma[i-1]
	}
}

func (e *Ewma) indBulk() []float64 { return []float64{e.ma[e.t]} }

func (e *Ewma) indOnline() []float64 {
	v := e.alpha*e.ts[e.t] + e.c*e.ma[e.t-1]
	e.ma[e.t] = v
	return []float64{v}
}

func (e *Ewma) Values() map[string][]float64 {
	return map[string][]float64{"ewma": e.ma}
}

// Dema is the double exponential moving average 2·e1 - e2 with the two
// EWMAs computed in waterfall. Output: dema.
type Dema struct {
	base
	w     int
	alpha float64
	c     float64
	ts    []float64
	out   []float64
	ma1   float64
	ma2   float64
}

// NewDema builds a DEMA indicator over ts.
func NewDema(ts []float64, mode Mode, w int) (*Dema, error) {
	if err := checkW("dema", w); err != nil {
		return nil, err
	}
	d := &Dema{w: w, ts: ts}
	d.alpha = 2 / (1 + float64(w))
	d.c = 1 - d.alpha
	if err := d.init("dema", mode, w, ts); err != nil {
		return nil, err
	}
	d.fill = d.bulkFill
	if mode == Bulk {
		d.step = d.indBulk
	} else {
		d.step = d.indOnline
	}
	return d, nil
}

func (d *Dema) bulkFill(end int) {
	d.out = nanSlice(d.maxT)
	d.ma1 = d.ts[0]
	d.ma2 = d.ts[0]
	d.out[0] = d.ts[0]
	for i := 1; i < end; i++ {
		d.ma1 = d.alpha*d.ts[i] + d.c*d.ma1
		d.ma2 = d.alpha*d.ma1 + d.c*d.ma2
		d.out[i] = 2*d.ma1 - d.ma2
	}
}

func (d *Dema) indBulk() []float64 { return []float64{d.out[d.t]} }

func (d *Dema) indOnline() []float64 {
	d.ma1 = d.alpha*d.ts[d.t] + d.c*d.ma1
	d.ma2 = d.alpha*d.ma1 + d.c*d.ma2
	v := 2*d.ma1 - d.ma2
	d.out[d.t] = v
	return []float64{v}
}

func (d *Dema) Values() map[string][]float64 {
	return map[string][]float64{"dema": d.out}
}

// Tema is the triple exponential moving average 3·e1 - 3·e2 + e3.
// Output: tema.
type Tema struct {
	base
	w     int
	alpha float64
	c     float64
	ts    []float64
	out   []float64
	ma1   float64
	ma2   float64
	ma3   float64
}

// NewTema builds a TEMA indicator over ts.
func NewTema(ts []float64, mode Mode, w int) (*Tema, error) {
	if err := checkW("tema", w); err != nil {
		return nil, err
	}
	t := &Tema{w: w, ts: ts}
	t.alpha = 2 / (1 + float64(w))
	t.c = 1 - t.alpha
	if err := t.init("tema", mode, w, ts); err != nil {
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

func (t *Tema) bulkFill(end int) {
	t.out = nanSlice(t.maxT)
	t.ma1 = t.ts[0]
	t.ma2 = t.ts[0]
	t.ma3 = t.ts[0]
	t.out[0] = t.ts[0]
	for i := 1; i < end; i++ {
		t.ma1 = t.alpha*t.ts[i] + t.c*t.ma1
		t.ma2 = t.alpha*t.ma1 + t.c*t.ma2
		t.ma3 = t.alpha*t.ma2 + t.c*t.ma3
		t.out[i] = 3*t.ma1 - 3*t.ma2 + t.ma3
	}
}

func (t *Tema) indBulk() []float64 { return []float64{t.out[t.t]} }

func (t *Tema) indOnline() []float64 {
	t.ma1 = t.alpha*t.ts[t.t] + t.c*t.ma1
	t.ma2 = t.alpha*t.ma1 + t.c*t.ma2
	t.ma3 = t.alpha*t.ma2 + t.c*t.ma3
	v := 3*t.ma1 - 3*t.ma2 + t.ma3
	t.out[t.t] = v
	return []float64{v}
}

func (t *Tema) Values() map[string][]float64 {
	return map[string][]float64{"tema": t.out}
}
