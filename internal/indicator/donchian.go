package indicator

// Donchian is the Donchian channel: the extremes of a w-length window
// of highs and lows (or of a single close series), optionally shifted
// back in time so the channel trails the price. Outputs: high, mean,
// low.
type Donchian struct {
	base
	w     int
	shift int
	high  []float64
	low   []float64
	isHL  bool

	hiArr []float64
	maArr []float64
	loArr []float64
}

// NewDonchian builds a Donchian channel over a single close series.
// shift moves the window shift periods into the past.
func NewDonchian(close []float64, mode Mode, w, shift int) (*Donchian, error) {
	if err := checkW("donchian", w); err != nil {
		return nil, err
	}
	if shift < 0 {
		shift = -shift
	}
	d := &Donchian{w: w, shift: shift, high: close, low: close}
	if err := d.init("donchian", mode, w+shift, close); err != nil {
		return nil, err
	}
	d.wire(mode)
	return d, nil
}

// NewDonchianHL builds a Donchian channel over high/low rows.
func NewDonchianHL(high, low []float64, mode Mode, w, shift int) (*Donchian, error) {
	if err := checkW("donchian", w); err != nil {
		return nil, err
	}
	if shift < 0 {
		shift = -shift
	}
	d := &Donchian{w: w, shift: shift, high: high, low: low, isHL: true}
	if err := d.init("donchian", mode, w+shift, high, low); err != nil {
		return nil, err
	}
	d.wire(mode)
	return d, nil
}

func (d *Donchian) wire(mode Mode) {
	d.fill = d.bulkFill
	if mode == Bulk {
		d.step = d.indBulk
	} else {
		d.step = d.indOnline
	}
}

func (d *Donchian) at(t int) (hi, lo float64) {
	start := t - d.w - d.shift + 1
	end := t - d.shift + 1
	hi, lo = d.high[start], d.low[start]
	for i := start + 1; i < end; i++ {
		if d.high[i] > hi {
			hi = d.high[i]
		}
		if d.low[i] < lo {
			lo = d.low[i]
		}
	}
	return hi, lo
}

func (d *Donchian) bulkFill(end int) {
	d.hiArr = nanSlice(d.maxT)
	d.maArr = nanSlice(d.maxT)
	d.loArr = nanSlice(d.maxT)
	for t := d.w + d.shift - 1; t < end; t++ {
		hi, lo := d.at(t)
		d.hiArr[t] = hi
		d.loArr[t] = lo
		d.maArr[t] = 0.5 * (hi + lo)
	}
}

func (d *Donchian) indBulk() []float64 {
	return []float64{d.hiArr[d.t], d.maArr[d.t], d.loArr[d.t]}
}

func (d *Donchian) indOnline() []float64 {
	hi, lo := d.at(d.t)
	mean := 0.5 * (hi + lo)
	d.hiArr[d.t] = hi
	d.loArr[d.t] = lo
	d.maArr[d.t] = mean
	return []float64{hi, mean, lo}
}

func (d *Donchian) Values() map[string][]float64 {
	return map[string][]float64{"high": d.hiArr, "mean": d.maArr, "low": d.loArr}
}
