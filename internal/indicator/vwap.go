package indicator

// Vwap is the volume-weighted average price over a sliding window of w
// observations: the ratio of rolling price·volume turnover to rolling
// volume. A window that traded no volume yields NaN (0/0). Output:
// vwap.
type Vwap struct {
	base
	w      int
	price  []float64
	volume []float64

	vwap []float64
	sumP float64 // rolling price·volume turnover
	sumV float64 // rolling volume
}

// NewVwap builds a rolling VWAP indicator over parallel price and
// volume rows.
func NewVwap(price, volume []float64, mode Mode, w int) (*Vwap, error) {
	if err := checkW("vwap", w); err != nil {
		return nil, err
	}
	v := &Vwap{w: w, price: price, volume: volume}
	if err := v.init("vwap", mode, w, price, volume); err != nil {
		return nil, err
	}
	v.fill = v.bulkFill
	if mode == Bulk {
		v.step = v.indBulk
	} else {
		v.step = v.indOnline
	}
	return v, nil
}

func (v *Vwap) bulkFill(end int) {
	v.vwap = nanSlice(v.maxT)
	v.sumP, v.sumV = 0, 0
	for t := 0; t < end; t++ {
		v.sumP += v.price[t] * v.volume[t]
		v.sumV += v.volume[t]
		if t >= v.w {
			v.sumP -= v.price[t-v.w] * v.volume[t-v.w]
			v.sumV -= v.volume[t-v.w]
		}
		if t >= v.w-1 {
			v.vwap[t] = v.sumP / v.sumV
		}
	}
}

func (v *Vwap) indBulk() []float64 { return []float64{v.vwap[v.t]} }

func (v *Vwap) indOnline() []float64 {
	v.sumP += v.price[v.t]*v.volume[v.t] - v.price[v.t-v.w]*v.volume[v.t-v.w]
	v.sumV += v.volume[v.t] - v.volume[v.t-v.w]
	out := v.sumP / v.sumV
	v.vwap[v.t] = out
	return []float64{out}
}

func (v *Vwap) Values() map[string][]float64 {
	return map[string][]float64{"vwap": v.vwap}
}
