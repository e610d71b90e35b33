package indicator

import "math"

// Cci is the commodity channel index: the deviation of the price from
// its rolling mean, scaled by 0.015 times the rolling mean absolute
// deviation. The first w-1 positions borrow the earliest full-window
// mean so the deviation series has no warm-up hole of its own.
// Output: cci.
type Cci struct {
	base
	w  int
	ts []float64

	cci   []float64
	dmean []float64
	sma   float64
	mad   float64
}

// NewCci builds a CCI indicator over ts.
func NewCci(ts []float64, mode Mode, w int) (*Cci, error) {
	if err := checkW("cci", w); err != nil {
		return nil, err
	}
	c := &Cci{w: w, ts: ts}
	if err := c.init("cci", mode, w, ts); err != nil {
		return nil, err
	}
	c.fill = c.bulkFill
	if mode == Bulk {
		c.step = c.indBulk
	} else {
		c.step = c.indOnline
	}
	return c, nil
}

func (c *Cci) bulkFill(end int) {
	c.cci = nanSlice(c.maxT)
	c.dmean = nanSlice(c.maxT)

	// Rolling mean of the prices, back-filled with its first value.
	sma := make([]float64, end)
	sum := 0.0
	for i := 0; i < end; i++ {
		sum += c.ts[i]
		if i >= c.w {
			sum -= c.ts[i-c.w]
		}
		if i >= c.w-1 {
			sma[i] = sum / float64(c.w)
		}
	}
	for i := 0; i < c.w-1 && i < end; i++ {
		sma[i] = sma[c.w-1]
	}

	madSum := 0.0
	for i := 0; i < end; i++ {
		c.dmean[i] = c.ts[i] - sma[i]
		madSum += math.Abs(c.dmean[i])
		if i >= c.w {
			madSum -= math.Abs(c.dmean[i-c.w])
		}
		if i >= c.w-1 {
			c.mad = madSum / float64(c.w)
			c.cci[i] = c.dmean[i] / (0.015 * c.mad)
		}
	}
	c.sma = sma[end-1]
}

func (c *Cci) indBulk() []float64 { return []float64{c.cci[c.t]} }

func (c *Cci) indOnline() []float64 {
	c.sma += (c.ts[c.t] - c.ts[c.t-c.w]) / float64(c.w)
	dmean := c.ts[c.t] - c.sma
	c.mad += (math.Abs(dmean) - math.Abs(c.dmean[c.t-c.w])) / float64(c.w)
	v := dmean / (0.015 * c.mad)
	c.dmean[c.t] = dmean
	c.cci[c.t] = v
	return []float64{v}
}

func (c *Cci) Values() map[string][]float64 {
	return map[string][]float64{"cci": c.cci}
}
