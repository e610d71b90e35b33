package indicator

// Mfi is the money flow index over price and volume rows. Each step
// classifies the change in the price·volume flow as positive or
// negative, and the index maps the rolling count ratio onto the 0-100
// oscillator scale. A window with no negative flows saturates at 100.
// Output: mfi.
type Mfi struct {
	base
	w      int
	price  []float64
	volume []float64

	mfi []float64
	pos []float64
	neg []float64

	rollPos float64
	rollNeg float64
}

// NewMfi builds an MFI indicator over parallel price and volume rows.
func NewMfi(price, volume []float64, mode Mode, w int) (*Mfi, error) {
	if err := checkW("mfi", w); err != nil {
		return nil, err
	}
	m := &Mfi{w: w, price: price, volume: volume}
	if err := m.init("mfi", mode, w, price, volume); err != nil {
		return nil, err
	}
	m.fill = m.bulkFill
	if mode == Bulk {
		m.step = m.indBulk
	} else {
		m.step = m.indOnline
	}
	return m, nil
}

func (m *Mfi) classify(t int) (pos, neg float64) {
	raw := m.price[t]*m.volume[t] - m.price[t-1]*m.volume[t-1]
	if raw > 0 {
		return 1, 0
	}
	if raw < 0 {
		return 0, 1
	}
	return 0, 0
}

func mfiOf(pos, neg float64) float64 {
	mf := pos / neg
	return 100 - 100/(1+mf)
}

func (m *Mfi) bulkFill(end int) {
	m.mfi = nanSlice(m.maxT)
	m.pos = make([]float64, m.maxT)
	m.neg = make([]float64, m.maxT)

	m.rollPos, m.rollNeg = 0, 0
	for t := 0; t < end; t++ {
		if t > 0 {
			m.pos[t], m.neg[t] = m.classify(t)
		}
		m.rollPos += m.pos[t]
		m.rollNeg += m.neg[t]
		if t >= m.w {
			m.rollPos -= m.pos[t-m.w]
			m.rollNeg -= m.neg[t-m.w]
		}
		if t >= m.w-1 {
			m.mfi[t] = mfiOf(m.rollPos, m.rollNeg)
		}
	}
}

func (m *Mfi) indBulk() []float64 { return []float64{m.mfi[m.t]} }

func (m *Mfi) indOnline() []float64 {
	m.pos[m.t], m.neg[m.t] = m.classify(m.t)
	m.rollPos += m.pos[m.t] - m.pos[m.t-m.w]
	m.rollNeg += m.neg[m.t] - m.neg[m.t-m.w]
	v := mfiOf(m.rollPos, m.rollNeg)
	m.mfi[m.t] = v
	return []float64{v}
}

func (m *Mfi) Values() map[string][]float64 {
	return map[string][]float64{"mfi": m.mfi}
}
