package indicator

import (
	"fmt"

	"quant-analytics/internal/series"
)

// Macd is the moving average convergence divergence: the gap between a
// fast and a slow EWMA, with an EWMA signal line over the gap itself.
// Outputs: macd, signal, hist.
type Macd struct {
	base
	ws, wf, wm    int
	als, alf, alm float64
	cs, cf, cm    float64

	ts     []float64
	mas    float64
	maf    float64
	macd   []float64
	signal []float64
	hist   []float64
}

// NewMacd builds a MACD indicator over ts. wf must be strictly below
// ws and wm strictly below wf.
func NewMacd(ts []float64, mode Mode, ws, wf, wm int) (*Macd, error) {
	if ws <= 0 || wf <= 0 || wm <= 0 {
		return nil, fmt.Errorf("macd: windows %d/%d/%d: %w", ws, wf, wm, series.ErrDomain)
	}
	if wf >= ws {
		return nil, fmt.Errorf("macd: fast window %d not below slow %d: %w", wf, ws, series.ErrDomain)
	}
	if wm >= wf {
		return nil, fmt.Errorf("macd: signal window %d not below fast %d: %w", wm, wf, series.ErrDomain)
	}
	m := &Macd{ws: ws, wf: wf, wm: wm, ts: ts}
	m.als = 2 / (1 + float64(ws))
	m.alf = 2 / (1 + float64(wf))
	m.alm = 2 / (1 + float64(wm))
	m.cs = 1 - m.als
	m.cf = 1 - m.alf
	m.cm = 1 - m.alm
	if err := m.init("macd", mode, ws+wm-1, ts); err != nil {
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

func (m *Macd) bulkFill(end int) {
	m.macd = nanSlice(m.maxT)
	m.signal = nanSlice(m.maxT)
	m.hist = nanSlice(m.maxT)

	m.mas = m.ts[0]
	m.maf = m.ts[0]
	m.macd[0] = 0
	m.signal[0] = 0
	m.hist[0] = 0

	for i := 1; i < end; i++ {
		m.mas = m.als*m.ts[i] + m.cs*m.mas
		m.maf = m.alf*m.ts[i] + m.cf*m.maf
		m.macd[i] = m.maf - m.mas
		m.signal[i] = m.alm*m.macd[i] + m.cm*m.signal[i-1]
		m.hist[i] = m.macd[i] - m.signal[i]
	}
}

func (m *Macd) indBulk() []float64 {
	return []float64{m.macd[m.t], m.signal[m.t], m.hist[m.t]}
}

func (m *Macd) indOnline() []float64 {
	m.mas = m.als*m.ts[m.t] + m.cs*m.mas
	m.maf = m.alf*m.ts[m.t] + m.cf*m.maf
	macd := m.maf - m.mas
	signal := m.alm*macd + m.cm*m.signal[m.t-1]
	hist := macd - signal
	m.macd[m.t] = macd
	m.signal[m.t] = signal
	m.hist[m.t] = hist
	return []float64{macd, signal, hist}
}

func (m *Macd) Values() map[string][]float64 {
	return map[string][]float64{"macd": m.macd, "signal": m.signal, "hist": m.hist}
}
