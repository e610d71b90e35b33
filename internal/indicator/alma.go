package indicator

import "math"

// Alma is the Arnaud Legoux moving average: a Gaussian-weighted window
// average whose peak sits at offset·(w-1) inside the window, with the
// curve width controlled by sigma. Output: alma.
type Alma struct {
	base
	w  int
	ts []float64

	weights []float64 // normalized Gaussian kernel, oldest first
	ma      []float64
}

// NewAlma builds an ALMA with offset 0.85 and sigma 6.
func NewAlma(ts []float64, mode Mode, w int) (*Alma, error) {
	return NewAlmaFull(ts, mode, w, 0.85, 6.0)
}

// NewAlmaFull builds an ALMA with explicit offset and sigma. Offset
// must lie in [0, 1] and sigma must be positive.
func NewAlmaFull(ts []float64, mode Mode, w int, offset, sigma float64) (*Alma, error) {
	if err := checkW("alma", w); err != nil {
		return nil, err
	}
	if offset < 0 || offset > 1 {
		return nil, errDomainf("alma", "offset %v outside [0, 1]", offset)
	}
	if sigma <= 0 {
		return nil, errDomainf("alma", "sigma %v not positive", sigma)
	}
	a := &Alma{w: w, ts: ts}
	if err := a.init("alma", mode, w, ts); err != nil {
		return nil, err
	}
	a.weights = almaWeights(w, offset, sigma)
	a.fill = a.bulkFill
	if mode == Bulk {
		a.step = a.indBulk
	} else {
		a.step = a.indOnline
	}
	return a, nil
}

// almaWeights returns the normalized Gaussian kernel for the window,
// oldest observation first.
func almaWeights(w int, offset, sigma float64) []float64 {
	m := offset * float64(w-1)
	s := float64(w) / sigma
	weights := make([]float64, w)
	var sum float64
	for j := 0; j < w; j++ {
		weights[j] = math.Exp(-(float64(j) - m) * (float64(j) - m) / (2 * s * s))
		sum += weights[j]
	}
	for j := range weights {
		weights[j] /= sum
	}
	return weights
}

// at computes the weighted window average ending at t.
func (a *Alma) at(t int) float64 {
	var out float64
	for j := 0; j < a.w; j++ {
		out += a.weights[j] * a.ts[t-a.w+1+j]
	}
	return out
}

func (a *Alma) bulkFill(end int) {
	a.ma = nanSlice(a.maxT)
	for t := a.w - 1; t < end; t++ {
		a.ma[t] = a.at(t)
	}
}

func (a *Alma) indBulk() []float64 { return []float64{a.ma[a.t]} }

func (a *Alma) indOnline() []float64 {
	out := a.at(a.t)
	a.ma[a.t] = out
	return []float64{out}
}

func (a *Alma) Values() map[string][]float64 {
	return map[string][]float64{"alma": a.ma}
}
