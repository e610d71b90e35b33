package indicator

// Fi is the force index: the one-step price change scaled by the
// traded volume. Output: fi.
type Fi struct {
	base
	price  []float64
	volume []float64
	fi     []float64
}

// NewFi builds a force index indicator over parallel price and volume
// rows.
func NewFi(price, volume []float64, mode Mode) (*Fi, error) {
	f := &Fi{price: price, volume: volume}
	if err := f.init("fi", mode, 2, price, volume); err != nil {
		return nil, err
	}
	f.fill = f.bulkFill
	if mode == Bulk {
		f.step = f.indBulk
	} else {
		f.step = f.indOnline
	}
	return f, nil
}

func (f *Fi) at(t int) float64 {
	return (f.price[t] - f.price[t-1]) * f.volume[t]
}

func (f *Fi) bulkFill(end int) {
	f.fi = nanSlice(f.maxT)
	for t := 1; t < end; t++ {
		f.fi[t] = f.at(t)
	}
}

func (f *Fi) indBulk() []float64 { return []float64{f.fi[f.t]} }

func (f *Fi) indOnline() []float64 {
	v := f.at(f.t)
	f.fi[f.t] = v
	return []float64{v}
}

func (f *Fi) Values() map[string][]float64 {
	return map[string][]float64{"fi": f.fi}
}

// FiElder is Elder's force index: the rolling mean of the force index
// over the last w steps, defined from index w onward (the first index
// with w full price changes). Output: fielder.
type FiElder struct {
	base
	w      int
	price  []float64
	volume []float64

	fi  []float64
	fie []float64
}

// NewFiElder builds an Elder force index indicator over parallel price
// and volume rows.
func NewFiElder(price, volume []float64, mode Mode, w int) (*FiElder, error) {
	if err := checkW("fielder", w); err != nil {
		return nil, err
	}
	f := &FiElder{w: w, price: price, volume: volume}
	if err := f.init("fielder", mode, w+1, price, volume); err != nil {
		return nil, err
	}
	f.fill = f.bulkFill
	if mode == Bulk {
		f.step = f.indBulk
	} else {
		f.step = f.indOnline
	}
	return f, nil
}

func (f *FiElder) at(t int) float64 {
	return (f.price[t] - f.price[t-1]) * f.volume[t]
}

func (f *FiElder) bulkFill(end int) {
	f.fi = nanSlice(f.maxT)
	f.fie = nanSlice(f.maxT)

	sum := 0.0
	for t := 1; t < end; t++ {
		f.fi[t] = f.at(t)
		sum += f.fi[t]
		if t > f.w {
			sum -= f.fi[t-f.w]
		}
		if t >= f.w {
			f.fie[t] = sum / float64(f.w)
		}
	}
}

func (f *FiElder) indBulk() []float64 { return []float64{f.fie[f.t]} }

func (f *FiElder) indOnline() []float64 {
	fi := f.at(f.t)
	fie := f.fie[f.t-1] + (fi-f.fi[f.t-f.w])/float64(f.w)
	f.fi[f.t] = fi
	f.fie[f.t] = fie
	return []float64{fie}
}

func (f *FiElder) Values() map[string][]float64 {
	return map[string][]float64{"fielder": f.fie}
}
