package indicator

import "strconv"

// Snapshottable is implemented by indicators whose online walk can be
// checkpointed and resumed without replaying the prefix. An indicator
// qualifies when its recurrence state is a handful of scalars; kinds
// that slide over derived window history (sorted medians, Cutler-style
// diffs) are rebuilt from Start instead.
type Snapshottable interface {
	Indicator
	// Snapshot captures the current recurrence state. Valid only after
	// Start.
	Snapshot() IndicatorSnapshot
	Restore(snap IndicatorSnapshot) error

	// snapID identifies the instance for Kind+Window matching without
	// touching run state.
	snapID() (kind string, window int)
}

// IndicatorSnapshot holds the serialized recurrence state of a single
// indicator instance. Kind and Window identify the instance; the rest
// is per-kind state, unused fields stay zero.
type IndicatorSnapshot struct {
	Kind   string `json:"kind"`
	Window int    `json:"window"`
	Cursor int    `json:"cursor"` // index of the last evaluated observation

	// moving-average state
	MA    float64 `json:"ma,omitempty"`
	Sum   float64 `json:"sum,omitempty"`
	Count int     `json:"count,omitempty"`

	// second-moment state
	Mean float64 `json:"mean,omitempty"`
	Ssq  float64 `json:"ssq,omitempty"`

	// gain/loss and range state
	MaUp   float64 `json:"ma_up,omitempty"`
	MaDown float64 `json:"ma_down,omitempty"`
	Atr    float64 `json:"atr,omitempty"`

	// macd state
	MaFast float64 `json:"ma_fast,omitempty"`
	MaSlow float64 `json:"ma_slow,omitempty"`
	Signal float64 `json:"signal,omitempty"`
}

// RunSnapshot holds the checkpointed state of every snapshottable
// indicator in one evaluation run.
type RunSnapshot struct {
	Ticker     string              `json:"ticker"`
	Indicators []IndicatorSnapshot `json:"indicators"`
	Version    int                 `json:"version"` // schema version for forward compat
}

// CaptureRun collects snapshots from the given indicators. Indicators
// that do not implement Snapshottable are skipped.
func CaptureRun(ticker string, inds []Indicator) *RunSnapshot {
	snap := &RunSnapshot{Ticker: ticker, Version: 1}
	for _, ind := range inds {
		si, ok := ind.(Snapshottable)
		if !ok {
			continue
		}
		snap.Indicators = append(snap.Indicators, si.Snapshot())
	}
	return snap
}

// RestoreRun restores matching indicators from a run snapshot and
// reports how many were restored. Matching is by Kind+Window rather
// than position, so parameter changes between runs leave unmatched
// indicators cold instead of failing the whole restore.
func RestoreRun(inds []Indicator, snap *RunSnapshot) (restored int, err error) {
	lookup := make(map[string]IndicatorSnapshot, len(snap.Indicators))
	for _, is := range snap.Indicators {
		lookup[snapKey(is.Kind, is.Window)] = is
	}
	for _, ind := range inds {
		si, ok := ind.(Snapshottable)
		if !ok {
			continue
		}
		kind, w := si.snapID()
		is, found := lookup[snapKey(kind, w)]
		if !found {
			continue
		}
		if err := si.Restore(is); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}

func snapKey(kind string, w int) string {
	return kind + ":" + strconv.Itoa(w)
}

// resume positions the cursor at snap.Cursor and marks the walk
// started, so the next Next call evaluates index Cursor+1. The
// restoring indicator validates kind, window and cursor bounds first.
func (b *base) resume(snap IndicatorSnapshot, w int) error {
	if snap.Kind != b.name {
		return errDomainf(b.name, "snapshot kind %q", snap.Kind)
	}
	if snap.Window != w {
		return errDomainf(b.name, "snapshot window %d, have %d", snap.Window, w)
	}
	if snap.Cursor < b.minLen-1 || snap.Cursor >= b.maxT {
		return errDomainf(b.name, "snapshot cursor %d outside [%d, %d)", snap.Cursor, b.minLen-1, b.maxT)
	}
	b.t = snap.Cursor
	b.started = true
	return nil
}

// ── per-kind snapshot state ──────────────────────────────────────────

func (s *Sma) snapID() (string, int)       { return s.name, s.w }
func (e *Ewma) snapID() (string, int)      { return e.name, e.w }
func (c *Csma) snapID() (string, int)      { return c.name, 0 }
func (s *Smstd) snapID() (string, int)     { return s.name, s.w }
func (r *RsiWilder) snapID() (string, int) { return r.name, r.w }
func (m *Macd) snapID() (string, int)      { return m.name, m.ws }
func (a *Atr) snapID() (string, int)       { return a.name, a.w }

func (s *Sma) Snapshot() IndicatorSnapshot {
	return IndicatorSnapshot{Kind: s.name, Window: s.w, Cursor: s.t, MA: s.ma[s.t]}
}

func (s *Sma) Restore(snap IndicatorSnapshot) error {
	if err := s.resume(snap, s.w); err != nil {
		return err
	}
	s.ma = nanSlice(s.maxT)
	s.ma[s.t] = snap.MA
	return nil
}

func (e *Ewma) Snapshot() IndicatorSnapshot {
	return IndicatorSnapshot{Kind: e.name, Window: e.w, Cursor: e.t, MA: e.ma[e.t]}
}

func (e *Ewma) Restore(snap IndicatorSnapshot) error {
	if err := e.resume(snap, e.w); err != nil {
		return err
	}
	e.ma = nanSlice(e.maxT)
	e.ma[e.t] = snap.MA
	return nil
}

func (c *Csma) Snapshot() IndicatorSnapshot {
	return IndicatorSnapshot{Kind: c.name, Window: 0, Cursor: c.t, Sum: c.sum, Count: c.count}
}

func (c *Csma) Restore(snap IndicatorSnapshot) error {
	if err := c.resume(snap, 0); err != nil {
		return err
	}
	c.ma = nanSlice(c.maxT)
	c.sum = snap.Sum
	c.count = snap.Count
	return nil
}

func (s *Smstd) Snapshot() IndicatorSnapshot {
	return IndicatorSnapshot{Kind: s.name, Window: s.w, Cursor: s.t, Mean: s.mean, Ssq: s.ssq}
}

func (s *Smstd) Restore(snap IndicatorSnapshot) error {
	if err := s.resume(snap, s.w); err != nil {
		return err
	}
	s.std = nanSlice(s.maxT)
	s.mean = snap.Mean
	s.ssq = snap.Ssq
	return nil
}

func (r *RsiWilder) Snapshot() IndicatorSnapshot {
	return IndicatorSnapshot{Kind: r.name, Window: r.w, Cursor: r.t, MaUp: r.maUp, MaDown: r.maDown}
}

func (r *RsiWilder) Restore(snap IndicatorSnapshot) error {
	if err := r.resume(snap, r.w); err != nil {
		return err
	}
	r.rsi = nanSlice(r.maxT)
	r.up = nanSlice(r.maxT)
	r.down = nanSlice(r.maxT)
	r.maUp = snap.MaUp
	r.maDown = snap.MaDown
	return nil
}

func (m *Macd) Snapshot() IndicatorSnapshot {
	return IndicatorSnapshot{
		Kind: m.name, Window: m.ws, Cursor: m.t,
		MaFast: m.maf, MaSlow: m.mas, Signal: m.signal[m.t],
	}
}

func (m *Macd) Restore(snap IndicatorSnapshot) error {
	if err := m.resume(snap, m.ws); err != nil {
		return err
	}
	m.macd = nanSlice(m.maxT)
	m.signal = nanSlice(m.maxT)
	m.hist = nanSlice(m.maxT)
	m.maf = snap.MaFast
	m.mas = snap.MaSlow
	m.signal[m.t] = snap.Signal
	return nil
}

func (a *Atr) Snapshot() IndicatorSnapshot {
	return IndicatorSnapshot{Kind: a.name, Window: a.w, Cursor: a.t, Atr: a.atr[a.t]}
}

func (a *Atr) Restore(snap IndicatorSnapshot) error {
	if err := a.resume(snap, a.w); err != nil {
		return err
	}
	a.atr = nanSlice(a.maxT)
	a.atr[a.t] = snap.Atr
	return nil
}
