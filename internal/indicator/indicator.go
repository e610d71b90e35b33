// Package indicator implements dual-mode technical indicators over
// immutable series.
//
// Every indicator is constructed against a full input series and then
// driven through the same lifecycle regardless of kind:
//
//	ind, _ := NewSma(close, Bulk, 20)
//	_ = ind.Start(ind.MinLength())
//	for {
//	        t, vals, ok := ind.Next()
//	        if !ok {
//	                break
//	        }
//	        ...
//	}
//
// In Bulk mode Start precomputes the whole history and Next only reads
// it back. In Online mode Start precomputes the prefix before t0 and
// every Next advances the underlying recurrence by one step. Both
// modes evaluate the same formulas, so for any valid t0 the two walks
// agree within floating tolerance. Exhaustion is reported through
// Next's third return value rather than an error.
package indicator

import (
	"fmt"
	"math"

	"quant-analytics/internal/series"
)

var nan = math.NaN()

// Mode selects how an indicator evaluates its history.
type Mode uint8

const (
	// Bulk precomputes the full output arrays at Start.
	Bulk Mode = iota
	// Online precomputes only the warm-up prefix and advances one
	// observation per Next call.
	Online
)

// Indicator is the common contract of all dual-mode indicators.
type Indicator interface {
	// Name returns the indicator kind, e.g. "sma" or "bollinger".
	Name() string

	// Start positions the cursor so that the first Next call yields
	// the value at index t0. t0 must lie in [MinLength, series
	// length]; passing MinLength starts at the earliest index with a
	// full warm-up.
	Start(t0 int) error

	// Next advances the cursor by one and returns its index together
	// with the indicator's values at that index. ok is false once the
	// series is exhausted.
	Next() (t int, values []float64, ok bool)

	// Values returns the full output arrays computed so far, keyed by
	// output name. In online mode positions past the cursor are not
	// yet populated. Mainly for debugging and export.
	Values() map[string][]float64

	// MinLength is the minimum number of observations needed for a
	// single evaluation.
	MinLength() int
}

// base carries the cursor state machine shared by all indicators. The
// concrete type wires fill (history precomputation) and step (per-Next
// evaluation) in its constructor.
type base struct {
	name    string
	mode    Mode
	t       int
	maxT    int
	minLen  int
	started bool

	fill func(end int)
	step func() []float64
}

func (b *base) Name() string   { return b.name }
func (b *base) MinLength() int { return b.minLen }

// init validates the common construction preconditions: dense inputs
// of equal length, long enough for one evaluation.
func (b *base) init(name string, mode Mode, minLen int, inputs ...[]float64) error {
	n := len(inputs[0])
	for _, in := range inputs {
		if len(in) != n {
			return fmt.Errorf("%s: input rows %d vs %d: %w", name, len(in), n, series.ErrShape)
		}
		if err := series.CheckDense(in); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if n < minLen {
		return fmt.Errorf("%s: %d observations, need %d: %w", name, n, minLen, series.ErrShortSeries)
	}
	b.name = name
	b.mode = mode
	b.t = -1
	b.maxT = n
	b.minLen = minLen
	return nil
}

// Start positions the cursor one step before t0 and fills the history
// the mode requires: everything in bulk, the [0, t0) prefix online.
func (b *base) Start(t0 int) error {
	if t0 < b.minLen {
		return fmt.Errorf("%s: t0=%d before warm-up %d: %w", b.name, t0, b.minLen, series.ErrDomain)
	}
	if t0 > b.maxT {
		return fmt.Errorf("%s: t0=%d past series end %d: %w", b.name, t0, b.maxT, series.ErrDomain)
	}
	b.t = t0 - 1
	end := b.maxT
	if b.mode == Online {
		end = t0
	}
	b.fill(end)
	b.started = true
	return nil
}

func (b *base) Next() (int, []float64, bool) {
	if !b.started {
		return 0, nil, false
	}
	b.t++
	if b.t >= b.maxT {
		return b.t, nil, false
	}
	return b.t, b.step(), true
}

// nanSlice returns a length-n slice fully initialized to NaN.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}

// checkW validates a positive window parameter.
func checkW(name string, w int) error {
	if w <= 0 {
		return fmt.Errorf("%s: window %d: %w", name, w, series.ErrDomain)
	}
	return nil
}

// errDomainf wraps a parameter validation failure as ErrDomain.
func errDomainf(name, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", name, fmt.Sprintf(format, args...), series.ErrDomain)
}
