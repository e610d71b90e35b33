package model

import (
	"encoding/json"
	"math"
	"time"
)

// IndicatorResult is one evaluated indicator step: the output values
// of a single indicator at a single observation.
type IndicatorResult struct {
	Ticker string    `json:"ticker"`
	Name   string    `json:"name"` // indicator kind, e.g. "sma"
	Date   time.Time `json:"date"`
	T      int       `json:"t"` // index within the evaluated series

	// Values maps output name to value, e.g. {"macd": …, "signal": …}.
	Values map[string]float64 `json:"values"`
}

// Key returns the stream key for this result: "ticker:name".
func (r *IndicatorResult) Key() string {
	return r.Ticker + ":" + r.Name
}

// JSON returns the JSON-encoded result. NaN outputs (warm-up values,
// collapsed denominators) encode as null, since JSON has no NaN.
func (r *IndicatorResult) JSON() []byte {
	vals := make(map[string]*float64, len(r.Values))
	for k, v := range r.Values {
		if math.IsNaN(v) {
			vals[k] = nil
			continue
		}
		v := v
		vals[k] = &v
	}
	out, _ := json.Marshal(struct {
		Ticker string              `json:"ticker"`
		Name   string              `json:"name"`
		Date   time.Time           `json:"date"`
		T      int                 `json:"t"`
		Values map[string]*float64 `json:"values"`
	}{r.Ticker, r.Name, r.Date, r.T, vals})
	return out
}
