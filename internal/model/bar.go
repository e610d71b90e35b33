package model

import (
	"encoding/json"
	"time"
)

// Bar is one OHLCV observation of a stored price series. Prices are
// float64 with NaN marking a missing field, matching the series
// packages.
type Bar struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"` // UTC, midnight-aligned for daily series
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Key returns the series key for this bar's instrument.
func (b *Bar) Key() string {
	return b.Ticker
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}
