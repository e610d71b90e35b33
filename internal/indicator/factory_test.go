package indicator

import (
	"errors"
	"testing"

	"quant-analytics/internal/series"
)

func factoryInput() SeriesInput {
	price, high, low, volume := eqFixtures()
	return SeriesInput{High: high, Low: low, Close: price, Volume: volume}
}

func TestBuild_KindsAndWindows(t *testing.T) {
	in := factoryInput()

	cases := []struct {
		spec     string
		wantKind string
	}{
		{"sma:10", "sma"},
		{"SMA:10", "sma"}, // case-insensitive
		{"csma", "csma"},
		{"ewma:20", "ewma"},
		{"smstd:10:0", "smstd"},
		{"vwap:10", "vwap"},
		{"rsi:14", "rsiwilder"},
		{"rsiwilder", "rsiwilder"}, // default window
		{"macd:26", "macd"},
		{"macd:52:24:18", "macd"},
		{"stochastic:14:3:5", "stochastic"},
		{"bollinger:20", "bollinger"},
		{"donchianhl:20:2", "donchian"},
		{"adx:14", "adx"},
		{"atrhlc:14", "atr"},
	}

	for _, tc := range cases {
		ind, err := Build(tc.spec, in, Bulk)
		if err != nil {
			t.Errorf("Build(%q): %v", tc.spec, err)
			continue
		}
		if got := ind.Name(); got != tc.wantKind {
			t.Errorf("Build(%q).Name() = %q, want %q", tc.spec, got, tc.wantKind)
		}
	}
}

// Every buildable kind must report output names matching the length
// of the value slice Next returns, in the documented order.
func TestOutputNames_AlignWithNext(t *testing.T) {
	in := factoryInput()

	specs := []string{
		"sma:10", "csma", "ewma:10", "dema:10", "tema:10", "smd:9",
		"smstd:10", "alma:9", "vwap:10", "rsiwilder:14", "rsicutler:14",
		"macd:26", "stochastic:14:3:5", "tsi:25:13", "cci:20", "aroon:14",
		"mfi:14", "fi", "fielder:13", "bollinger:20", "donchian:20",
		"trhlc", "atrhlc:14", "adx:14",
	}
	for _, spec := range specs {
		ind, err := Build(spec, in, Bulk)
		if err != nil {
			t.Fatalf("Build(%q): %v", spec, err)
		}
		names := OutputNames(ind.Name())
		if len(names) == 0 {
			t.Errorf("OutputNames(%q): empty", ind.Name())
			continue
		}
		if err := ind.Start(ind.MinLength()); err != nil {
			t.Fatalf("Start(%q): %v", spec, err)
		}
		_, vals, ok := ind.Next()
		if !ok {
			t.Fatalf("Next(%q): exhausted immediately", spec)
		}
		if len(vals) != len(names) {
			t.Errorf("%q: Next returned %d values, OutputNames has %d", spec, len(vals), len(names))
		}
		// Each reported name must exist in the Values map.
		full := ind.Values()
		for _, name := range names {
			if _, ok := full[name]; !ok {
				t.Errorf("%q: output %q missing from Values()", spec, name)
			}
		}
	}
}

func TestLabel(t *testing.T) {
	cases := map[string]string{
		"sma:10":     "sma_10",
		" SMA:10 ":   "sma_10",
		"macd:26:12": "macd_26_12",
		"csma":       "csma",
	}
	for spec, want := range cases {
		if got := Label(spec); got != want {
			t.Errorf("Label(%q) = %q, want %q", spec, got, want)
		}
	}
}

func TestBuild_BuiltIndicatorWalks(t *testing.T) {
	in := factoryInput()

	ind, err := Build("sma:10", in, Online)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ind.Start(10); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, ok := ind.Next(); !ok {
		t.Fatal("Next returned ok=false on a fresh walk")
	}
}

func TestBuild_Validation(t *testing.T) {
	in := factoryInput()

	cases := []string{
		"",             // empty spec
		"frobnicate:5", // unknown kind
		"sma",          // missing required window
		"sma:abc",      // window not an integer
	}
	for _, spec := range cases {
		if _, err := Build(spec, in, Bulk); !errors.Is(err, series.ErrDomain) {
			t.Errorf("Build(%q): err = %v, want ErrDomain", spec, err)
		}
	}

	// Constructor errors pass through: window 0 is rejected downstream.
	if _, err := Build("sma:0", in, Bulk); !errors.Is(err, series.ErrDomain) {
		t.Errorf("Build(sma:0): err = %v, want ErrDomain", err)
	}
}
