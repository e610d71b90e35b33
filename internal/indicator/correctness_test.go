package indicator

import (
	"errors"
	"math"
	"testing"

	"quant-analytics/internal/series"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// mustStart builds the walk or fails the test.
func mustStart(t *testing.T, ind Indicator, t0 int) {
	t.Helper()
	if err := ind.Start(t0); err != nil {
		t.Fatalf("%s: Start(%d): %v", ind.Name(), t0, err)
	}
}

// ────────────────────────────────────────────────────────────
// SMA correctness
// ────────────────────────────────────────────────────────────

func TestSma_Correctness_Window3(t *testing.T) {
	// Hand-calculated SMA(3) for a known price series:
	// Prices: 100, 102, 104, 103, 105
	// SMA at index 2: (100+102+104)/3 = 102.0
	// SMA at index 3: (102+104+103)/3 = 103.0
	// SMA at index 4: (104+103+105)/3 = 104.0

	prices := []float64{100, 102, 104, 103, 105}
	sma, err := NewSma(prices, Bulk, 3)
	if err != nil {
		t.Fatalf("NewSma: %v", err)
	}
	mustStart(t, sma, 3)

	ti, vals, ok := sma.Next()
	if !ok || ti != 3 {
		t.Fatalf("first Next: t=%d ok=%v, want t=3 ok=true", ti, ok)
	}
	assertClose(t, "SMA(3) t=3", vals[0], 103.0, 1e-9)

	_, vals, ok = sma.Next()
	if !ok {
		t.Fatal("second Next exhausted early")
	}
	assertClose(t, "SMA(3) t=4", vals[0], 104.0, 1e-9)

	// The bulk fill also computed the earliest full window.
	assertClose(t, "SMA(3) history t=2", sma.Values()["sma"][2], 102.0, 1e-9)
}

// ────────────────────────────────────────────────────────────
// EWMA correctness
// ────────────────────────────────────────────────────────────

func TestEwma_Correctness_Window3(t *testing.T) {
	// EWMA(3): alpha = 2/(3+1) = 0.5, seeded at the first price.
	// Prices: 4, 6, 10, 8
	// t=0: 4
	// t=1: 0.5·6  + 0.5·4   = 5
	// t=2: 0.5·10 + 0.5·5   = 7.5
	// t=3: 0.5·8  + 0.5·7.5 = 7.75

	prices := []float64{4, 6, 10, 8}
	ewma, err := NewEwma(prices, Bulk, 3)
	if err != nil {
		t.Fatalf("NewEwma: %v", err)
	}
	mustStart(t, ewma, 3)

	_, vals, ok := ewma.Next()
	if !ok {
		t.Fatal("Next exhausted early")
	}
	assertClose(t, "EWMA(3) t=3", vals[0], 7.75, 1e-9)

	hist := ewma.Values()["ewma"]
	for i, want := range []float64{4, 5, 7.5} {
		assertClose(t, "EWMA(3) history", hist[i], want, 1e-9)
	}
}

// ────────────────────────────────────────────────────────────
// Rolling std / median / VWAP correctness
// ────────────────────────────────────────────────────────────

func TestSmstd_Correctness(t *testing.T) {
	// Sample std of any 3 consecutive values of 1,2,3,4 is 1.
	smstd, err := NewSmstd([]float64{1, 2, 3, 4}, Bulk, 3, 1)
	if err != nil {
		t.Fatalf("NewSmstd: %v", err)
	}
	mustStart(t, smstd, 3)
	_, vals, _ := smstd.Next()
	assertClose(t, "SMSTD(3) t=3", vals[0], 1.0, 1e-9)
}

func TestSmd_Correctness_EvenWindow(t *testing.T) {
	// Median of {104, 101} = 102.5 at t=3.
	smd, err := NewSmd([]float64{100, 102, 104, 101}, Bulk, 2)
	if err != nil {
		t.Fatalf("NewSmd: %v", err)
	}
	mustStart(t, smd, 2)
	_, vals, _ := smd.Next()
	assertClose(t, "SMD(2) t=2", vals[0], 103.0, 1e-9) // median{102,104}
	_, vals, _ = smd.Next()
	assertClose(t, "SMD(2) t=3", vals[0], 102.5, 1e-9)
}

func TestVwap_Correctness(t *testing.T) {
	// Prices 10,20,30 with volumes 1,2,3, window 2:
	// t=1: (10·1+20·2)/(1+2) = 50/3
	// t=2: (20·2+30·3)/(2+3) = 130/5 = 26
	vwap, err := NewVwap([]float64{10, 20, 30}, []float64{1, 2, 3}, Bulk, 2)
	if err != nil {
		t.Fatalf("NewVwap: %v", err)
	}
	mustStart(t, vwap, 2)
	_, vals, _ := vwap.Next()
	assertClose(t, "VWAP(2) t=2", vals[0], 26.0, 1e-9)
	assertClose(t, "VWAP(2) history t=1", vwap.Values()["vwap"][1], 50.0/3, 1e-9)
}

// ────────────────────────────────────────────────────────────
// RSI saturation
// ────────────────────────────────────────────────────────────

func TestRsiWilder_SaturatesOnMonotoneRise(t *testing.T) {
	// A strictly rising series never prints a loss, so the loss average
	// stays zero, the strength ratio is +Inf and the RSI pins at 100.
	rsi, err := NewRsiWilder([]float64{1, 2, 3, 4, 5, 6}, Bulk, 3)
	if err != nil {
		t.Fatalf("NewRsiWilder: %v", err)
	}
	mustStart(t, rsi, 3)
	for {
		ti, vals, ok := rsi.Next()
		if !ok {
			break
		}
		assertClose(t, "RSI on rise", vals[0], 100.0, 1e-9)
		_ = ti
	}
}

func TestRsiWilder_FlatSeriesIsNaN(t *testing.T) {
	// A flat series has zero gains and zero losses: 0/0 stays NaN all
	// the way through instead of being forced to 50.
	rsi, err := NewRsiWilder([]float64{5, 5, 5, 5, 5}, Bulk, 3)
	if err != nil {
		t.Fatalf("NewRsiWilder: %v", err)
	}
	mustStart(t, rsi, 3)
	_, vals, _ := rsi.Next()
	if !math.IsNaN(vals[0]) {
		t.Errorf("flat RSI: got %v, want NaN", vals[0])
	}
}

func TestMfi_SaturatesOnRisingFlow(t *testing.T) {
	// Money flow rises every step, so the negative count is zero and
	// the MFI pins at 100.
	mfi, err := NewMfi([]float64{1, 2, 3, 4}, []float64{1, 1, 1, 1}, Bulk, 2)
	if err != nil {
		t.Fatalf("NewMfi: %v", err)
	}
	mustStart(t, mfi, 2)
	_, vals, _ := mfi.Next()
	assertClose(t, "MFI rising flow", vals[0], 100.0, 1e-9)
}

// ────────────────────────────────────────────────────────────
// Bollinger band collapse
// ────────────────────────────────────────────────────────────

func TestBollinger_ConstantWindow(t *testing.T) {
	// On a constant window the band collapses onto the mean: both
	// bands equal the price, the width is zero and %b is 0/0 = NaN.
	bb, err := NewBollinger([]float64{7, 7, 7, 7, 7, 7}, Bulk, 3, 2.0)
	if err != nil {
		t.Fatalf("NewBollinger: %v", err)
	}
	mustStart(t, bb, 3)
	_, vals, _ := bb.Next() // high, mean, low, bperc, width
	assertClose(t, "band high", vals[0], 7.0, 1e-9)
	assertClose(t, "band mean", vals[1], 7.0, 1e-9)
	assertClose(t, "band low", vals[2], 7.0, 1e-9)
	if !math.IsNaN(vals[3]) {
		t.Errorf("%%b on constant window: got %v, want NaN", vals[3])
	}
	assertClose(t, "band width", vals[4], 0.0, 1e-9)
}

// ────────────────────────────────────────────────────────────
// Aroon / Donchian window geometry
// ────────────────────────────────────────────────────────────

func TestAroon_Correctness(t *testing.T) {
	// Window of 4 over 1,5,3,2,4:
	// t=3 window {1,5,3,2}: argmax at offset 1 → up=25, argmin at 0 → down=0
	// t=4 window {5,3,2,4}: argmax at offset 0 → up=0,  argmin at 2 → down=50
	aroon, err := NewAroon([]float64{1, 5, 3, 2, 4}, Bulk, 4)
	if err != nil {
		t.Fatalf("NewAroon: %v", err)
	}
	mustStart(t, aroon, 4)
	_, vals, _ := aroon.Next()
	assertClose(t, "aroon up t=4", vals[0], 0.0, 1e-9)
	assertClose(t, "aroon down t=4", vals[1], 50.0, 1e-9)
	assertClose(t, "aroon osc t=4", vals[2], -50.0, 1e-9)

	up := aroon.Values()["up"]
	down := aroon.Values()["down"]
	assertClose(t, "aroon up t=3", up[3], 25.0, 1e-9)
	assertClose(t, "aroon down t=3", down[3], 0.0, 1e-9)
}

func TestDonchian_ShiftedWindow(t *testing.T) {
	// w=2, shift=1: the channel at t covers {ts[t-2], ts[t-1]}.
	// For 1,2,3,4,5,6 at t=3 that is {2,3}: high 3, mean 2.5, low 2.
	don, err := NewDonchian([]float64{1, 2, 3, 4, 5, 6}, Bulk, 2, 1)
	if err != nil {
		t.Fatalf("NewDonchian: %v", err)
	}
	mustStart(t, don, 3)
	_, vals, _ := don.Next()
	assertClose(t, "donchian high", vals[0], 3.0, 1e-9)
	assertClose(t, "donchian mean", vals[1], 2.5, 1e-9)
	assertClose(t, "donchian low", vals[2], 2.0, 1e-9)
}

// ────────────────────────────────────────────────────────────
// ATR seeding
// ────────────────────────────────────────────────────────────

func TestAtr_CloseOnly_Correctness(t *testing.T) {
	// Close 10,12,11,15 → ranges 2,1,4. With w=2 the seed at t=2 is
	// mean(2,1)=1.5 and t=3 smooths to (1.5·1+4)/2 = 2.75.
	atr, err := NewAtr([]float64{10, 12, 11, 15}, Bulk, 2)
	if err != nil {
		t.Fatalf("NewAtr: %v", err)
	}
	mustStart(t, atr, 3)
	_, vals, _ := atr.Next()
	assertClose(t, "ATR t=3", vals[0], 2.75, 1e-9)
	assertClose(t, "ATR seed t=2", atr.Values()["atr"][2], 1.5, 1e-9)
}

// ────────────────────────────────────────────────────────────
// Parameter and lifecycle validation
// ────────────────────────────────────────────────────────────

func TestMacd_WindowOrderValidation(t *testing.T) {
	ts := make([]float64, 64)
	for i := range ts {
		ts[i] = float64(i)
	}
	if _, err := NewMacd(ts, Bulk, 12, 26, 9); !errors.Is(err, series.ErrDomain) {
		t.Errorf("fast above slow: got %v, want ErrDomain", err)
	}
	if _, err := NewMacd(ts, Bulk, 26, 12, 15); !errors.Is(err, series.ErrDomain) {
		t.Errorf("signal above fast: got %v, want ErrDomain", err)
	}
	if _, err := NewMacd(ts, Bulk, 26, 12, 9); err != nil {
		t.Errorf("valid windows: got %v", err)
	}
}

func TestConstruction_Validation(t *testing.T) {
	if _, err := NewSma([]float64{1, 2, math.NaN(), 4, 5}, Bulk, 3); !errors.Is(err, series.ErrNanPresent) {
		t.Errorf("NaN input: got %v, want ErrNanPresent", err)
	}
	if _, err := NewSma([]float64{1, 2}, Bulk, 3); !errors.Is(err, series.ErrShortSeries) {
		t.Errorf("short input: got %v, want ErrShortSeries", err)
	}
	if _, err := NewSma([]float64{1, 2, 3}, Bulk, 0); !errors.Is(err, series.ErrDomain) {
		t.Errorf("zero window: got %v, want ErrDomain", err)
	}
	if _, err := NewVwap([]float64{1, 2, 3}, []float64{1, 2}, Bulk, 2); !errors.Is(err, series.ErrShape) {
		t.Errorf("ragged rows: got %v, want ErrShape", err)
	}
	if _, err := NewSmstd([]float64{1, 2, 3, 4}, Bulk, 3, 3); !errors.Is(err, series.ErrDomain) {
		t.Errorf("ddof >= window: got %v, want ErrDomain", err)
	}
	if _, err := NewAlmaFull([]float64{1, 2, 3, 4}, Bulk, 3, 1.5, 6); !errors.Is(err, series.ErrDomain) {
		t.Errorf("offset above 1: got %v, want ErrDomain", err)
	}
}

func TestLifecycle_StartBounds(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	sma, err := NewSma(prices, Online, 3)
	if err != nil {
		t.Fatalf("NewSma: %v", err)
	}
	if err := sma.Start(2); !errors.Is(err, series.ErrDomain) {
		t.Errorf("Start before warm-up: got %v, want ErrDomain", err)
	}
	if err := sma.Start(6); !errors.Is(err, series.ErrDomain) {
		t.Errorf("Start past end: got %v, want ErrDomain", err)
	}
}

func TestLifecycle_NextBeforeStart(t *testing.T) {
	sma, err := NewSma([]float64{1, 2, 3, 4}, Bulk, 3)
	if err != nil {
		t.Fatalf("NewSma: %v", err)
	}
	if _, _, ok := sma.Next(); ok {
		t.Error("Next before Start: got ok=true, want false")
	}
}

func TestLifecycle_Exhaustion(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	sma, err := NewSma(prices, Bulk, 3)
	if err != nil {
		t.Fatalf("NewSma: %v", err)
	}
	mustStart(t, sma, 3)
	steps := 0
	for {
		_, _, ok := sma.Next()
		if !ok {
			break
		}
		steps++
	}
	if steps != 2 { // indices 3 and 4
		t.Errorf("walk length: got %d, want 2", steps)
	}
	// Starting at the series end exhausts immediately.
	mustStart(t, sma, 5)
	if _, _, ok := sma.Next(); ok {
		t.Error("walk from t0=len: got ok=true, want immediate exhaustion")
	}
}
