package ma

import (
	"errors"
	"math"
	"testing"

	"quant-analytics/internal/series"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(want) {
		if !math.IsNaN(got) {
			t.Errorf("%s: got %.6f, want NaN", label, got)
		}
		return
	}
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func assertSeries(t *testing.T, label string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d values, want %d", label, len(got), len(want))
	}
	for i := range got {
		assertClose(t, label, got[i], want[i], tol)
	}
}

func TestSMA(t *testing.T) {
	// Prices: 100, 102, 101, 105, 107
	// SMA(3): NaN, NaN, 101, 102.6667, 104.3333
	got, err := SMA([]float64{100, 102, 101, 105, 107}, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	nan := math.NaN()
	assertSeries(t, "sma3", got, []float64{nan, nan, 101, 102.66666667, 104.33333333}, 1e-7)

	if _, err := SMA([]float64{1, 2}, 3); !errors.Is(err, series.ErrShortSeries) {
		t.Errorf("short: got %v, want ErrShortSeries", err)
	}
}

func TestSMAApprox_ConvergesAndHoldsOnNaN(t *testing.T) {
	nan := math.NaN()
	v := []float64{nan, 10, 10, nan, 10}
	got, err := SMAApprox(v, 2)
	if err != nil {
		t.Fatalf("SMAApprox: %v", err)
	}
	// Seeded at the first valid value and flat on a constant series,
	// NaNs included.
	assertSeries(t, "approx", got, []float64{nan, 10, 10, 10, 10}, 1e-12)
}

func TestSMStd(t *testing.T) {
	got, err := SMStd([]float64{1, 2, 3, 4}, 3, 1)
	if err != nil {
		t.Fatalf("SMStd: %v", err)
	}
	nan := math.NaN()
	assertSeries(t, "smstd", got, []float64{nan, nan, 1, 1}, 1e-12)
}

func TestCSMA(t *testing.T) {
	nan := math.NaN()
	got := CSMA([]float64{2, nan, 4, 6})
	// Running means over valid values only: 2, 2, 3, 4.
	assertSeries(t, "csma", got, []float64{2, 2, 3, 4}, 1e-12)

	got = CSMA([]float64{nan, 8})
	assertSeries(t, "leading nan", got, []float64{nan, 8}, 1e-12)
}

func TestWMA(t *testing.T) {
	// Window {1,2,3} with weights 1,2,3: (1+4+9)/6 = 2.3333
	got, err := WMA([]float64{1, 2, 3, 4}, 3)
	if err != nil {
		t.Fatalf("WMA: %v", err)
	}
	nan := math.NaN()
	assertSeries(t, "wma", got, []float64{nan, nan, 14.0 / 6.0, 20.0 / 6.0}, 1e-12)

	// A hole drops its weight instead of poisoning the window:
	// {1,NaN,3} → (1·1 + 3·3)/(1+3) = 2.5
	gotH, _ := WMA([]float64{1, nan, 3}, 3)
	assertClose(t, "wma hole", gotH[2], 2.5, 1e-12)
}

func TestEWMA_Recurrence(t *testing.T) {
	// alpha = 2/(1+3) = 0.5, seeded at v[0]=4:
	// 4, 0.5·8+0.5·4=6, 0.5·14+0.5·6=10
	got, err := EWMA([]float64{4, 8, 14}, 3)
	if err != nil {
		t.Fatalf("EWMA: %v", err)
	}
	assertSeries(t, "ewma", got, []float64{4, 6, 10}, 1e-12)
}

func TestEWMA_NaNHoldsFlat(t *testing.T) {
	nan := math.NaN()
	got, err := EWMA([]float64{nan, 4, nan, 8}, 3)
	if err != nil {
		t.Fatalf("EWMA: %v", err)
	}
	assertSeries(t, "ewma nan", got, []float64{nan, 4, 4, 6}, 1e-12)

	if _, err := EWMA([]float64{nan, nan}, 3); !errors.Is(err, series.ErrAllNaN) {
		t.Errorf("all NaN: got %v, want ErrAllNaN", err)
	}
}

func TestEWMAClosedForm_MatchesRecurrence(t *testing.T) {
	v := []float64{100, 102, 101, 105, 107, 103, 108, 111, 109, 112}
	for _, w := range []int{2, 5, 9} {
		loop, err := EWMA(v, w)
		if err != nil {
			t.Fatalf("EWMA(w=%d): %v", w, err)
		}
		closed, err := EWMAClosedForm(v, w)
		if err != nil {
			t.Fatalf("EWMAClosedForm(w=%d): %v", w, err)
		}
		for i := range v {
			assertClose(t, "closed vs loop", closed[i], loop[i], 1e-9)
		}
	}
}

func TestEWMAClosedForm_RequiresDense(t *testing.T) {
	if _, err := EWMAClosedForm([]float64{1, math.NaN(), 3}, 2); !errors.Is(err, series.ErrNanPresent) {
		t.Errorf("holes: got %v, want ErrNanPresent", err)
	}
}

func TestMMA(t *testing.T) {
	// alpha = 1/2, same shape as EWMA(w=3) on this input.
	got, err := MMA([]float64{4, 8, 14}, 2)
	if err != nil {
		t.Fatalf("MMA: %v", err)
	}
	assertSeries(t, "mma", got, []float64{4, 6, 10}, 1e-12)
}

func TestSMD(t *testing.T) {
	got, err := SMD([]float64{5, 1, 4, 2, 3}, 3)
	if err != nil {
		t.Fatalf("SMD: %v", err)
	}
	nan := math.NaN()
	assertSeries(t, "smd", got, []float64{nan, nan, 4, 2, 3}, 1e-12)
}

func TestDemaTema_ConstantSeries(t *testing.T) {
	// On a constant series every EWMA equals the constant, so
	// DEMA = 2c - c = c and TEMA = 3c - 3c + c = c.
	v := []float64{7, 7, 7, 7, 7}

	d, err := DEMA(v, 3)
	if err != nil {
		t.Fatalf("DEMA: %v", err)
	}
	tm, err := TEMA(v, 3)
	if err != nil {
		t.Fatalf("TEMA: %v", err)
	}
	for i := range v {
		assertClose(t, "dema", d[i], 7, 1e-12)
		assertClose(t, "tema", tm[i], 7, 1e-12)
	}
}

func TestDEMA_Waterfall(t *testing.T) {
	// alpha=0.5: e1 = 4,6,10; e2 = 4,5,7.5; dema = 2e1-e2 = 4,7,12.5
	got, err := DEMA([]float64{4, 8, 14}, 3)
	if err != nil {
		t.Fatalf("DEMA: %v", err)
	}
	assertSeries(t, "dema", got, []float64{4, 7, 12.5}, 1e-12)
}
