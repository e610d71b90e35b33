package risk

import (
	"errors"
	"math"
	"testing"

	"quant-analytics/internal/series"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// Beta / correlation
// ────────────────────────────────────────────────────────────

func TestBeta_PerfectLinearFit(t *testing.T) {
	// y = 2x + 1 exactly, so slope=2, intercept=1 and the adjusted
	// beta is 1/3 + 2/3·2 = 5/3.
	bench := []float64{1, 2, 3, 4}
	asset := []float64{3, 5, 7, 9}

	reg, err := Beta(asset, bench)
	if err != nil {
		t.Fatalf("Beta: %v", err)
	}
	assertClose(t, "slope", reg.Slope, 2.0, 1e-9)
	assertClose(t, "intercept", reg.Intercept, 1.0, 1e-9)
	assertClose(t, "adjusted", reg.Adjusted, 5.0/3.0, 1e-9)
}

func TestBeta_DropsHolesJointly(t *testing.T) {
	// A hole in either series removes the pair; the remaining pairs
	// still sit exactly on y = 2x + 1.
	bench := []float64{1, 2, 3, 4}
	asset := []float64{3, 5, math.NaN(), 9}

	reg, err := Beta(asset, bench)
	if err != nil {
		t.Fatalf("Beta: %v", err)
	}
	assertClose(t, "slope", reg.Slope, 2.0, 1e-9)
	assertClose(t, "intercept", reg.Intercept, 1.0, 1e-9)
}

func TestBeta_TooFewPairs(t *testing.T) {
	nan := math.NaN()
	_, err := Beta([]float64{1, nan, nan}, []float64{2, 3, nan})
	if !errors.Is(err, series.ErrShortSeries) {
		t.Errorf("got %v, want ErrShortSeries", err)
	}
}

func TestRollingBeta_PerfectLinearFit(t *testing.T) {
	bench := []float64{1, 2, 3, 4, 5}
	asset := []float64{3, 5, 7, 9, 11}

	slope, intercept, err := RollingBeta(asset, bench, 3)
	if err != nil {
		t.Fatalf("RollingBeta: %v", err)
	}
	if len(slope) != 3 || len(intercept) != 3 {
		t.Fatalf("output length: got %d/%d, want 3", len(slope), len(intercept))
	}
	for i := range slope {
		assertClose(t, "rolling slope", slope[i], 2.0, 1e-9)
		assertClose(t, "rolling intercept", intercept[i], 1.0, 1e-9)
	}
}

func TestRollingBeta_MatchesWholeSample(t *testing.T) {
	// With the window covering the full series the rolling closed form
	// must reproduce the whole-sample OLS fit.
	bench := []float64{0.01, -0.02, 0.03, 0.005, -0.015, 0.02}
	asset := []float64{0.02, -0.03, 0.04, 0.002, -0.020, 0.03}

	reg, err := Beta(asset, bench)
	if err != nil {
		t.Fatalf("Beta: %v", err)
	}
	slope, intercept, err := RollingBeta(asset, bench, len(bench))
	if err != nil {
		t.Fatalf("RollingBeta: %v", err)
	}
	assertClose(t, "slope", slope[0], reg.Slope, 1e-9)
	assertClose(t, "intercept", intercept[0], reg.Intercept, 1e-9)
}

func TestCorrelation_Extremes(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	up := []float64{2, 4, 6, 8}
	down := []float64{8, 6, 4, 2}

	c, err := Correlation(up, x)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	assertClose(t, "positive", c, 1.0, 1e-9)

	c, err = Correlation(down, x)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	assertClose(t, "negative", c, -1.0, 1e-9)
}

// ────────────────────────────────────────────────────────────
// Sharpe / tracking error / momenta
// ────────────────────────────────────────────────────────────

func TestSharpe_Correctness(t *testing.T) {
	// Returns 0.1, 0.2, 0.3: mean 0.2, population std sqrt(0.02/3),
	// ratio 0.2/0.081650 = 2.449490 (= sqrt 6).
	s, err := Sharpe([]float64{0.1, 0.2, 0.3}, nil)
	if err != nil {
		t.Fatalf("Sharpe: %v", err)
	}
	assertClose(t, "sharpe", s, math.Sqrt(6), 1e-9)
}

func TestSharpe_WithBaseRate(t *testing.T) {
	// Excess over a flat 0.1 base: 0, 0.1, 0.2 → mean 0.1, same std.
	s, err := Sharpe([]float64{0.1, 0.2, 0.3}, []float64{0.1, 0.1, 0.1})
	if err != nil {
		t.Fatalf("Sharpe: %v", err)
	}
	assertClose(t, "excess sharpe", s, math.Sqrt(6)/2, 1e-9)
}

func TestSharpe_AllNaN(t *testing.T) {
	nan := math.NaN()
	if _, err := Sharpe([]float64{nan, nan}, nil); !errors.Is(err, series.ErrAllNaN) {
		t.Errorf("got %v, want ErrAllNaN", err)
	}
}

func TestTrackingError_Correctness(t *testing.T) {
	// Active returns 0, 0.1, 0.2: population std sqrt(0.02/3).
	te, err := TrackingError([]float64{0.1, 0.2, 0.3}, []float64{0.1, 0.1, 0.1})
	if err != nil {
		t.Fatalf("TrackingError: %v", err)
	}
	assertClose(t, "te", te, math.Sqrt(0.02/3), 1e-9)
}

func TestSeriesMomenta_Correctness(t *testing.T) {
	// 1..5: mean 3, population variance 2, symmetric so skew 0,
	// m4 = (16+1+0+1+16)/5 = 6.8 → kurtosis 6.8/4 = 1.7.
	m, err := SeriesMomenta([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("SeriesMomenta: %v", err)
	}
	assertClose(t, "mean", m.Mean, 3.0, 1e-9)
	assertClose(t, "variance", m.Variance, 2.0, 1e-9)
	assertClose(t, "skew", m.Skew, 0.0, 1e-9)
	assertClose(t, "kurtosis", m.Kurtosis, 1.7, 1e-9)
}

// ────────────────────────────────────────────────────────────
// Drawdown
// ────────────────────────────────────────────────────────────

func TestDrawdown_Correctness(t *testing.T) {
	// Prices 100, 120, 110, 90, 100 with w=3:
	// j=0 peak(100,120,110)=120, price 110 → 120/110-1 = 0.090909
	// j=1 peak(120,110, 90)=120, price  90 → 120/90-1  = 0.333333
	// j=2 peak(110, 90,100)=110, price 100 → 110/100-1 = 0.1
	// mdd is the trailing max: 0.090909, 0.333333, 0.333333.
	dd, mdd, err := Drawdown([]float64{100, 120, 110, 90, 100}, 3)
	if err != nil {
		t.Fatalf("Drawdown: %v", err)
	}
	wantDD := []float64{120.0/110.0 - 1, 120.0/90.0 - 1, 0.1}
	wantMDD := []float64{120.0/110.0 - 1, 120.0/90.0 - 1, 120.0/90.0 - 1}
	for i := range wantDD {
		assertClose(t, "dd", dd[i], wantDD[i], 1e-9)
		assertClose(t, "mdd", mdd[i], wantMDD[i], 1e-9)
	}
}

func TestDrawdown_Validation(t *testing.T) {
	if _, _, err := Drawdown([]float64{1, 2}, 0); !errors.Is(err, series.ErrDomain) {
		t.Errorf("zero window: got %v, want ErrDomain", err)
	}
	if _, _, err := Drawdown([]float64{1, 2}, 3); !errors.Is(err, series.ErrShortSeries) {
		t.Errorf("short series: got %v, want ErrShortSeries", err)
	}
}
