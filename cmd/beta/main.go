// cmd/beta regresses an asset's returns against a benchmark's and
// prints the regression line, adjusted beta, correlation and the rest
// of the risk report.
//
// Usage:
//
//	go run ./cmd/beta --asset=RELIANCE --benchmark=NIFTY50 --window=60
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"quant-analytics/config"
	"quant-analytics/internal/calendar"
	"quant-analytics/internal/returns"
	"quant-analytics/internal/risk"
	"quant-analytics/internal/series"
	sqlitestore "quant-analytics/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	asset := flag.String("asset", "", "Asset ticker")
	benchmark := flag.String("benchmark", "", "Benchmark ticker")
	window := flag.Int("window", 0, "Rolling beta window in observations (0=whole-sample only)")
	useLog := flag.Bool("log", false, "Use log returns instead of simple returns")
	fromStr := flag.String("from", "", "Start date YYYY-MM-DD (inclusive)")
	toStr := flag.String("to", "", "End date YYYY-MM-DD (inclusive)")
	flag.Parse()

	if *asset == "" || *benchmark == "" {
		log.Fatal("[beta] --asset and --benchmark are required")
	}

	var from, to time.Time
	var err error
	if *fromStr != "" {
		if from, err = time.Parse("2006-01-02", *fromStr); err != nil {
			log.Fatalf("[beta] bad --from: %v", err)
		}
	}
	if *toStr != "" {
		if to, err = time.Parse("2006-01-02", *toStr); err != nil {
			log.Fatalf("[beta] bad --to: %v", err)
		}
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[beta] sqlite open failed: %v", err)
	}
	defer reader.Close()

	assetRet, benchRet, n, err := loadAlignedReturns(reader, *asset, *benchmark, from, to, *useLog)
	if err != nil {
		log.Fatalf("[beta] %v", err)
	}
	log.Printf("[beta] %d aligned return observations", n)

	reg, err := risk.Beta(assetRet, benchRet)
	if err != nil {
		log.Fatalf("[beta] regression failed: %v", err)
	}
	corr, err := risk.Correlation(assetRet, benchRet)
	if err != nil {
		log.Fatalf("[beta] correlation failed: %v", err)
	}

	fmt.Printf("\n%s vs %s\n", *asset, *benchmark)
	fmt.Printf("  beta (slope):     %9.4f\n", reg.Slope)
	fmt.Printf("  adjusted beta:    %9.4f\n", reg.Adjusted)
	fmt.Printf("  intercept:        %9.4f\n", reg.Intercept)
	fmt.Printf("  correlation:      %9.4f\n", corr)

	if te, err := risk.TrackingError(assetRet, benchRet); err == nil {
		fmt.Printf("  tracking error:   %9.4f\n", te)
	}
	if sharpe, err := risk.Sharpe(assetRet, nil); err == nil {
		fmt.Printf("  sharpe (rf=0):    %9.4f\n", sharpe)
	}
	if m, err := risk.SeriesMomenta(assetRet); err == nil {
		fmt.Printf("  return momenta:   mean=%.6f var=%.6f skew=%.4f kurt=%.4f\n",
			m.Mean, m.Variance, m.Skew, m.Kurtosis)
	}

	if *window > 0 {
		slope, intercept, err := risk.RollingBeta(assetRet, benchRet, *window)
		if err != nil {
			log.Fatalf("[beta] rolling beta failed: %v", err)
		}
		fmt.Printf("\nrolling beta (window=%d, %d windows)\n", *window, len(slope))
		last, lo, hi := summarizeRolling(slope)
		fmt.Printf("  latest:           %9.4f  (intercept %.4f)\n", last, intercept[len(intercept)-1])
		fmt.Printf("  min / max:        %9.4f / %.4f\n", lo, hi)
	}
}

// loadAlignedReturns reads both close series, intersects them on date
// and computes the return series over the aligned prices.
func loadAlignedReturns(reader *sqlitestore.Reader, asset, benchmark string, from, to time.Time, useLog bool) (assetRet, benchRet []float64, n int, err error) {
	aDates, aClose, err := reader.ReadCloseSeries(asset)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read %s: %w", asset, err)
	}
	bDates, bClose, err := reader.ReadCloseSeries(benchmark)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read %s: %w", benchmark, err)
	}
	if len(aClose) == 0 || len(bClose) == 0 {
		return nil, nil, 0, fmt.Errorf("no bars stored for %s or %s", asset, benchmark)
	}

	if !from.IsZero() || !to.IsZero() {
		lo, hi := series.SearchTrimRange(aDates, from, to)
		aDates, aClose = aDates[lo:hi], aClose[lo:hi]
		lo, hi = series.SearchTrimRange(bDates, from, to)
		bDates, bClose = bDates[lo:hi], bClose[lo:hi]
	}

	// Intersect on date so weekday gaps or missing bars on either
	// side never shift the pairs against each other.
	benchByDate := make(map[int64]float64, len(bDates))
	for i, d := range bDates {
		benchByDate[d.Unix()] = bClose[i]
	}
	var aPrices, bPrices []float64
	for i, d := range aDates {
		bv, ok := benchByDate[d.Unix()]
		if !ok {
			continue
		}
		aPrices = append(aPrices, aClose[i])
		bPrices = append(bPrices, bv)
	}
	if len(aPrices) < 3 {
		return nil, nil, 0, fmt.Errorf("only %d overlapping observations", len(aPrices))
	}

	// Coverage check against the business-day axis: large gaps usually
	// mean one side of the pair is missing bars.
	cal := calendar.New(nil)
	if expected := len(cal.Range(aDates[0], aDates[len(aDates)-1])); expected > 0 {
		log.Printf("[beta] %d aligned pairs over %d business days (%.0f%% coverage)",
			len(aPrices), expected, 100*float64(len(aPrices))/float64(expected))
	}

	ret := returns.Ret
	if useLog {
		ret = returns.LogRet
	}
	assetRet, err = ret(aPrices)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%s returns: %w", asset, err)
	}
	benchRet, err = ret(bPrices)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%s returns: %w", benchmark, err)
	}
	return assetRet, benchRet, len(assetRet), nil
}

// summarizeRolling returns the last value and NaN-skipping extremes.
func summarizeRolling(v []float64) (last, min, max float64) {
	last = v[len(v)-1]
	min, max = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return last, min, max
}
