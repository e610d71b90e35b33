// Package risk computes regression and performance statistics over
// return series: beta against a benchmark, correlation, sharpe ratio,
// drawdowns, distribution momenta and tracking error. Inputs are the
// NaN-marked slices produced by the returns package; every whole-sample
// statistic jointly drops positions where either series has a hole,
// while the rolling variants inherit the rolling kernel's NaN
// poisoning.
package risk

import (
	"fmt"
	"math"

	"quant-analytics/internal/series"
)

// Regression is the OLS fit of asset returns against benchmark
// returns. Slope is the raw beta; Adjusted shrinks it toward 1 as
// (2β+1)/3.
type Regression struct {
	Slope     float64
	Adjusted  float64
	Intercept float64
}

// Adjust shrinks a raw beta toward the market beta of 1.
func Adjust(beta float64) float64 {
	return 1.0/3.0 + 2.0/3.0*beta
}

// Beta regresses asset returns on benchmark returns over the whole
// sample. Positions where either series is NaN are dropped jointly; at
// least two valid pairs are required. A constant benchmark makes the
// slope degrade to ±Inf or NaN rather than erroring.
func Beta(asset, benchmark []float64) (Regression, error) {
	y, x, err := series.DropNA2(asset, benchmark)
	if err != nil {
		return Regression{}, fmt.Errorf("beta: %w", err)
	}
	if len(x) < 2 {
		return Regression{}, fmt.Errorf("beta: %d valid pairs, need 2: %w", len(x), series.ErrShortSeries)
	}

	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX float64
	for i := range x {
		dx := x[i] - meanX
		cov += dx * (y[i] - meanY)
		varX += dx * dx
	}

	slope := cov / varX
	return Regression{
		Slope:     slope,
		Adjusted:  Adjust(slope),
		Intercept: meanY - slope*meanX,
	}, nil
}

// RollingBeta computes the regression slope and intercept over every
// w-sized window via the closed-form normal equations on rolling sums.
// Outputs have length len(asset)-w+1; a NaN anywhere in the input
// poisons every later window, like the rolling sums it is built on.
func RollingBeta(asset, benchmark []float64, w int) (slope, intercept []float64, err error) {
	if len(asset) != len(benchmark) {
		return nil, nil, fmt.Errorf("rolling beta: %d vs %d values: %w", len(asset), len(benchmark), series.ErrShape)
	}

	xy := make([]float64, len(asset))
	xx := make([]float64, len(asset))
	for i := range asset {
		xy[i] = benchmark[i] * asset[i]
		xx[i] = benchmark[i] * benchmark[i]
	}

	sumX, err := series.RollingSum(benchmark, w)
	if err != nil {
		return nil, nil, fmt.Errorf("rolling beta: %w", err)
	}
	sumY, _ := series.RollingSum(asset, w)
	sumXY, _ := series.RollingSum(xy, w)
	sumXX, _ := series.RollingSum(xx, w)

	fw := float64(w)
	slope = make([]float64, len(sumX))
	intercept = make([]float64, len(sumX))
	for i := range sumX {
		slope[i] = (fw*sumXY[i] - sumX[i]*sumY[i]) / (fw*sumXX[i] - sumX[i]*sumX[i])
		intercept[i] = (sumY[i] - slope[i]*sumX[i]) / fw
	}
	return slope, intercept, nil
}

// Correlation is the Pearson correlation between the two series over
// the whole sample, with joint NaN dropping.
func Correlation(asset, benchmark []float64) (float64, error) {
	y, x, err := series.DropNA2(asset, benchmark)
	if err != nil {
		return 0, fmt.Errorf("correlation: %w", err)
	}
	if len(x) < 2 {
		return 0, fmt.Errorf("correlation: %d valid pairs, need 2: %w", len(x), series.ErrShortSeries)
	}

	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	return cov / math.Sqrt(varX*varY), nil
}

// Sharpe is the ratio of mean to standard deviation of the excess
// return series, NaN-skipping, population deviation. When base is
// non-nil it is subtracted element-wise from returns first.
func Sharpe(returns, base []float64) (float64, error) {
	xc := returns
	if base != nil {
		if len(base) != len(returns) {
			return 0, fmt.Errorf("sharpe: %d returns vs %d base rates: %w", len(returns), len(base), series.ErrShape)
		}
		xc = make([]float64, len(returns))
		for i := range returns {
			xc[i] = returns[i] - base[i]
		}
	}
	mean := series.NanMean(xc)
	if math.IsNaN(mean) {
		return 0, fmt.Errorf("sharpe: %w", series.ErrAllNaN)
	}
	return mean / series.NanStd(xc, 0), nil
}

// TrackingError is the standard deviation of the active return (asset
// minus benchmark), NaN-skipping.
func TrackingError(asset, benchmark []float64) (float64, error) {
	if len(asset) != len(benchmark) {
		return 0, fmt.Errorf("tracking error: %d vs %d values: %w", len(asset), len(benchmark), series.ErrShape)
	}
	active := make([]float64, len(asset))
	for i := range asset {
		active[i] = asset[i] - benchmark[i]
	}
	std := series.NanStd(active, 0)
	if math.IsNaN(std) {
		return 0, fmt.Errorf("tracking error: %w", series.ErrAllNaN)
	}
	return std, nil
}

// RollingTrackingError computes the active-return deviation over every
// w-sized window. Output has length len(asset)-w+1.
func RollingTrackingError(asset, benchmark []float64, w int) ([]float64, error) {
	if len(asset) != len(benchmark) {
		return nil, fmt.Errorf("tracking error: %d vs %d values: %w", len(asset), len(benchmark), series.ErrShape)
	}
	active := make([]float64, len(asset))
	for i := range asset {
		active[i] = asset[i] - benchmark[i]
	}
	out, err := series.RollingStd(active, w, 0)
	if err != nil {
		return nil, fmt.Errorf("tracking error: %w", err)
	}
	return out, nil
}

// Momenta holds the first four distribution momenta of a series.
type Momenta struct {
	Mean     float64
	Variance float64
	Skew     float64
	Kurtosis float64
}

// SeriesMomenta computes the NaN-skipping mean, population variance
// and the standardized third and fourth moments.
func SeriesMomenta(ts []float64) (Momenta, error) {
	mean := series.NanMean(ts)
	if math.IsNaN(mean) {
		return Momenta{}, fmt.Errorf("momenta: %w", series.ErrAllNaN)
	}
	std := series.NanStd(ts, 0)

	var m3, m4 float64
	n := 0
	for _, x := range ts {
		if math.IsNaN(x) {
			continue
		}
		d := x - mean
		m3 += d * d * d
		m4 += d * d * d * d
		n++
	}
	m3 /= float64(n)
	m4 /= float64(n)

	variance := std * std
	return Momenta{
		Mean:     mean,
		Variance: variance,
		Skew:     m3 / (variance * std),
		Kurtosis: m4 / (variance * variance),
	}, nil
}
