// Package analytics implements the statistical risk metrics exposed on
// the dashboard: annualized volatility, beta versus a benchmark, Sharpe
// ratio, and pairwise correlation. All functions are pure: they take
// return vectors and explicit parameters, and they refuse to compute over
// fewer than two data points rather than report zero risk.
package analytics

import (
	"math"

	apperrors "folio/internal/errors"
	"folio/internal/timeseries"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily-sampled,
// business-day-denominated return series.
const TradingDaysPerYear = 252

// AnnualizedVolatility is the sample standard deviation of daily returns
// scaled by √252. NaN entries are dropped first; fewer than two defined
// returns is INSUFFICIENT_DATA.
func AnnualizedVolatility(dailyReturns []float64) (float64, error) {
	returns := timeseries.Defined(dailyReturns)
	if len(returns) < 2 {
		return 0, apperrors.ErrInsufficientData
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear), nil
}

// Beta is Cov(asset, benchmark) / Var(benchmark) over the overlapping
// defined range of the two return vectors. A benchmark with zero variance
// carries no information, so that case is INSUFFICIENT_DATA as well.
func Beta(assetReturns, benchmarkReturns []float64) (float64, error) {
	xs, ys := timeseries.Overlap(assetReturns, benchmarkReturns)
	if len(xs) < 2 {
		return 0, apperrors.ErrInsufficientData
	}
	benchVar := stat.Variance(ys, nil)
	if benchVar == 0 {
		return 0, apperrors.ErrInsufficientData
	}
	return stat.Covariance(xs, ys, nil) / benchVar, nil
}

// SharpeRatio annualizes the mean daily return and divides the excess
// over riskFreeRate by the annualized volatility. riskFreeRate is an
// annualized decimal fraction (0.03 for 3%), passed in explicitly by the
// caller from per-user settings.
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) (float64, error) {
	returns := timeseries.Defined(dailyReturns)
	if len(returns) < 2 {
		return 0, apperrors.ErrInsufficientData
	}
	vol := stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
	if vol == 0 {
		return 0, apperrors.ErrInsufficientData
	}
	annualReturn := stat.Mean(returns, nil) * TradingDaysPerYear
	return (annualReturn - riskFreeRate) / vol, nil
}

// Correlation is the Pearson correlation of two daily-return vectors over
// their overlapping defined range.
func Correlation(returnsA, returnsB []float64) (float64, error) {
	xs, ys := timeseries.Overlap(returnsA, returnsB)
	if len(xs) < 2 {
		return 0, apperrors.ErrInsufficientData
	}
	return stat.Correlation(xs, ys, nil), nil
}

// WeightedReturns combines per-asset aligned return vectors into a single
// portfolio return vector using the given weights. Undefined entries
// contribute zero, mirroring how a not-yet-opened position contributes
// nothing to the portfolio's movement on that day.
func WeightedReturns(weights []float64, returnVectors [][]float64) []float64 {
	if len(returnVectors) == 0 {
		return nil
	}
	n := 0
	for _, rv := range returnVectors {
		if len(rv) > n {
			n = len(rv)
		}
	}
	combined := make([]float64, n)
	for i, rv := range returnVectors {
		w := weights[i]
		for t, r := range rv {
			if math.IsNaN(r) {
				continue
			}
			combined[t] += w * r
		}
	}
	return combined
}
