package analytics

import (
	"errors"
	"math"
	"testing"

	apperrors "folio/internal/errors"
	"folio/internal/timeseries"
)

func assertInsufficientData(t *testing.T, err error) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != "INSUFFICIENT_DATA" {
		t.Fatalf("expected INSUFFICIENT_DATA, got %v", err)
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	t.Run("three closes", func(t *testing.T) {
		// Closes 100, 110, 105 give returns 0.1 and -0.0454545…; the
		// sample standard deviation times √252 is ≈ 1.63272.
		returns := timeseries.Returns([]float64{100, 110, 105})

		vol, err := AnnualizedVolatility(returns)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(vol-1.63272) > 1e-4 {
			t.Errorf("expected ≈1.63272, got %v", vol)
		}
	})

	t.Run("NaN entries dropped before the count check", func(t *testing.T) {
		returns := []float64{math.NaN(), 0.01, -0.02, math.NaN(), 0.03}
		vol, err := AnnualizedVolatility(returns)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if vol <= 0 {
			t.Errorf("expected positive volatility, got %v", vol)
		}
	})

	t.Run("single defined return", func(t *testing.T) {
		_, err := AnnualizedVolatility([]float64{0.01, math.NaN()})
		assertInsufficientData(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := AnnualizedVolatility(nil)
		assertInsufficientData(t, err)
	})
}

func TestBeta(t *testing.T) {
	t.Run("asset equal to benchmark has beta one", func(t *testing.T) {
		returns := []float64{0.01, -0.02, 0.03, 0.015, -0.005}
		beta, err := Beta(returns, returns)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(beta-1) > 1e-12 {
			t.Errorf("expected 1, got %v", beta)
		}
	})

	t.Run("leveraged asset", func(t *testing.T) {
		benchmark := []float64{0.01, -0.02, 0.03, 0.015}
		asset := make([]float64, len(benchmark))
		for i, r := range benchmark {
			asset[i] = 2 * r
		}
		beta, err := Beta(asset, benchmark)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(beta-2) > 1e-12 {
			t.Errorf("expected 2, got %v", beta)
		}
	})

	t.Run("flat benchmark", func(t *testing.T) {
		_, err := Beta([]float64{0.01, -0.02, 0.03}, []float64{0.01, 0.01, 0.01})
		assertInsufficientData(t, err)
	})

	t.Run("no overlap", func(t *testing.T) {
		_, err := Beta([]float64{0.01, math.NaN()}, []float64{math.NaN(), 0.02})
		assertInsufficientData(t, err)
	})
}

func TestSharpeRatio(t *testing.T) {
	t.Run("computed against risk-free rate", func(t *testing.T) {
		// Mean 0.0066667 annualizes to 1.68; vol ≈ 0.242487; with a 3%
		// risk-free rate the ratio is ≈ (1.68 − 0.03) / 0.242487.
		returns := []float64{0.01, -0.01, 0.02}

		sharpe, err := SharpeRatio(returns, 0.03)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(sharpe-6.8045) > 1e-3 {
			t.Errorf("expected ≈6.8045, got %v", sharpe)
		}
	})

	t.Run("higher risk-free rate lowers the ratio", func(t *testing.T) {
		returns := []float64{0.01, -0.01, 0.02}
		low, err := SharpeRatio(returns, 0.01)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		high, err := SharpeRatio(returns, 0.05)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if high >= low {
			t.Errorf("expected ratio to fall as the rate rises: %v vs %v", low, high)
		}
	})

	t.Run("zero volatility", func(t *testing.T) {
		_, err := SharpeRatio([]float64{0.01, 0.01, 0.01}, 0.03)
		assertInsufficientData(t, err)
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := SharpeRatio([]float64{0.01}, 0.03)
		assertInsufficientData(t, err)
	})
}

func TestCorrelation(t *testing.T) {
	a := []float64{0.01, -0.02, 0.03, 0.015, -0.005}

	t.Run("self correlation is one", func(t *testing.T) {
		corr, err := Correlation(a, a)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(corr-1) > 1e-12 {
			t.Errorf("expected 1, got %v", corr)
		}
	})

	t.Run("inverse correlation is minus one", func(t *testing.T) {
		inverse := make([]float64, len(a))
		for i, r := range a {
			inverse[i] = -r
		}
		corr, err := Correlation(a, inverse)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(corr+1) > 1e-12 {
			t.Errorf("expected -1, got %v", corr)
		}
	})

	t.Run("insufficient overlap", func(t *testing.T) {
		_, err := Correlation([]float64{0.01, math.NaN(), math.NaN()}, []float64{0.02, 0.01, math.NaN()})
		assertInsufficientData(t, err)
	})
}

func TestWeightedReturns(t *testing.T) {
	t.Run("value weighted combination", func(t *testing.T) {
		combined := WeightedReturns(
			[]float64{0.6, 0.4},
			[][]float64{{0.01, 0.02}, {0.03, -0.01}},
		)
		if len(combined) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(combined))
		}
		if math.Abs(combined[0]-(0.6*0.01+0.4*0.03)) > 1e-12 {
			t.Errorf("unexpected first entry: %v", combined[0])
		}
		if math.Abs(combined[1]-(0.6*0.02+0.4*-0.01)) > 1e-12 {
			t.Errorf("unexpected second entry: %v", combined[1])
		}
	})

	t.Run("NaN contributes zero", func(t *testing.T) {
		combined := WeightedReturns(
			[]float64{0.5, 0.5},
			[][]float64{{math.NaN(), 0.02}, {0.04, 0.02}},
		)
		if math.Abs(combined[0]-0.02) > 1e-12 {
			t.Errorf("expected the undefined leg to contribute nothing, got %v", combined[0])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if WeightedReturns(nil, nil) != nil {
			t.Error("expected nil for no vectors")
		}
	})
}
