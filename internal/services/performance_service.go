package services

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/marketdata"
	"folio/internal/timeseries"
)

// performanceService builds the value-over-time and benchmark-comparison
// series consumed by charts.
type performanceService struct {
	db          *gorm.DB
	provider    marketdata.Provider
	cashService CashServicer
}

// NewPerformanceService creates a new PerformanceServicer.
func NewPerformanceService(db *gorm.DB, provider marketdata.Provider, cashService CashServicer) PerformanceServicer {
	return &performanceService{db: db, provider: provider, cashService: cashService}
}

// PortfolioSeries computes the portfolio's daily value between the period
// start and now by replaying the transaction ledger along the aligned
// date axis. The return percent denominator is chosen by the caller:
// the series' start value, or net capital contributions.
func (s *performanceService) PortfolioSeries(ctx context.Context, userID, portfolioID, period string, denominator ReturnDenominator) (*PerformanceResult, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transactions, err := loadTransactions(s.db, portfolioID, now)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return &PerformanceResult{Data: []PerformancePoint{}}, nil
	}

	start := timeseries.Day(periodStart(period, now, transactions[0].OccurredAt))

	symbols := make([]string, 0)
	seen := make(map[string]bool)
	for _, t := range transactions {
		if seen[t.Symbol] {
			continue
		}
		seen[t.Symbol] = true
		symbols = append(symbols, t.Symbol)
	}

	// Fetch a little history before the window so the first days of the
	// window have a close to forward-fill from.
	fetchStart := start.AddDate(0, 0, -priceLookbackDays)
	seriesBySymbol := make(map[string]timeseries.Series, len(symbols))
	for _, symbol := range symbols {
		series, sErr := s.provider.GetDailySeries(ctx, symbol, fetchStart, now)
		if sErr != nil {
			return nil, sErr
		}
		seriesBySymbol[symbol] = series
	}
	aligned := timeseries.Align(seriesBySymbol, fetchStart, now)

	// Walk the axis in date order, folding ledger entries into the
	// position map as their dates pass, and valuing the holdings at each
	// date's forward-filled closes.
	positions := make(map[string]*replayedPosition)
	txIndex := 0
	points := make([]PerformancePoint, 0, len(aligned.Dates))

	for i, date := range aligned.Dates {
		endOfDay := date.Add(24*time.Hour - time.Nanosecond)
		for txIndex < len(transactions) && !transactions[txIndex].OccurredAt.After(endOfDay) {
			applyToReplay(positions, &transactions[txIndex])
			txIndex++
		}
		if date.Before(start) || len(positions) == 0 {
			continue
		}

		value := 0.0
		for symbol, position := range positions {
			price := aligned.Prices(symbol)[i]
			if math.IsNaN(price) {
				continue
			}
			value += position.Quantity.InexactFloat64() * price
		}
		points = append(points, PerformancePoint{Date: date, Value: value})
	}

	result := &PerformanceResult{Data: points}
	if len(points) == 0 {
		return result, nil
	}

	initial := points[0].Value
	for i := range points {
		if initial > 0 {
			points[i].ChangePercent = (points[i].Value - initial) / initial * 100
		}
	}

	final := points[len(points)-1].Value
	result.TotalReturn = final - initial

	switch denominator {
	case DenominatorNetCapital:
		netCapital, ncErr := s.cashService.NetCapital(portfolioID)
		if ncErr != nil {
			return nil, ncErr
		}
		if nc := netCapital.InexactFloat64(); nc > 0 {
			result.TotalReturnPercent = result.TotalReturn / nc * 100
		}
	default:
		if initial > 0 {
			result.TotalReturnPercent = result.TotalReturn / initial * 100
		}
	}
	return result, nil
}

// CompareBenchmark overlays the portfolio and a benchmark index, both
// re-expressed as percent change from the period start. The overlay is
// indexed on the benchmark's trading days; portfolio values for dates the
// benchmark skips are carried forward.
func (s *performanceService) CompareBenchmark(ctx context.Context, userID, portfolioID, period, benchmark string) ([]ComparisonPoint, error) {
	portfolio, err := s.PortfolioSeries(ctx, userID, portfolioID, period, DenominatorStartValue)
	if err != nil {
		return nil, err
	}
	if len(portfolio.Data) == 0 {
		return []ComparisonPoint{}, nil
	}

	first := portfolio.Data[0].Date
	last := portfolio.Data[len(portfolio.Data)-1].Date

	benchmarkSeries, err := s.provider.GetDailySeries(ctx, benchmark, first, last)
	if err != nil {
		return nil, err
	}
	benchmarkSeries = benchmarkSeries.Sorted()
	if len(benchmarkSeries) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientData,
			"No benchmark data for "+benchmark+" in the selected period")
	}

	initialBenchmark := benchmarkSeries[0].Price
	if initialBenchmark <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientData,
			"Benchmark "+benchmark+" has no usable starting price")
	}

	portfolioPercent := make(map[time.Time]float64, len(portfolio.Data))
	for _, p := range portfolio.Data {
		portfolioPercent[p.Date] = p.ChangePercent
	}

	comparison := make([]ComparisonPoint, 0, len(benchmarkSeries))
	lastPortfolioPercent := 0.0
	for _, point := range benchmarkSeries {
		if pct, ok := portfolioPercent[timeseries.Day(point.Date)]; ok {
			lastPortfolioPercent = pct
		}
		comparison = append(comparison, ComparisonPoint{
			Date:             timeseries.Day(point.Date),
			PortfolioPercent: lastPortfolioPercent,
			BenchmarkPercent: (point.Price - initialBenchmark) / initialBenchmark * 100,
		})
	}
	return comparison, nil
}
