package services

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"folio/internal/analytics"
	apperrors "folio/internal/errors"
	"folio/internal/logger"
	"folio/internal/marketdata"
	"folio/internal/models"
	"folio/internal/timeseries"
)

// riskService computes volatility, beta, Sharpe ratio, and correlation
// from aligned return series. It holds no configuration: the risk-free
// rate and benchmark symbol arrive as parameters on every call.
type riskService struct {
	db        *gorm.DB
	provider  marketdata.Provider
	valuation ValuationServicer
}

// NewRiskService creates a new RiskServicer.
func NewRiskService(db *gorm.DB, provider marketdata.Provider, valuation ValuationServicer) RiskServicer {
	return &riskService{db: db, provider: provider, valuation: valuation}
}

func (s *riskService) fetchAligned(ctx context.Context, symbols []string, start, end time.Time) (*timeseries.Aligned, error) {
	seriesBySymbol := make(map[string]timeseries.Series, len(symbols))
	for _, symbol := range symbols {
		if _, ok := seriesBySymbol[symbol]; ok {
			continue
		}
		series, err := s.provider.GetDailySeries(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		seriesBySymbol[symbol] = series
	}
	return timeseries.Align(seriesBySymbol, start, end), nil
}

// returnsSince masks out return entries dated before the cutoff. The
// return vector is aligned to Dates[1:].
func returnsSince(aligned *timeseries.Aligned, returns []float64, cutoff time.Time) []float64 {
	day := timeseries.Day(cutoff)
	masked := make([]float64, len(returns))
	for i, r := range returns {
		if aligned.Dates[i+1].Before(day) {
			masked[i] = math.NaN()
			continue
		}
		masked[i] = r
	}
	return masked
}

// SymbolRisk computes beta and volatility for a single symbol. When
// openedAt is given, realized volatility over the actual holding period
// is included; it is omitted (zero) when the holding is too young for a
// meaningful estimate rather than reported as a false calm.
func (s *riskService) SymbolRisk(ctx context.Context, symbol, benchmark, period string, openedAt *time.Time) (*SymbolRisk, error) {
	now := time.Now().UTC()
	start := periodStart(period, now, time.Time{})

	aligned, err := s.fetchAligned(ctx, []string{symbol, benchmark}, start, now)
	if err != nil {
		return nil, err
	}

	symbolReturns := aligned.Returns(symbol)
	benchmarkReturns := aligned.Returns(benchmark)

	volatility, err := analytics.AnnualizedVolatility(symbolReturns)
	if err != nil {
		return nil, err
	}
	beta, err := analytics.Beta(symbolReturns, benchmarkReturns)
	if err != nil {
		return nil, err
	}

	risk := &SymbolRisk{
		Symbol:               symbol,
		Beta:                 beta,
		HistoricalVolatility: volatility,
	}

	if openedAt != nil {
		realized, rErr := analytics.AnnualizedVolatility(returnsSince(aligned, symbolReturns, *openedAt))
		if rErr == nil {
			risk.RealizedVolatility = realized
		} else {
			logger.Get().Debugw("realized volatility unavailable",
				"symbol", symbol, "opened_at", openedAt, "reason", rErr)
		}
	}
	return risk, nil
}

// PortfolioRisk computes portfolio-level volatility, beta, and Sharpe
// ratio. Per-symbol returns are combined value-weighted; portfolio beta
// is the value-weighted average of constituent betas.
func (s *riskService) PortfolioRisk(ctx context.Context, userID, portfolioID, benchmark string, riskFreeRate float64, period string) (*PortfolioRisk, error) {
	views, err := s.valuation.PositionViews(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientData, "Portfolio holds no positions")
	}

	positionsValue := 0.0
	for _, v := range views {
		positionsValue += v.TotalValue
	}
	if positionsValue <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientData, "Portfolio has no market value")
	}

	now := time.Now().UTC()
	start := periodStart(period, now, time.Time{})

	symbols := make([]string, 0, len(views)+1)
	for _, v := range views {
		symbols = append(symbols, v.Symbol)
	}
	symbols = append(symbols, benchmark)

	aligned, err := s.fetchAligned(ctx, symbols, start, now)
	if err != nil {
		return nil, err
	}
	benchmarkReturns := aligned.Returns(benchmark)

	weights := make([]float64, len(views))
	returnVectors := make([][]float64, len(views))
	weightedBeta := 0.0
	for i, v := range views {
		weights[i] = v.TotalValue / positionsValue
		returnVectors[i] = aligned.Returns(v.Symbol)

		beta, bErr := analytics.Beta(returnVectors[i], benchmarkReturns)
		if bErr != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInsufficientData,
				"Not enough overlapping history for "+v.Symbol+" versus "+benchmark)
		}
		weightedBeta += weights[i] * beta
	}

	portfolioReturns := analytics.WeightedReturns(weights, returnVectors)

	volatility, err := analytics.AnnualizedVolatility(portfolioReturns)
	if err != nil {
		return nil, err
	}
	sharpe, err := analytics.SharpeRatio(portfolioReturns, riskFreeRate)
	if err != nil {
		return nil, err
	}

	return &PortfolioRisk{
		Volatility:  volatility,
		Beta:        weightedBeta,
		SharpeRatio: sharpe,
	}, nil
}

// CorrelationMatrix computes pairwise Pearson correlations between the
// portfolio's holdings over the period. Pairs without two overlapping
// data points are reported missing by omission and logged, never as a
// fabricated zero.
func (s *riskService) CorrelationMatrix(ctx context.Context, userID, portfolioID, period string) ([]CorrelationPair, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	var positions []models.Position
	if err := s.db.Where("portfolio_id = ?", portfolioID).
		Order("symbol ASC").Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(positions) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientData, "Correlation needs at least two positions")
	}

	now := time.Now().UTC()
	start := periodStart(period, now, time.Time{})

	symbols := make([]string, 0, len(positions))
	seen := make(map[string]bool, len(positions))
	for _, p := range positions {
		if seen[p.Symbol] {
			continue
		}
		seen[p.Symbol] = true
		symbols = append(symbols, p.Symbol)
	}

	aligned, err := s.fetchAligned(ctx, symbols, start, now)
	if err != nil {
		return nil, err
	}

	pairs := make([]CorrelationPair, 0, len(symbols)*(len(symbols)-1)/2)
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			corr, cErr := analytics.Correlation(aligned.Returns(symbols[i]), aligned.Returns(symbols[j]))
			if cErr != nil || math.IsNaN(corr) {
				logger.Get().Warnw("correlation unavailable",
					"symbol_a", symbols[i], "symbol_b", symbols[j], "reason", cErr)
				continue
			}
			pairs = append(pairs, CorrelationPair{
				SymbolA:     symbols[i],
				SymbolB:     symbols[j],
				Correlation: corr,
			})
		}
	}
	return pairs, nil
}
