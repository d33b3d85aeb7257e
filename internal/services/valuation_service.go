package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/logger"
	"folio/internal/marketdata"
	"folio/internal/models"
	"folio/internal/timeseries"
)

// priceLookbackDays bounds how far back ValueAt searches for the most
// recent close at or before the requested date. Covers long exchange
// holidays with room to spare.
const priceLookbackDays = 30

// valuationService computes point-in-time and current portfolio values.
type valuationService struct {
	db          *gorm.DB
	provider    marketdata.Provider
	cashService CashServicer
}

// NewValuationService creates a new ValuationServicer.
func NewValuationService(db *gorm.DB, provider marketdata.Provider, cashService CashServicer) ValuationServicer {
	return &valuationService{db: db, provider: provider, cashService: cashService}
}

// fetchAligned fetches daily series for the given symbols and aligns them
// over [start, end].
func (s *valuationService) fetchAligned(ctx context.Context, symbols []string, start, end time.Time) (*timeseries.Aligned, error) {
	seriesBySymbol := make(map[string]timeseries.Series, len(symbols))
	for _, symbol := range symbols {
		series, err := s.provider.GetDailySeries(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		seriesBySymbol[symbol] = series
	}
	return timeseries.Align(seriesBySymbol, start, end), nil
}

// ValueAt computes the portfolio's total value and cost basis as of a
// date. Position state is reconstructed by replaying the transaction
// ledger up to that date; prices are the forward-filled closes at or
// before it. Positions not yet opened contribute zero.
func (s *valuationService) ValueAt(ctx context.Context, userID, portfolioID string, date time.Time) (*ValuationPoint, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	day := timeseries.Day(date)
	replayed, err := replayPositions(s.db, portfolioID, day.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		return nil, err
	}

	point := &ValuationPoint{Date: day}
	if len(replayed) == 0 {
		return point, nil
	}

	symbols := make([]string, 0, len(replayed))
	for symbol := range replayed {
		symbols = append(symbols, symbol)
	}

	aligned, err := s.fetchAligned(ctx, symbols, day.AddDate(0, 0, -priceLookbackDays), day)
	if err != nil {
		return nil, err
	}

	for symbol, position := range replayed {
		point.CostBasis += position.CostBasis().InexactFloat64()
		if price, ok := aligned.PriceAsOf(symbol, day); ok {
			point.TotalValue += position.Quantity.InexactFloat64() * price
		}
	}
	point.GainLoss = point.TotalValue - point.CostBasis
	return point, nil
}

// Summary computes the current dashboard aggregate for a portfolio.
func (s *valuationService) Summary(ctx context.Context, userID, portfolioID string) (*PortfolioSummary, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	var positions []models.Position
	if err := s.db.Where("portfolio_id = ?", portfolioID).Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &PortfolioSummary{
		CashBalances:  make(map[string]float64),
		PositionCount: len(positions),
	}

	var earliestOpened time.Time
	for _, p := range positions {
		quote, err := s.provider.GetLatestQuote(ctx, p.Symbol)
		if err != nil {
			return nil, err
		}
		summary.PositionsValue += p.Quantity.InexactFloat64() * quote
		summary.TotalInvested += p.CostBasis().InexactFloat64()
		if earliestOpened.IsZero() || p.OpenedAt.Before(earliestOpened) {
			earliestOpened = p.OpenedAt
		}
	}

	var cashAccounts []models.CashAccount
	if err := s.db.Where("portfolio_id = ?", portfolioID).Find(&cashAccounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, account := range cashAccounts {
		balance := account.Balance.InexactFloat64()
		summary.CashBalances[account.Currency] = balance
		summary.CashValue += balance
	}

	netCapital, err := s.cashService.NetCapital(portfolioID)
	if err != nil {
		return nil, err
	}
	summary.NetCapital = netCapital.InexactFloat64()

	summary.TotalValue = summary.PositionsValue + summary.CashValue
	summary.GainLoss = summary.TotalValue - summary.TotalInvested
	if summary.TotalInvested > 0 {
		summary.GainLossPercent = summary.GainLoss / summary.TotalInvested * 100
	}
	summary.CapitalGainLoss = summary.TotalValue - summary.NetCapital
	if summary.NetCapital > 0 {
		summary.CapitalPerformancePercent = summary.CapitalGainLoss / summary.NetCapital * 100
	}
	if !earliestOpened.IsZero() {
		summary.HoldingPeriodDays = int(time.Since(earliestOpened).Hours() / 24)
	}
	return summary, nil
}

// PositionViews returns the display projection of each open position,
// enriched with the latest quote and its weight in the portfolio.
func (s *valuationService) PositionViews(ctx context.Context, userID, portfolioID string) ([]PositionView, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	var positions []models.Position
	if err := s.db.Where("portfolio_id = ?", portfolioID).
		Order("opened_at ASC").Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	prices := make(map[string]float64, len(positions))
	for _, p := range positions {
		if _, ok := prices[p.Symbol]; ok {
			continue
		}
		quote, err := s.provider.GetLatestQuote(ctx, p.Symbol)
		if err != nil {
			return nil, err
		}
		prices[p.Symbol] = quote
	}

	return BuildPositionViews(positions, prices), nil
}

// sectorFor resolves the sector label a position is grouped under. Crypto
// and ETF holdings get fixed labels; equities are looked up through the
// provider, falling back to "Unknown" when the lookup has no sector.
func (s *valuationService) sectorFor(ctx context.Context, position *models.Position) string {
	switch position.AssetType {
	case models.AssetTypeCrypto:
		return "Cryptocurrency"
	case models.AssetTypeETF:
		return "ETF"
	}

	matches, err := s.provider.Search(ctx, position.Symbol)
	if err != nil {
		logger.Get().Warnw("sector lookup failed", "symbol", position.Symbol, "error", err)
		return "Unknown"
	}
	for _, m := range matches {
		if strings.EqualFold(m.Symbol, position.Symbol) && m.Sector != "" {
			return m.Sector
		}
	}
	return "Unknown"
}

// SectorDistribution groups the portfolio's open positions by sector,
// weighted by current market value. Weights sum to 100 over the positions
// that have a quote; cash is not part of the distribution.
func (s *valuationService) SectorDistribution(ctx context.Context, userID, portfolioID string) ([]SectorSlice, error) {
	views, err := s.PositionViews(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	sectors := make(map[string]*SectorSlice)
	sectorBySymbol := make(map[string]string, len(views))
	var totalValue float64
	for i := range views {
		view := &views[i]
		sector, ok := sectorBySymbol[view.Symbol]
		if !ok {
			sector = s.sectorFor(ctx, &view.Position)
			sectorBySymbol[view.Symbol] = sector
		}
		slice, ok := sectors[sector]
		if !ok {
			slice = &SectorSlice{Sector: sector}
			sectors[sector] = slice
		}
		slice.Value += view.TotalValue
		slice.Positions++
		totalValue += view.TotalValue
	}

	distribution := make([]SectorSlice, 0, len(sectors))
	for _, slice := range sectors {
		if totalValue > 0 {
			slice.Weight = slice.Value / totalValue * 100
		}
		distribution = append(distribution, *slice)
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Value != distribution[j].Value {
			return distribution[i].Value > distribution[j].Value
		}
		return distribution[i].Sector < distribution[j].Sector
	})
	return distribution, nil
}
