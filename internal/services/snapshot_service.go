package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/logger"
	"folio/internal/marketdata"
	"folio/internal/models"
	"folio/internal/pagination"
)

// snapshotService records daily valuation snapshots for every portfolio.
// Snapshots let historical charts survive provider outages and symbol
// delistings: once written, a day's value never has to be recomputed.
type snapshotService struct {
	db       *gorm.DB
	provider marketdata.Provider
}

// NewSnapshotService creates a new SnapshotServicer.
func NewSnapshotService(db *gorm.DB, provider marketdata.Provider) SnapshotServicer {
	return &snapshotService{db: db, provider: provider}
}

// RecordAll values every portfolio at the latest quotes and writes one
// snapshot per portfolio. Quotes are fetched once per symbol across all
// portfolios. A portfolio whose valuation fails is logged and skipped so
// one bad symbol cannot block the whole run.
func (s *snapshotService) RecordAll(ctx context.Context) error {
	var portfolios []models.Portfolio
	if err := s.db.Find(&portfolios).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	quotes := make(map[string]float64)
	now := time.Now().UTC()
	recorded := 0

	for _, portfolio := range portfolios {
		snapshot, err := s.record(ctx, portfolio.ID, now, quotes)
		if err != nil {
			logger.Get().Warnw("snapshot skipped",
				"portfolio_id", portfolio.ID, "reason", err)
			continue
		}
		recorded++
		logger.Get().Debugw("snapshot recorded",
			"portfolio_id", portfolio.ID, "total_value", snapshot.TotalValue)
	}

	logger.Get().Infow("snapshot run complete",
		"portfolios", len(portfolios), "recorded", recorded)
	return nil
}

func (s *snapshotService) record(ctx context.Context, portfolioID string, now time.Time, quotes map[string]float64) (*models.PortfolioSnapshot, error) {
	var positions []models.Position
	if err := s.db.Where("portfolio_id = ?", portfolioID).Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	snapshot := &models.PortfolioSnapshot{
		PortfolioID: portfolioID,
		RecordedAt:  now,
	}

	for _, p := range positions {
		quote, ok := quotes[p.Symbol]
		if !ok {
			price, err := s.provider.GetLatestQuote(ctx, p.Symbol)
			if err != nil {
				return nil, err
			}
			quote = price
			quotes[p.Symbol] = quote
		}
		snapshot.PositionsValue += p.Quantity.InexactFloat64() * quote
		snapshot.CostBasis += p.CostBasis().InexactFloat64()
	}

	var cashAccounts []models.CashAccount
	if err := s.db.Where("portfolio_id = ?", portfolioID).Find(&cashAccounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, account := range cashAccounts {
		snapshot.CashValue += account.Balance.InexactFloat64()
	}
	snapshot.TotalValue = snapshot.PositionsValue + snapshot.CashValue

	if err := s.db.Create(snapshot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snapshot, nil
}

// GetHistory returns the portfolio's snapshots, newest first.
func (s *snapshotService) GetHistory(userID, portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.PortfolioSnapshot{}).Where("portfolio_id = ?", portfolioID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.PortfolioSnapshot
	if err := base.Order("recorded_at DESC").
		Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}
