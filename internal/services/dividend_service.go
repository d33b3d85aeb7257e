package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
)

// dividendService maintains the dividend income ledger.
type dividendService struct {
	db *gorm.DB
}

// NewDividendService creates a new DividendServicer.
func NewDividendService(db *gorm.DB) DividendServicer {
	return &dividendService{db: db}
}

// AddDividend records a cash dividend against a position. The symbol is
// copied from the position so the record outlives it. Quantity and cost
// basis are untouched.
func (s *dividendService) AddDividend(userID, portfolioID, positionID string, amount decimal.Decimal, date time.Time, notes string) (*models.Dividend, error) {
	if amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be positive")
	}
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var position models.Position
	err := s.db.Where("id = ?", positionID).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrPositionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if position.PortfolioID != portfolioID {
		return nil, apperrors.ErrPortfolioMismatch
	}

	dividend := &models.Dividend{
		PortfolioID: portfolioID,
		PositionID:  positionID,
		Symbol:      position.Symbol,
		Amount:      amount,
		OccurredAt:  date,
		Notes:       notes,
	}
	if err := s.db.Create(dividend).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return dividend, nil
}

// GetDividends returns the portfolio's dividend ledger, newest first.
func (s *dividendService) GetDividends(userID, portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.Dividend], error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Dividend{}).Where("portfolio_id = ?", portfolioID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var dividends []models.Dividend
	if err := base.Order("occurred_at DESC").
		Scopes(pagination.Paginate(page)).Find(&dividends).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(dividends, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteDividend removes a dividend record from the ledger.
func (s *dividendService) DeleteDividend(userID, portfolioID, dividendID string) error {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return err
	}

	result := s.db.Where("id = ? AND portfolio_id = ?", dividendID, portfolioID).
		Delete(&models.Dividend{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrDividendNotFound
	}
	return nil
}
