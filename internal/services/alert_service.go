package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/logger"
	"folio/internal/marketdata"
	"folio/internal/models"
	"folio/internal/pagination"
)

// alertService manages price alerts and runs their evaluation sweep.
type alertService struct {
	db       *gorm.DB
	provider marketdata.Provider
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(db *gorm.DB, provider marketdata.Provider) AlertServicer {
	return &alertService{db: db, provider: provider}
}

// CreateAlert registers a price alert for the user.
func (s *alertService) CreateAlert(userID, symbol string, direction models.AlertDirection, threshold decimal.Decimal) (*models.PriceAlert, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required")
	}
	if threshold.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Threshold must be positive")
	}

	alert := &models.PriceAlert{
		UserID:    userID,
		Symbol:    symbol,
		Direction: direction,
		Threshold: threshold,
		IsActive:  true,
	}
	if err := s.db.Create(alert).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alert, nil
}

// GetUserAlerts returns the user's alerts, newest first.
func (s *alertService) GetUserAlerts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PriceAlert], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.PriceAlert{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var alerts []models.PriceAlert
	if err := base.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).Find(&alerts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(alerts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *alertService) getOwnedAlert(userID, alertID string) (*models.PriceAlert, error) {
	var alert models.PriceAlert
	err := s.db.Where("id = ? AND user_id = ?", alertID, userID).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrAlertNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &alert, nil
}

// SetAlertActive arms or disarms an alert. Re-arming clears TriggeredAt
// so the alert can fire again.
func (s *alertService) SetAlertActive(userID, alertID string, active bool) (*models.PriceAlert, error) {
	alert, err := s.getOwnedAlert(userID, alertID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"is_active": active}
	if active {
		updates["triggered_at"] = nil
	}
	if err := s.db.Model(alert).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alert, nil
}

// DeleteAlert removes an alert owned by the user.
func (s *alertService) DeleteAlert(userID, alertID string) error {
	alert, err := s.getOwnedAlert(userID, alertID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(alert).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// EvaluateAll checks every armed alert against the latest quote and marks
// the ones whose threshold has been crossed. Quotes are fetched once per
// symbol; a symbol whose quote fails is skipped and its alerts stay armed
// for the next sweep. Returns the number of alerts that fired.
func (s *alertService) EvaluateAll(ctx context.Context) (int, error) {
	var alerts []models.PriceAlert
	if err := s.db.Where("is_active = ? AND triggered_at IS NULL", true).
		Find(&alerts).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	quotes := make(map[string]decimal.Decimal)
	failed := make(map[string]bool)
	triggered := 0
	now := time.Now().UTC()

	for i := range alerts {
		alert := &alerts[i]
		if failed[alert.Symbol] {
			continue
		}
		quote, ok := quotes[alert.Symbol]
		if !ok {
			price, err := s.provider.GetLatestQuote(ctx, alert.Symbol)
			if err != nil {
				logger.Get().Warnw("alert evaluation skipped symbol",
					"symbol", alert.Symbol, "reason", err)
				failed[alert.Symbol] = true
				continue
			}
			quote = decimal.NewFromFloat(price)
			quotes[alert.Symbol] = quote
		}

		crossed := false
		switch alert.Direction {
		case models.AlertAbove:
			crossed = quote.GreaterThanOrEqual(alert.Threshold)
		case models.AlertBelow:
			crossed = quote.LessThanOrEqual(alert.Threshold)
		}
		if !crossed {
			continue
		}

		updates := map[string]interface{}{
			"triggered_at": now,
			"is_active":    false,
		}
		if err := s.db.Model(alert).Updates(updates).Error; err != nil {
			logger.Get().Errorw("failed to mark alert triggered",
				"alert_id", alert.ID, "error", err)
			continue
		}
		triggered++
		logger.Get().Infow("price alert triggered",
			"alert_id", alert.ID,
			"symbol", alert.Symbol,
			"direction", alert.Direction,
			"threshold", alert.Threshold.String(),
			"quote", quote.String())
	}
	return triggered, nil
}
