package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/logger"
	"folio/internal/models"
	"folio/internal/pagination"
)

// ledgerService applies buy/sell transactions to the position set of a
// portfolio. avg_price is always the quantity-weighted mean of all buys;
// the system does not track individual lots.
type ledgerService struct {
	db *gorm.DB
	// locks serializes mutations per portfolio. Two concurrent buys
	// recomputing avg_price against a stale quantity/avg_price pair is a
	// read-modify-write race; one mutation in flight per portfolio at a
	// time rules it out.
	locks sync.Map // portfolioID -> *sync.Mutex
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

func (s *ledgerService) portfolioLock(portfolioID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(portfolioID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// weightedAvg folds (addQty @ addPrice) into an existing (qty @ avg)
// holding: (qty×avg + addQty×addPrice) / (qty+addQty).
func weightedAvg(qty, avg, addQty, addPrice decimal.Decimal) decimal.Decimal {
	newQty := qty.Add(addQty)
	return qty.Mul(avg).Add(addQty.Mul(addPrice)).Div(newQty)
}

// ApplyBuy applies a buy to the portfolio: first buy of a symbol creates
// the position, subsequent buys merge into the weighted average. When the
// buy is cash-linked, the linked cash account is debited in the same
// database transaction.
func (s *ledgerService) ApplyBuy(userID, portfolioID string, input BuyInput) (*models.Position, error) {
	if input.Quantity.Sign() <= 0 || input.UnitPrice.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidQuantity, "Quantity and unit price must be positive")
	}
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	lock := s.portfolioLock(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var position *models.Position
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Position
		err := tx.Where("portfolio_id = ? AND symbol = ?", portfolioID, input.Symbol).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			position = &models.Position{
				PortfolioID: portfolioID,
				Symbol:      input.Symbol,
				Name:        input.Name,
				AssetType:   input.AssetType,
				Quantity:    input.Quantity,
				AvgPrice:    input.UnitPrice,
				OpenedAt:    date,
				Currency:    input.Currency,
			}
			if txErr := tx.Create(position).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		case err != nil:
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		default:
			newAvg := weightedAvg(existing.Quantity, existing.AvgPrice, input.Quantity, input.UnitPrice)
			existing.Quantity = existing.Quantity.Add(input.Quantity)
			existing.AvgPrice = newAvg
			if txErr := tx.Model(&existing).Updates(map[string]interface{}{
				"quantity":  existing.Quantity,
				"avg_price": existing.AvgPrice,
			}).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			position = &existing
		}

		transaction := &models.Transaction{
			PortfolioID:  portfolioID,
			Symbol:       input.Symbol,
			Side:         models.TransactionSideBuy,
			Quantity:     input.Quantity,
			UnitPrice:    input.UnitPrice,
			OccurredAt:   date,
			CashCurrency: input.CashCurrency,
		}
		if txErr := tx.Create(transaction).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		if input.CashCurrency != nil {
			cost := input.Quantity.Mul(input.UnitPrice)
			if txErr := adjustCashBalance(tx, portfolioID, *input.CashCurrency, cost.Neg()); txErr != nil {
				return txErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return position, nil
}

// ApplySell reduces a position. avg_price is unchanged: selling does not
// alter the cost basis of the remaining shares. Selling the full quantity
// deletes the position row. Realized gain/loss for the sell is
// qty × (sell price − avg price) and is recorded on the transaction.
func (s *ledgerService) ApplySell(userID, portfolioID string, input SellInput) (*SellResult, error) {
	if input.Quantity.Sign() <= 0 || input.UnitPrice.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidQuantity, "Quantity and unit price must be positive")
	}
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	lock := s.portfolioLock(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var result SellResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var position models.Position
		err := tx.Where("portfolio_id = ? AND symbol = ?", portfolioID, input.Symbol).First(&position).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.WithMessage(apperrors.ErrPositionNotFound,
				"No position in "+input.Symbol+" to sell")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if input.Quantity.Cmp(position.Quantity) > 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidQuantity,
				fmt.Sprintf("Cannot sell %s of %s: only %s held",
					input.Quantity.String(), input.Symbol, position.Quantity.String()))
		}

		realized := input.Quantity.Mul(input.UnitPrice.Sub(position.AvgPrice))
		remaining := position.Quantity.Sub(input.Quantity)

		if remaining.IsZero() {
			if txErr := tx.Unscoped().Delete(&position).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			result.Position = nil
		} else {
			position.Quantity = remaining
			if txErr := tx.Model(&position).Update("quantity", remaining).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			result.Position = &position
		}

		transaction := &models.Transaction{
			PortfolioID:      portfolioID,
			Symbol:           input.Symbol,
			Side:             models.TransactionSideSell,
			Quantity:         input.Quantity,
			UnitPrice:        input.UnitPrice,
			RealizedGainLoss: realized,
			OccurredAt:       date,
			CashCurrency:     input.CashCurrency,
		}
		if txErr := tx.Create(transaction).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		if input.CashCurrency != nil {
			proceeds := input.Quantity.Mul(input.UnitPrice)
			if txErr := adjustCashBalance(tx, portfolioID, *input.CashCurrency, proceeds); txErr != nil {
				return txErr
			}
		}

		result.Transaction = transaction
		result.RealizedGainLoss = realized
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MergeDuplicates folds positions sharing a symbol within the portfolio
// into one, using the same weighted-average formula and summing
// quantities. Duplicates should not normally arise, but historical data
// may contain them. Idempotent: a second run reports zero merges.
func (s *ledgerService) MergeDuplicates(userID, portfolioID string) (int, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return 0, err
	}

	lock := s.portfolioLock(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	var positions []models.Position
	if err := s.db.Where("portfolio_id = ?", portfolioID).
		Order("opened_at ASC, created_at ASC").Find(&positions).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	groups := make(map[string][]models.Position)
	for _, p := range positions {
		groups[p.Symbol] = append(groups[p.Symbol], p)
	}

	merged := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for symbol, group := range groups {
			if len(group) < 2 {
				continue
			}

			keeper := group[0]
			for _, dup := range group[1:] {
				keeper.AvgPrice = weightedAvg(keeper.Quantity, keeper.AvgPrice, dup.Quantity, dup.AvgPrice)
				keeper.Quantity = keeper.Quantity.Add(dup.Quantity)
				if dup.OpenedAt.Before(keeper.OpenedAt) {
					keeper.OpenedAt = dup.OpenedAt
				}
				if txErr := tx.Unscoped().Delete(&dup).Error; txErr != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
				}
				merged++
			}

			if txErr := tx.Model(&keeper).Updates(map[string]interface{}{
				"quantity":  keeper.Quantity,
				"avg_price": keeper.AvgPrice,
				"opened_at": keeper.OpenedAt,
			}).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			logger.Get().Infow("merged duplicate positions",
				"portfolio_id", portfolioID, "symbol", symbol, "count", len(group))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

// GetPositions returns all open positions in the portfolio.
func (s *ledgerService) GetPositions(userID, portfolioID string) ([]models.Position, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	var positions []models.Position
	if err := s.db.Where("portfolio_id = ?", portfolioID).
		Order("opened_at ASC").Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return positions, nil
}

// GetPositionByID returns a position, verifying both user ownership and
// that the position belongs to the stated portfolio.
func (s *ledgerService) GetPositionByID(userID, portfolioID, positionID string) (*models.Position, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	var position models.Position
	if err := s.db.First(&position, "id = ?", positionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPositionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if position.PortfolioID != portfolioID {
		return nil, apperrors.ErrPortfolioMismatch
	}
	return &position, nil
}

// DeletePosition removes a position explicitly. The transaction log for
// the symbol is retained for audit and history; the position simply stops
// contributing to valuation.
func (s *ledgerService) DeletePosition(userID, portfolioID, positionID string) error {
	position, err := s.GetPositionByID(userID, portfolioID, positionID)
	if err != nil {
		return err
	}

	lock := s.portfolioLock(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.db.Unscoped().Delete(position).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetTransactions returns the portfolio's trade ledger, newest first.
func (s *ledgerService) GetTransactions(userID, portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolioID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Order("occurred_at DESC").
		Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}
