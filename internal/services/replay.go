package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/models"
)

// replayedPosition is position state reconstructed from the transaction
// ledger at some point in time. Historical valuation needs this because
// avg_price mutates on every buy: the stored Position row only describes
// the present.
type replayedPosition struct {
	Symbol   string
	Quantity decimal.Decimal
	AvgPrice decimal.Decimal
	OpenedAt time.Time
}

// CostBasis returns quantity × average price at the replayed point.
func (r *replayedPosition) CostBasis() decimal.Decimal {
	return r.Quantity.Mul(r.AvgPrice)
}

// loadTransactions reads the portfolio ledger up to and including asOf,
// oldest first, ready for replay.
func loadTransactions(db *gorm.DB, portfolioID string, asOf time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := db.Where("portfolio_id = ? AND occurred_at <= ?", portfolioID, asOf).
		Order("occurred_at ASC, created_at ASC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// applyToReplay folds one ledger entry into the in-flight position map,
// using the same weighted-average rules as the live ledger.
func applyToReplay(positions map[string]*replayedPosition, t *models.Transaction) {
	switch t.Side {
	case models.TransactionSideBuy:
		p, ok := positions[t.Symbol]
		if !ok {
			positions[t.Symbol] = &replayedPosition{
				Symbol:   t.Symbol,
				Quantity: t.Quantity,
				AvgPrice: t.UnitPrice,
				OpenedAt: t.OccurredAt,
			}
			return
		}
		p.AvgPrice = weightedAvg(p.Quantity, p.AvgPrice, t.Quantity, t.UnitPrice)
		p.Quantity = p.Quantity.Add(t.Quantity)
	case models.TransactionSideSell:
		p, ok := positions[t.Symbol]
		if !ok {
			return // sell against a discarded position; nothing to reduce
		}
		p.Quantity = p.Quantity.Sub(t.Quantity)
		if p.Quantity.Sign() <= 0 {
			delete(positions, t.Symbol)
		}
	}
}

// replayPositions reconstructs the portfolio's position set as of a date
// by replaying the transaction ledger from the beginning.
func replayPositions(db *gorm.DB, portfolioID string, asOf time.Time) (map[string]*replayedPosition, error) {
	transactions, err := loadTransactions(db, portfolioID, asOf)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]*replayedPosition)
	for i := range transactions {
		applyToReplay(positions, &transactions[i])
	}
	return positions, nil
}
