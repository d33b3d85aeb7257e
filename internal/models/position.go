package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType represents the type of investment asset.
type AssetType string

const (
	AssetTypeStock  AssetType = "stock"
	AssetTypeETF    AssetType = "etf"
	AssetTypeCrypto AssetType = "crypto"
)

// Position represents a holding of a single symbol within a portfolio.
// It is a derived projection of the transaction ledger: AvgPrice is the
// quantity-weighted mean of all buy prices and is recomputed on every buy,
// never overwritten. A position with zero quantity is deleted, not kept.
type Position struct {
	Base
	PortfolioID string          `gorm:"type:uuid;not null;index:idx_positions_portfolio_symbol" json:"portfolio_id"`
	Symbol      string          `gorm:"not null;index:idx_positions_portfolio_symbol" json:"symbol"`
	Name        string          `json:"name"`
	AssetType   AssetType       `gorm:"not null" json:"asset_type"`
	Quantity    decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	AvgPrice    decimal.Decimal `gorm:"type:numeric;not null" json:"avg_price"`
	OpenedAt    time.Time       `gorm:"not null" json:"opened_at"`
	Currency    string          `gorm:"not null;default:'USD'" json:"currency"`

	// Relationships
	Portfolio Portfolio `gorm:"foreignKey:PortfolioID" json:"-"`
}

// CostBasis returns quantity × average price.
func (p *Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AvgPrice)
}
