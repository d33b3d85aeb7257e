package models

import (
	"time"

	"folio/internal/uuid"

	"gorm.io/gorm"
)

// PortfolioSnapshot is a point-in-time record of a portfolio's valuation,
// written by the daily scheduler. Immutable time-series data: no Base
// embed, no soft deletes. Values are floats since snapshots feed charts,
// not the ledger.
type PortfolioSnapshot struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID    string    `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	RecordedAt     time.Time `gorm:"not null" json:"recorded_at"`
	TotalValue     float64   `gorm:"not null" json:"total_value"`
	PositionsValue float64   `gorm:"not null" json:"positions_value"`
	CashValue      float64   `gorm:"not null" json:"cash_value"`
	CostBasis      float64   `gorm:"not null" json:"cost_basis"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PortfolioSnapshot) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
