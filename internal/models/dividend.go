package models

import (
	"time"

	"folio/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dividend is one cash dividend received against a position. Dividends are
// income records only: they never change the position's quantity or cost
// basis. Symbol is denormalized from the position at creation time so the
// record survives the position being closed.
// No Base embed; deletion is hard.
type Dividend struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID string          `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	PositionID  string          `gorm:"type:uuid;not null" json:"position_id"`
	Symbol      string          `gorm:"not null" json:"symbol"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	OccurredAt  time.Time       `gorm:"not null;index" json:"occurred_at"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (d *Dividend) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New()
	}
	return nil
}
