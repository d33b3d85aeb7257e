package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertDirection is the comparison applied against the latest quote.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// PriceAlert fires when a symbol's latest quote crosses a threshold.
// Evaluation only marks TriggeredAt; delivery is handled elsewhere.
type PriceAlert struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Symbol      string          `gorm:"not null" json:"symbol"`
	Direction   AlertDirection  `gorm:"not null" json:"direction"`
	Threshold   decimal.Decimal `gorm:"type:numeric;not null" json:"threshold"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	TriggeredAt *time.Time      `json:"triggered_at,omitempty"`
}
