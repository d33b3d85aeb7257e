package models

import (
	"time"

	"folio/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContributionType distinguishes money moved into vs out of a portfolio.
type ContributionType string

const (
	ContributionDeposit    ContributionType = "deposit"
	ContributionWithdrawal ContributionType = "withdrawal"
)

// CapitalContribution records money deposited into or withdrawn from a
// portfolio. Net capital (Σ deposits − Σ withdrawals) is the denominator
// for capital performance, as opposed to cost-basis performance.
// Append-only: no Base embed, no soft deletes.
type CapitalContribution struct {
	ID          string           `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID string           `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	Type        ContributionType `gorm:"not null" json:"type"`
	Amount      decimal.Decimal  `gorm:"type:numeric;not null" json:"amount"`
	Currency    string           `gorm:"not null;default:'USD'" json:"currency"`
	OccurredAt  time.Time        `gorm:"not null" json:"occurred_at"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (c *CapitalContribution) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New()
	}
	return nil
}

// Signed returns the amount with deposits positive and withdrawals negative.
func (c *CapitalContribution) Signed() decimal.Decimal {
	if c.Type == ContributionWithdrawal {
		return c.Amount.Neg()
	}
	return c.Amount
}
