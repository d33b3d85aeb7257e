package models

import (
	"time"

	"folio/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionSide represents the direction of a ledger transaction.
type TransactionSide string

const (
	TransactionSideBuy  TransactionSide = "buy"
	TransactionSideSell TransactionSide = "sell"
)

// Transaction is one entry in the append-only trade ledger. Transactions
// are immutable once created and are the sole authority for reconstructing
// position state at any point in time; the Position row is a cached
// projection of this history.
// No Base embed, no soft deletes.
type Transaction struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID string          `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	Symbol      string          `gorm:"not null;index" json:"symbol"`
	Side        TransactionSide `gorm:"not null" json:"side"`
	Quantity    decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric;not null" json:"unit_price"`
	// RealizedGainLoss is qty × (sell price − avg price at the time of the
	// sell). Zero for buys. Stored for reporting; never folded back into
	// the position.
	RealizedGainLoss decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"realized_gain_loss"`
	OccurredAt       time.Time       `gorm:"not null;index" json:"occurred_at"`
	// CashCurrency is set when the trade settled against a cash account.
	CashCurrency *string   `json:"cash_currency,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}

// Total returns quantity × unit price.
func (t *Transaction) Total() decimal.Decimal {
	return t.Quantity.Mul(t.UnitPrice)
}
