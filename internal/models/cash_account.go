package models

import "github.com/shopspring/decimal"

// CashAccount tracks a cash balance in a single currency within a
// portfolio. One account exists per (portfolio, currency). Balances are
// never converted between currencies and may never go negative; operations
// that would overdraw fail with INSUFFICIENT_FUNDS.
type CashAccount struct {
	Base
	PortfolioID string          `gorm:"type:uuid;not null;index:idx_cash_portfolio_currency,unique" json:"portfolio_id"`
	Currency    string          `gorm:"not null;index:idx_cash_portfolio_currency,unique" json:"currency"`
	Balance     decimal.Decimal `gorm:"type:numeric;not null" json:"balance"`
}
