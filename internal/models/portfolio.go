package models

// Portfolio is a named container for positions, cash accounts, and
// capital contributions. All ledger and analytics queries are scoped by
// portfolio; cross-portfolio aggregation is never performed implicitly.
type Portfolio struct {
	Base
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Relationships
	Positions     []Position     `gorm:"foreignKey:PortfolioID" json:"positions,omitempty"`
	CashAccounts  []CashAccount  `gorm:"foreignKey:PortfolioID" json:"cash_accounts,omitempty"`
	Transactions  []Transaction  `gorm:"foreignKey:PortfolioID" json:"transactions,omitempty"`
	Contributions []CapitalContribution `gorm:"foreignKey:PortfolioID" json:"contributions,omitempty"`
}
