package models

// User represents a registered user of the application.
type User struct {
	Base
	Email            string `gorm:"not null;uniqueIndex" json:"email"`
	Password         string `gorm:"not null" json:"-"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	IsActive         bool   `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string `gorm:"column:refresh_token_hash" json:"-"`

	// Relationships
	Portfolios []Portfolio `gorm:"foreignKey:UserID" json:"portfolios,omitempty"`
	Settings   *Settings   `gorm:"foreignKey:UserID" json:"settings,omitempty"`
}
