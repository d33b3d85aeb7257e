package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"folio/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPortfolio creates a portfolio for the user.
func CreateTestPortfolio(t *testing.T, db *gorm.DB, userID string) *models.Portfolio {
	t.Helper()

	portfolio := &models.Portfolio{
		UserID: userID,
		Name:   fmt.Sprintf("Test Portfolio %d", nextID()),
	}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return portfolio
}

// CreateTestPosition creates a stock position with the given quantity and
// average price.
func CreateTestPosition(t *testing.T, db *gorm.DB, portfolioID, symbol string, quantity, avgPrice float64) *models.Position {
	t.Helper()

	position := &models.Position{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Name:        symbol,
		AssetType:   models.AssetTypeStock,
		Quantity:    decimal.NewFromFloat(quantity),
		AvgPrice:    decimal.NewFromFloat(avgPrice),
		OpenedAt:    time.Now().UTC().AddDate(0, 0, -30),
		Currency:    "USD",
	}
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("failed to create test position: %v", err)
	}
	return position
}

// CreateTestTransaction creates a ledger transaction.
func CreateTestTransaction(t *testing.T, db *gorm.DB, portfolioID, symbol string, side models.TransactionSide, quantity, unitPrice float64, occurredAt time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Side:        side,
		Quantity:    decimal.NewFromFloat(quantity),
		UnitPrice:   decimal.NewFromFloat(unitPrice),
		OccurredAt:  occurredAt,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestCashAccount creates a cash account with the given balance.
func CreateTestCashAccount(t *testing.T, db *gorm.DB, portfolioID, currency string, balance float64) *models.CashAccount {
	t.Helper()

	account := &models.CashAccount{
		PortfolioID: portfolioID,
		Currency:    currency,
		Balance:     decimal.NewFromFloat(balance),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test cash account: %v", err)
	}
	return account
}

// CreateTestContribution records a capital contribution.
func CreateTestContribution(t *testing.T, db *gorm.DB, portfolioID string, contributionType models.ContributionType, amount float64) *models.CapitalContribution {
	t.Helper()

	contribution := &models.CapitalContribution{
		PortfolioID: portfolioID,
		Type:        contributionType,
		Amount:      decimal.NewFromFloat(amount),
		Currency:    "USD",
		OccurredAt:  time.Now().UTC(),
	}
	if err := db.Create(contribution).Error; err != nil {
		t.Fatalf("failed to create test contribution: %v", err)
	}
	return contribution
}

// CreateTestAlert creates an armed price alert.
func CreateTestAlert(t *testing.T, db *gorm.DB, userID, symbol string, direction models.AlertDirection, threshold float64) *models.PriceAlert {
	t.Helper()

	alert := &models.PriceAlert{
		UserID:    userID,
		Symbol:    symbol,
		Direction: direction,
		Threshold: decimal.NewFromFloat(threshold),
		IsActive:  true,
	}
	if err := db.Create(alert).Error; err != nil {
		t.Fatalf("failed to create test alert: %v", err)
	}
	return alert
}
