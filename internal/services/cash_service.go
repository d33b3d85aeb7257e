package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
)

// adjustCashBalance applies a signed delta to the (portfolio, currency)
// cash account inside the caller's database transaction. A positive delta
// credits, a negative delta debits. The account is created on first
// credit; a debit that would drive the balance negative fails.
func adjustCashBalance(tx *gorm.DB, portfolioID, currency string, delta decimal.Decimal) error {
	var account models.CashAccount
	err := tx.Where("portfolio_id = ? AND currency = ?", portfolioID, currency).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if delta.Sign() < 0 {
			return apperrors.WithMessage(apperrors.ErrCashAccountNotFound,
				"No "+currency+" cash account in this portfolio")
		}
		account = models.CashAccount{
			PortfolioID: portfolioID,
			Currency:    currency,
			Balance:     delta,
		}
		if txErr := tx.Create(&account).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	newBalance := account.Balance.Add(delta)
	if newBalance.Sign() < 0 {
		return apperrors.WithMessage(apperrors.ErrInsufficientFunds,
			fmt.Sprintf("Insufficient %s balance: have %s, need %s",
				currency, account.Balance.String(), delta.Neg().String()))
	}
	if txErr := tx.Model(&account).Update("balance", newBalance).Error; txErr != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
	}
	return nil
}

// cashService manages cash accounts and the capital contribution ledger.
type cashService struct {
	db *gorm.DB
}

// NewCashService creates a new CashServicer.
func NewCashService(db *gorm.DB) CashServicer {
	return &cashService{db: db}
}

func (s *cashService) record(userID, portfolioID, currency string, contributionType models.ContributionType, amount decimal.Decimal, date time.Time, description string) (*models.CapitalContribution, error) {
	if amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be positive")
	}
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	contribution := &models.CapitalContribution{
		PortfolioID: portfolioID,
		Type:        contributionType,
		Amount:      amount,
		Currency:    currency,
		OccurredAt:  date,
		Description: description,
	}

	// Cash balance and contribution ledger must move together.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(contribution).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return adjustCashBalance(tx, portfolioID, currency, contribution.Signed())
	})
	if err != nil {
		return nil, err
	}
	return contribution, nil
}

// Deposit adds capital to the portfolio and credits its cash account.
func (s *cashService) Deposit(userID, portfolioID, currency string, amount decimal.Decimal, date time.Time, description string) (*models.CapitalContribution, error) {
	return s.record(userID, portfolioID, currency, models.ContributionDeposit, amount, date, description)
}

// Withdraw removes capital from the portfolio, debiting its cash account.
// Fails with INSUFFICIENT_FUNDS if the balance would go negative.
func (s *cashService) Withdraw(userID, portfolioID, currency string, amount decimal.Decimal, date time.Time, description string) (*models.CapitalContribution, error) {
	return s.record(userID, portfolioID, currency, models.ContributionWithdrawal, amount, date, description)
}

// GetCashAccounts returns the portfolio's cash accounts, one per currency.
func (s *cashService) GetCashAccounts(userID, portfolioID string) ([]models.CashAccount, error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	var accounts []models.CashAccount
	if err := s.db.Where("portfolio_id = ?", portfolioID).
		Order("currency ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetContributions returns the capital contribution ledger, newest first.
func (s *cashService) GetContributions(userID, portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.CapitalContribution], error) {
	if _, err := getOwnedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.CapitalContribution{}).Where("portfolio_id = ?", portfolioID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var contributions []models.CapitalContribution
	if err := base.Order("occurred_at DESC").
		Scopes(pagination.Paginate(page)).Find(&contributions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(contributions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// NetCapital returns Σ deposits − Σ withdrawals for the portfolio. This
// is the denominator for capital performance, distinct from cost basis.
func (s *cashService) NetCapital(portfolioID string) (decimal.Decimal, error) {
	var contributions []models.CapitalContribution
	if err := s.db.Where("portfolio_id = ?", portfolioID).Find(&contributions).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	net := decimal.Zero
	for _, c := range contributions {
		net = net.Add(c.Signed())
	}
	return net, nil
}
