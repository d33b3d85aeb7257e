package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
	"folio/internal/services"
)

// CashHandler handles cash account and capital contribution requests.
type CashHandler struct {
	cashService services.CashServicer
}

// NewCashHandler creates a new CashHandler.
func NewCashHandler(cashService services.CashServicer) *CashHandler {
	return &CashHandler{cashService: cashService}
}

// ContributionRequest represents a deposit or withdrawal payload.
type ContributionRequest struct {
	Currency    string  `json:"currency" binding:"required,iso4217"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Date        string  `json:"date"`
	Description string  `json:"description" binding:"max=500"`
}

// Deposit records a capital deposit
// @Summary     Deposit capital
// @Description Record a capital deposit, crediting the portfolio's cash account in that currency
// @Tags        cash
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       request body ContributionRequest true "Deposit details"
// @Success     201 {object} models.CapitalContribution "Recorded deposit"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/cash/deposit [post]
func (h *CashHandler) Deposit(c *gin.Context) {
	h.record(c, h.cashService.Deposit)
}

// Withdraw records a capital withdrawal
// @Summary     Withdraw capital
// @Description Record a capital withdrawal, debiting the portfolio's cash account in that currency
// @Tags        cash
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       request body ContributionRequest true "Withdrawal details"
// @Success     201 {object} models.CapitalContribution "Recorded withdrawal"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient funds"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio or cash account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/cash/withdraw [post]
func (h *CashHandler) Withdraw(c *gin.Context) {
	h.record(c, h.cashService.Withdraw)
}

type contributionFunc func(userID, portfolioID, currency string, amount decimal.Decimal, date time.Time, description string) (*models.CapitalContribution, error)

func (h *CashHandler) record(c *gin.Context, apply contributionFunc) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseOptionalDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contribution, err := apply(userID, portfolioID, req.Currency, decimal.NewFromFloat(req.Amount), date, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contribution": contribution})
}

// GetCashAccounts returns the portfolio's cash accounts
// @Summary     Get cash accounts
// @Description Get the portfolio's cash accounts, one per currency
// @Tags        cash
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     200 {array} models.CashAccount "Cash accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/cash [get]
func (h *CashHandler) GetCashAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.cashService.GetCashAccounts(userID, portfolioID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cash_accounts": accounts})
}

// GetContributions returns the capital contribution ledger
// @Summary     Get contributions
// @Description Get a paginated list of the portfolio's deposits and withdrawals, newest first
// @Tags        cash
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Portfolio ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 100)"
// @Success     200 {object} pagination.PageResponse[models.CapitalContribution] "Paginated contributions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/cash/contributions [get]
func (h *CashHandler) GetContributions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.cashService.GetContributions(userID, portfolioID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
