package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
	"folio/internal/services"
)

// PositionHandler handles position and trade requests.
type PositionHandler struct {
	ledgerService    services.LedgerServicer
	valuationService services.ValuationServicer
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(ledgerService services.LedgerServicer, valuationService services.ValuationServicer) *PositionHandler {
	return &PositionHandler{ledgerService: ledgerService, valuationService: valuationService}
}

// BuyRequest represents the request payload for recording a buy.
// cash_currency, when set, settles the trade against the portfolio's cash
// account in that currency.
type BuyRequest struct {
	Symbol       string  `json:"symbol" binding:"required,min=1,max=20"`
	Name         string  `json:"name" binding:"max=100"`
	AssetType    string  `json:"asset_type" binding:"required,asset_type"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice    float64 `json:"unit_price" binding:"required,gt=0"`
	Date         string  `json:"date"`
	Currency     string  `json:"currency" binding:"omitempty,iso4217"`
	CashCurrency *string `json:"cash_currency" binding:"omitempty,iso4217"`
}

// SellRequest represents the request payload for recording a sell.
type SellRequest struct {
	Symbol       string  `json:"symbol" binding:"required,min=1,max=20"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice    float64 `json:"unit_price" binding:"required,gt=0"`
	Date         string  `json:"date"`
	CashCurrency *string `json:"cash_currency" binding:"omitempty,iso4217"`
}

func parseOptionalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	return parseDate(value)
}

// GetPositions returns the portfolio's positions with market data
// @Summary     Get positions
// @Description Get the portfolio's positions enriched with latest prices, gain/loss, and weights
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     200 {array} services.PositionView "Positions"
// @Failure     400 {object} ErrorResponse "Invalid portfolio ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/positions [get]
func (h *PositionHandler) GetPositions(c *gin.Context) {
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

	views, err := h.valuationService.PositionViews(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"positions": views})
}

// Buy records a buy transaction
// @Summary     Record a buy
// @Description Record a buy, creating or averaging into the position
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       request body BuyRequest true "Buy details"
// @Success     201 {object} models.Position "Updated position"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/positions/buy [post]
func (h *PositionHandler) Buy(c *gin.Context) {
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

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseOptionalDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	position, err := h.ledgerService.ApplyBuy(userID, portfolioID, services.BuyInput{
		Symbol:       strings.ToUpper(req.Symbol),
		Name:         req.Name,
		AssetType:    models.AssetType(req.AssetType),
		Quantity:     decimal.NewFromFloat(req.Quantity),
		UnitPrice:    decimal.NewFromFloat(req.UnitPrice),
		Date:         date,
		Currency:     currency,
		CashCurrency: req.CashCurrency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"position": position})
}

// Sell records a sell transaction
// @Summary     Record a sell
// @Description Record a sell, reducing or closing the position and reporting realized gain/loss
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       request body SellRequest true "Sell details"
// @Success     200 {object} services.SellResult "Sell result"
// @Failure     400 {object} ErrorResponse "Invalid input or quantity exceeds holding"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio or position not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/positions/sell [post]
func (h *PositionHandler) Sell(c *gin.Context) {
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

	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseOptionalDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ledgerService.ApplySell(userID, portfolioID, services.SellInput{
		Symbol:       strings.ToUpper(req.Symbol),
		Quantity:     decimal.NewFromFloat(req.Quantity),
		UnitPrice:    decimal.NewFromFloat(req.UnitPrice),
		Date:         date,
		CashCurrency: req.CashCurrency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPositionByID returns a single position
// @Summary     Get position by ID
// @Description Get a specific position in the portfolio
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id          path string true "Portfolio ID"
// @Param       position_id path string true "Position ID"
// @Success     200 {object} models.Position "Position"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     409 {object} ErrorResponse "Position belongs to another portfolio"
// @Router      /portfolios/{id}/positions/{position_id} [get]
func (h *PositionHandler) GetPositionByID(c *gin.Context) {
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

	positionID, err := parsePathID(c, "position_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	position, err := h.ledgerService.GetPositionByID(userID, portfolioID, positionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// DeletePosition removes a position without selling
// @Summary     Delete position
// @Description Remove a position from the portfolio without recording a sell. The transaction log is kept.
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id          path string true "Portfolio ID"
// @Param       position_id path string true "Position ID"
// @Success     204 "Position deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     409 {object} ErrorResponse "Position belongs to another portfolio"
// @Router      /portfolios/{id}/positions/{position_id} [delete]
func (h *PositionHandler) DeletePosition(c *gin.Context) {
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

	positionID, err := parsePathID(c, "position_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledgerService.DeletePosition(userID, portfolioID, positionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MergeDuplicates merges duplicate positions per symbol
// @Summary     Merge duplicate positions
// @Description Merge positions sharing a symbol into one weighted-average position. Idempotent.
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} map[string]int "Number of merged positions"
// @Failure     400 {object} ErrorResponse "Invalid portfolio ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/positions/merge [post]
func (h *PositionHandler) MergeDuplicates(c *gin.Context) {
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

	merged, err := h.ledgerService.MergeDuplicates(userID, portfolioID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"merged": merged})
}

// GetTransactions returns the portfolio's transaction log
// @Summary     Get transactions
// @Description Get a paginated list of the portfolio's buy/sell transactions, newest first
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Portfolio ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/transactions [get]
func (h *PositionHandler) GetTransactions(c *gin.Context) {
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

	result, err := h.ledgerService.GetTransactions(userID, portfolioID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
