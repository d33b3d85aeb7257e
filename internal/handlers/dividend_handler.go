package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "folio/internal/errors"
	"folio/internal/pagination"
	"folio/internal/services"
)

// DividendHandler handles dividend income ledger requests.
type DividendHandler struct {
	dividendService services.DividendServicer
}

// NewDividendHandler creates a new DividendHandler.
func NewDividendHandler(dividendService services.DividendServicer) *DividendHandler {
	return &DividendHandler{dividendService: dividendService}
}

// AddDividendRequest represents the payload for recording a dividend.
type AddDividendRequest struct {
	PositionID string  `json:"position_id" binding:"required,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Date       string  `json:"date"`
	Notes      string  `json:"notes" binding:"max=500"`
}

// AddDividend records a dividend against a position
// @Summary     Record a dividend
// @Description Record a cash dividend received against a position. The position's quantity and cost basis are unchanged.
// @Tags        dividends
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       request body AddDividendRequest true "Dividend details"
// @Success     201 {object} models.Dividend "Recorded dividend"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio or position not found"
// @Failure     409 {object} ErrorResponse "Position belongs to another portfolio"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/dividends [post]
func (h *DividendHandler) AddDividend(c *gin.Context) {
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

	var req AddDividendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseOptionalDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dividend, err := h.dividendService.AddDividend(userID, portfolioID, req.PositionID,
		decimal.NewFromFloat(req.Amount), date, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"dividend": dividend})
}

// GetDividends returns the dividend ledger
// @Summary     Get dividends
// @Description Get a paginated list of the portfolio's recorded dividends, newest first
// @Tags        dividends
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Portfolio ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Dividend] "Paginated dividends"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/dividends [get]
func (h *DividendHandler) GetDividends(c *gin.Context) {
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

	result, err := h.dividendService.GetDividends(userID, portfolioID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteDividend removes a dividend record
// @Summary     Delete dividend
// @Description Delete a recorded dividend from the ledger
// @Tags        dividends
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id          path string true "Portfolio ID"
// @Param       dividend_id path string true "Dividend ID"
// @Success     204 "Dividend deleted"
// @Failure     400 {object} ErrorResponse "Invalid dividend ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio or dividend not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/dividends/{dividend_id} [delete]
func (h *DividendHandler) DeleteDividend(c *gin.Context) {
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

	dividendID, err := parsePathID(c, "dividend_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.dividendService.DeleteDividend(userID, portfolioID, dividendID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
