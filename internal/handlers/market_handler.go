package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "folio/internal/errors"
	"folio/internal/marketdata"
	"folio/internal/services"
)

// MarketHandler exposes raw market data lookups.
type MarketHandler struct {
	provider marketdata.Provider
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(provider marketdata.Provider) *MarketHandler {
	return &MarketHandler{provider: provider}
}

// GetQuote returns the latest quote for a symbol
// @Summary     Get latest quote
// @Description Get the most recent price for a symbol
// @Tags        market
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path string true "Ticker symbol"
// @Success     200 {object} map[string]interface{} "Quote"
// @Failure     404 {object} ErrorResponse "Symbol not found"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /market/quote/{symbol} [get]
func (h *MarketHandler) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if symbol == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required"))
		return
	}

	price, err := h.provider.GetLatestQuote(c.Request.Context(), symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": price})
}

// Search matches tickers by symbol or name
// @Summary     Search tickers
// @Description Search for tickers matching a symbol or company name
// @Tags        market
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       q query string true "Search query"
// @Success     200 {array} marketdata.SymbolMatch "Matches"
// @Failure     400 {object} ErrorResponse "Missing query"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /market/search [get]
func (h *MarketHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Search query is required"))
		return
	}

	matches, err := h.provider.Search(c.Request.Context(), query)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": matches})
}

// GetHistory returns daily closes for a symbol
// @Summary     Get price history
// @Description Get daily closing prices for a symbol over a period
// @Tags        market
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path  string true  "Ticker symbol"
// @Param       period query string false "Chart period: all, ytd, 1y, 6m, 3m, 1m (default 1y)"
// @Success     200 {object} map[string]interface{} "Price history"
// @Failure     404 {object} ErrorResponse "Symbol not found"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /market/history/{symbol} [get]
func (h *MarketHandler) GetHistory(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if symbol == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required"))
		return
	}

	period, err := periodQuery(c, services.PeriodOneYear)
	if err != nil {
		respondWithError(c, err)
		return
	}
	now := time.Now().UTC()
	start := services.PeriodStart(period, now)

	series, err := h.provider.GetDailySeries(c.Request.Context(), symbol, start, now)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "prices": series.Sorted()})
}
