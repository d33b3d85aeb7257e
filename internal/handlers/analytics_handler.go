package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/services"
)

// AnalyticsHandler handles valuation summary and risk analytics requests.
// It reads the user's settings and passes the risk-free rate and benchmark
// into the risk service explicitly.
type AnalyticsHandler struct {
	riskService      services.RiskServicer
	valuationService services.ValuationServicer
	ledgerService    services.LedgerServicer
	userService      services.UserServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(riskService services.RiskServicer, valuationService services.ValuationServicer, ledgerService services.LedgerServicer, userService services.UserServicer) *AnalyticsHandler {
	return &AnalyticsHandler{
		riskService:      riskService,
		valuationService: valuationService,
		ledgerService:    ledgerService,
		userService:      userService,
	}
}

// periodParams binds the chart period query parameter.
type periodParams struct {
	Period string `form:"period" binding:"omitempty,chart_period"`
}

// periodQuery reads the chart period query parameter, using fallback when
// absent and rejecting unknown values.
func periodQuery(c *gin.Context, fallback string) (string, error) {
	var params periodParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid period")
	}
	if params.Period == "" {
		return fallback, nil
	}
	return params.Period, nil
}

// settingsFor reads the user's analytics settings, converting the stored
// risk-free percentage into the decimal fraction the analytics expect.
func (h *AnalyticsHandler) settingsFor(userID string) (riskFreeRate float64, benchmark string, err error) {
	settings, err := h.userService.GetSettings(userID)
	if err != nil {
		return 0, "", err
	}
	rate, benchmark := models.SettingsOrDefaults(settings)
	return rate / 100, benchmark, nil
}

// GetSummary returns the portfolio dashboard summary
// @Summary     Get portfolio summary
// @Description Get total value, cash, gain/loss, and capital performance for a portfolio
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} services.PortfolioSummary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/summary [get]
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
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

	summary, err := h.valuationService.Summary(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetPortfolioRisk returns portfolio-level risk statistics
// @Summary     Get portfolio risk
// @Description Get annualized volatility, beta, and Sharpe ratio for the portfolio over a period
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true  "Portfolio ID"
// @Param       period query string false "Chart period: all, ytd, 1y, 6m, 3m, 1m (default 1y)"
// @Success     200 {object} services.PortfolioRisk "Risk statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     422 {object} ErrorResponse "Insufficient data"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/risk [get]
func (h *AnalyticsHandler) GetPortfolioRisk(c *gin.Context) {
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

	period, err := periodQuery(c, services.PeriodOneYear)
	if err != nil {
		respondWithError(c, err)
		return
	}

	riskFreeRate, benchmark, err := h.settingsFor(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	risk, err := h.riskService.PortfolioRisk(c.Request.Context(), userID, portfolioID, benchmark, riskFreeRate, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, risk)
}

// GetPositionRisk returns per-position risk statistics
// @Summary     Get position risk
// @Description Get beta and volatility for one position's symbol, including realized volatility over the holding period
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id          path  string true  "Portfolio ID"
// @Param       position_id path  string true  "Position ID"
// @Param       period      query string false "Chart period (default 1y)"
// @Success     200 {object} services.SymbolRisk "Risk statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     422 {object} ErrorResponse "Insufficient data"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/positions/{position_id}/risk [get]
func (h *AnalyticsHandler) GetPositionRisk(c *gin.Context) {
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

	period, err := periodQuery(c, services.PeriodOneYear)
	if err != nil {
		respondWithError(c, err)
		return
	}

	position, err := h.ledgerService.GetPositionByID(userID, portfolioID, positionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	_, benchmark, err := h.settingsFor(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	risk, err := h.riskService.SymbolRisk(c.Request.Context(), position.Symbol, benchmark, period, &position.OpenedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, risk)
}

// GetSectorDistribution returns the portfolio's sector allocation
// @Summary     Get sector distribution
// @Description Get the portfolio's open positions grouped by sector, weighted by current market value
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     200 {array} services.SectorSlice "Sector slices, largest first"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/sectors [get]
func (h *AnalyticsHandler) GetSectorDistribution(c *gin.Context) {
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

	distribution, err := h.valuationService.SectorDistribution(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sectors": distribution})
}

// GetCorrelations returns the pairwise correlation matrix
// @Summary     Get correlation matrix
// @Description Get pairwise correlations between the portfolio's holdings over a period
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true  "Portfolio ID"
// @Param       period query string false "Chart period (default 1y)"
// @Success     200 {array} services.CorrelationPair "Correlation pairs"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     422 {object} ErrorResponse "Fewer than two positions"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/correlations [get]
func (h *AnalyticsHandler) GetCorrelations(c *gin.Context) {
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

	period, err := periodQuery(c, services.PeriodOneYear)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pairs, err := h.riskService.CorrelationMatrix(c.Request.Context(), userID, portfolioID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"correlations": pairs})
}
