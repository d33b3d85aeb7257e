package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
	"folio/internal/services"
)

// PerformanceHandler handles value-over-time and benchmark comparison
// requests.
type PerformanceHandler struct {
	performanceService services.PerformanceServicer
	valuationService   services.ValuationServicer
	snapshotService    services.SnapshotServicer
	userService        services.UserServicer
}

// NewPerformanceHandler creates a new PerformanceHandler.
func NewPerformanceHandler(performanceService services.PerformanceServicer, valuationService services.ValuationServicer, snapshotService services.SnapshotServicer, userService services.UserServicer) *PerformanceHandler {
	return &PerformanceHandler{
		performanceService: performanceService,
		valuationService:   valuationService,
		snapshotService:    snapshotService,
		userService:        userService,
	}
}

// GetPerformance returns the portfolio's value series over a period
// @Summary     Get performance series
// @Description Get the portfolio's daily value series with percent change and total return. denominator selects the base of total_return_percent: start_value (default) or net_capital.
// @Tags        performance
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id          path  string true  "Portfolio ID"
// @Param       period      query string false "Chart period: all, ytd, 1y, 6m, 3m, 1m (default all)"
// @Param       denominator query string false "Return base: start_value or net_capital (default start_value)"
// @Success     200 {object} services.PerformanceResult "Performance series"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/performance [get]
func (h *PerformanceHandler) GetPerformance(c *gin.Context) {
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

	period, err := periodQuery(c, services.PeriodAll)
	if err != nil {
		respondWithError(c, err)
		return
	}

	denominator := services.ReturnDenominator(c.DefaultQuery("denominator", string(services.DenominatorStartValue)))
	switch denominator {
	case services.DenominatorStartValue, services.DenominatorNetCapital:
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid denominator"))
		return
	}

	result, err := h.performanceService.PortfolioSeries(c.Request.Context(), userID, portfolioID, period, denominator)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompareBenchmark returns the portfolio and benchmark overlay
// @Summary     Compare with benchmark
// @Description Get the portfolio and a benchmark index as percent change from the period start. The benchmark defaults to the user's settings.
// @Tags        performance
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Portfolio ID"
// @Param       period    query string false "Chart period (default all)"
// @Param       benchmark query string false "Benchmark symbol (default from settings)"
// @Success     200 {array} services.ComparisonPoint "Comparison series"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     422 {object} ErrorResponse "No benchmark data"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/performance/benchmark [get]
func (h *PerformanceHandler) CompareBenchmark(c *gin.Context) {
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

	period, err := periodQuery(c, services.PeriodAll)
	if err != nil {
		respondWithError(c, err)
		return
	}

	benchmark := c.Query("benchmark")
	if benchmark == "" {
		settings, sErr := h.userService.GetSettings(userID)
		if sErr != nil {
			respondWithError(c, sErr)
			return
		}
		_, benchmark = models.SettingsOrDefaults(settings)
	}

	comparison, err := h.performanceService.CompareBenchmark(c.Request.Context(), userID, portfolioID, period, benchmark)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparison": comparison})
}

// GetValueAt returns the portfolio's value at a past date
// @Summary     Get historical value
// @Description Get the portfolio's value and cost basis as of a date, reconstructed from the transaction log
// @Tags        performance
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true "Portfolio ID"
// @Param       date query string true "Date (YYYY-MM-DD)"
// @Success     200 {object} services.ValuationPoint "Valuation"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     502 {object} ErrorResponse "Market data unavailable"
// @Router      /portfolios/{id}/value [get]
func (h *PerformanceHandler) GetValueAt(c *gin.Context) {
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

	dateParam := c.Query("date")
	if dateParam == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required"))
		return
	}
	date, err := parseDate(dateParam)
	if err != nil {
		respondWithError(c, err)
		return
	}

	point, err := h.valuationService.ValueAt(c.Request.Context(), userID, portfolioID, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, point)
}

// GetSnapshots returns recorded valuation snapshots
// @Summary     Get snapshots
// @Description Get a paginated list of the portfolio's recorded daily snapshots, newest first
// @Tags        performance
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Portfolio ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PortfolioSnapshot] "Paginated snapshots"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/snapshots [get]
func (h *PerformanceHandler) GetSnapshots(c *gin.Context) {
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

	result, err := h.snapshotService.GetHistory(userID, portfolioID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
