package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"folio/internal/handlers"
	"folio/internal/logger"
	"folio/internal/middleware"
	"folio/internal/models"
	"folio/internal/services"
	"folio/internal/testutil"
	"folio/internal/validator"
)

// testApp holds the full application stack for integration tests. Provider
// is the fake market data source; tests populate its quote and series maps.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Provider *testutil.FakeProvider
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Settings{},
		&models.Portfolio{},
		&models.Position{},
		&models.Transaction{},
		&models.CashAccount{},
		&models.CapitalContribution{},
		&models.Dividend{},
		&models.PriceAlert{},
		&models.PortfolioSnapshot{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	provider := &testutil.FakeProvider{}

	// Services
	userService := services.NewUserService(db)
	portfolioService := services.NewPortfolioService(db)
	ledgerService := services.NewLedgerService(db)
	cashService := services.NewCashService(db)
	valuationService := services.NewValuationService(db, provider, cashService)
	riskService := services.NewRiskService(db, provider, valuationService)
	performanceService := services.NewPerformanceService(db, provider, cashService)
	dividendService := services.NewDividendService(db)
	alertService := services.NewAlertService(db, provider)
	snapshotService := services.NewSnapshotService(db, provider)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	settingsHandler := handlers.NewSettingsHandler(userService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	positionHandler := handlers.NewPositionHandler(ledgerService, valuationService)
	cashHandler := handlers.NewCashHandler(cashService)
	analyticsHandler := handlers.NewAnalyticsHandler(riskService, valuationService, ledgerService, userService)
	performanceHandler := handlers.NewPerformanceHandler(performanceService, valuationService, snapshotService, userService)
	dividendHandler := handlers.NewDividendHandler(dividendService)
	alertHandler := handlers.NewAlertHandler(alertService)
	marketHandler := handlers.NewMarketHandler(provider)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/settings", settingsHandler.GetSettings)
	protected.PUT("/settings", settingsHandler.UpdateSettings)

	portfolios := protected.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.GetUserPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolioByID)
	portfolios.PUT("/:id", portfolioHandler.UpdatePortfolio)
	portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)

	portfolios.GET("/:id/positions", positionHandler.GetPositions)
	portfolios.POST("/:id/positions/buy", positionHandler.Buy)
	portfolios.POST("/:id/positions/sell", positionHandler.Sell)
	portfolios.POST("/:id/positions/merge", positionHandler.MergeDuplicates)
	portfolios.GET("/:id/positions/:position_id", positionHandler.GetPositionByID)
	portfolios.DELETE("/:id/positions/:position_id", positionHandler.DeletePosition)
	portfolios.GET("/:id/transactions", positionHandler.GetTransactions)

	portfolios.POST("/:id/cash/deposit", cashHandler.Deposit)
	portfolios.POST("/:id/cash/withdraw", cashHandler.Withdraw)
	portfolios.GET("/:id/cash", cashHandler.GetCashAccounts)
	portfolios.GET("/:id/cash/contributions", cashHandler.GetContributions)

	portfolios.POST("/:id/dividends", dividendHandler.AddDividend)
	portfolios.GET("/:id/dividends", dividendHandler.GetDividends)
	portfolios.DELETE("/:id/dividends/:dividend_id", dividendHandler.DeleteDividend)

	portfolios.GET("/:id/summary", analyticsHandler.GetSummary)
	portfolios.GET("/:id/risk", analyticsHandler.GetPortfolioRisk)
	portfolios.GET("/:id/positions/:position_id/risk", analyticsHandler.GetPositionRisk)
	portfolios.GET("/:id/correlations", analyticsHandler.GetCorrelations)
	portfolios.GET("/:id/sectors", analyticsHandler.GetSectorDistribution)

	portfolios.GET("/:id/performance", performanceHandler.GetPerformance)
	portfolios.GET("/:id/performance/benchmark", performanceHandler.CompareBenchmark)
	portfolios.GET("/:id/value", performanceHandler.GetValueAt)
	portfolios.GET("/:id/snapshots", performanceHandler.GetSnapshots)

	alerts := protected.Group("/alerts")
	alerts.POST("", alertHandler.CreateAlert)
	alerts.GET("", alertHandler.GetAlerts)
	alerts.PATCH("/:id", alertHandler.SetAlertActive)
	alerts.DELETE("/:id", alertHandler.DeleteAlert)

	market := protected.Group("/market")
	market.GET("/quote/:symbol", marketHandler.GetQuote)
	market.GET("/history/:symbol", marketHandler.GetHistory)
	market.GET("/search", marketHandler.Search)

	return &testApp{DB: db, Router: router, Provider: provider}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts the structured error code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected an error envelope, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createPortfolio creates a portfolio and returns its ID.
func (app *testApp) createPortfolio(t *testing.T, token, name string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/portfolios", fmt.Sprintf(`{"name":%q}`, name), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create portfolio failed: %d %s", rec.Code, rec.Body.String())
	}
	portfolio := parseJSON(t, rec)["portfolio"].(map[string]interface{})
	return portfolio["id"].(string)
}
