package main

import (
	"fmt"
	"net/http"
	"os"

	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/handlers"
	"folio/internal/logger"
	"folio/internal/marketdata"
	"folio/internal/middleware"
	"folio/internal/scheduler"
	"folio/internal/services"
	"folio/internal/validator"

	"github.com/gin-gonic/gin"
)

// @title           Folio API
// @version         1.0
// @description     Folio is a personal investment tracker: portfolios, positions with weighted-average cost basis, valuation, and risk analytics.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Market data provider
	provider := marketdata.NewYahooProvider(nil)

	// Initialize services
	db := dbManager.DB()
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

	// Initialize handlers
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

	// Background jobs: daily snapshots and alert sweeps
	jobs := scheduler.New(snapshotService, alertService)
	if err := jobs.Register(appConfig.SnapshotCronSpec, appConfig.AlertCronSpec); err != nil {
		return fmt.Errorf("failed to register background jobs: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile and settings
	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/settings", settingsHandler.GetSettings)
	protected.PUT("/settings", settingsHandler.UpdateSettings)

	// Portfolio routes
	portfolios := protected.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.GetUserPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolioByID)
	portfolios.PUT("/:id", portfolioHandler.UpdatePortfolio)
	portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)

	// Positions and trades
	portfolios.GET("/:id/positions", positionHandler.GetPositions)
	portfolios.POST("/:id/positions/buy", positionHandler.Buy)
	portfolios.POST("/:id/positions/sell", positionHandler.Sell)
	portfolios.POST("/:id/positions/merge", positionHandler.MergeDuplicates)
	portfolios.GET("/:id/positions/:position_id", positionHandler.GetPositionByID)
	portfolios.DELETE("/:id/positions/:position_id", positionHandler.DeletePosition)
	portfolios.GET("/:id/transactions", positionHandler.GetTransactions)

	// Cash accounts and capital contributions
	portfolios.POST("/:id/cash/deposit", cashHandler.Deposit)
	portfolios.POST("/:id/cash/withdraw", cashHandler.Withdraw)
	portfolios.GET("/:id/cash", cashHandler.GetCashAccounts)
	portfolios.GET("/:id/cash/contributions", cashHandler.GetContributions)

	// Dividend income ledger
	portfolios.POST("/:id/dividends", dividendHandler.AddDividend)
	portfolios.GET("/:id/dividends", dividendHandler.GetDividends)
	portfolios.DELETE("/:id/dividends/:dividend_id", dividendHandler.DeleteDividend)

	// Valuation and risk analytics
	portfolios.GET("/:id/summary", analyticsHandler.GetSummary)
	portfolios.GET("/:id/risk", analyticsHandler.GetPortfolioRisk)
	portfolios.GET("/:id/positions/:position_id/risk", analyticsHandler.GetPositionRisk)
	portfolios.GET("/:id/correlations", analyticsHandler.GetCorrelations)
	portfolios.GET("/:id/sectors", analyticsHandler.GetSectorDistribution)

	// Performance series
	portfolios.GET("/:id/performance", performanceHandler.GetPerformance)
	portfolios.GET("/:id/performance/benchmark", performanceHandler.CompareBenchmark)
	portfolios.GET("/:id/value", performanceHandler.GetValueAt)
	portfolios.GET("/:id/snapshots", performanceHandler.GetSnapshots)

	// Price alerts
	alerts := protected.Group("/alerts")
	alerts.POST("", alertHandler.CreateAlert)
	alerts.GET("", alertHandler.GetAlerts)
	alerts.PATCH("/:id", alertHandler.SetAlertActive)
	alerts.DELETE("/:id", alertHandler.DeleteAlert)

	// Market data lookups
	market := protected.Group("/market")
	market.GET("/quote/:symbol", marketHandler.GetQuote)
	market.GET("/history/:symbol", marketHandler.GetHistory)
	market.GET("/search", marketHandler.Search)

	log.Infof("Starting Folio backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
