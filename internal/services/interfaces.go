package services

import (
	"context"
	"time"

	"folio/internal/models"
	"folio/internal/pagination"

	"github.com/shopspring/decimal"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	GetSettings(userID string) (*models.Settings, error)
	UpdateSettings(userID string, riskFreeRate *float64, benchmarkSymbol *string) (*models.Settings, error)
}

// PortfolioServicer defines the contract for portfolio container management.
type PortfolioServicer interface {
	CreatePortfolio(userID, name, description string) (*models.Portfolio, error)
	GetUserPortfolios(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error)
	GetPortfolioByID(userID, portfolioID string) (*models.Portfolio, error)
	UpdatePortfolio(userID, portfolioID, name, description string) (*models.Portfolio, error)
	DeletePortfolio(userID, portfolioID string) error
}

// BuyInput describes a buy to apply to the ledger.
type BuyInput struct {
	Symbol    string
	Name      string
	AssetType models.AssetType
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Date      time.Time
	Currency  string
	// CashCurrency, when set, settles the trade against the portfolio's
	// cash account in that currency atomically with the position update.
	CashCurrency *string
}

// SellInput describes a sell to apply to the ledger.
type SellInput struct {
	Symbol       string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Date         time.Time
	CashCurrency *string
}

// SellResult is the post-state of a sell. Position is nil when the sell
// closed the position entirely.
type SellResult struct {
	Position         *models.Position    `json:"position,omitempty"`
	Transaction      *models.Transaction `json:"transaction"`
	RealizedGainLoss decimal.Decimal     `json:"realized_gain_loss"`
}

// LedgerServicer applies transactions to the position set of a portfolio
// and maintains weighted-average cost basis. Mutations against the same
// portfolio are serialized.
type LedgerServicer interface {
	ApplyBuy(userID, portfolioID string, input BuyInput) (*models.Position, error)
	ApplySell(userID, portfolioID string, input SellInput) (*SellResult, error)
	MergeDuplicates(userID, portfolioID string) (int, error)
	GetPositions(userID, portfolioID string) ([]models.Position, error)
	GetPositionByID(userID, portfolioID, positionID string) (*models.Position, error)
	DeletePosition(userID, portfolioID, positionID string) error
	GetTransactions(userID, portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// CashServicer manages per-currency cash accounts and the capital
// contribution ledger of a portfolio.
type CashServicer interface {
	Deposit(userID, portfolioID, currency string, amount decimal.Decimal, date time.Time, description string) (*models.CapitalContribution, error)
	Withdraw(userID, portfolioID, currency string, amount decimal.Decimal, date time.Time, description string) (*models.CapitalContribution, error)
	GetCashAccounts(userID, portfolioID string) ([]models.CashAccount, error)
	GetContributions(userID, portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.CapitalContribution], error)
	NetCapital(portfolioID string) (decimal.Decimal, error)
}

// ValuationPoint is the portfolio's state at a single date.
type ValuationPoint struct {
	Date       time.Time `json:"date"`
	TotalValue float64   `json:"total_value"`
	CostBasis  float64   `json:"cost_basis"`
	GainLoss   float64   `json:"gain_loss"`
}

// PortfolioSummary is the current-state dashboard aggregate. CashBalances
// is per-currency and intentionally unconverted; CashValue sums the
// recorded balances as-is.
type PortfolioSummary struct {
	TotalValue                float64            `json:"total_value"`
	PositionsValue            float64            `json:"positions_value"`
	CashValue                 float64            `json:"cash_value"`
	CashBalances              map[string]float64 `json:"cash_balances"`
	TotalInvested             float64            `json:"total_invested"`
	NetCapital                float64            `json:"net_capital"`
	GainLoss                  float64            `json:"gain_loss"`
	GainLossPercent           float64            `json:"gain_loss_percent"`
	CapitalGainLoss           float64            `json:"capital_gain_loss"`
	CapitalPerformancePercent float64            `json:"capital_performance_percent"`
	HoldingPeriodDays         int                `json:"holding_period_days"`
	PositionCount             int                `json:"position_count"`
}

// PositionView is the read-only display projection of a position: the
// stored row plus market-derived fields, computed in exactly one place.
type PositionView struct {
	models.Position
	CurrentPrice    float64 `json:"current_price"`
	TotalValue      float64 `json:"total_value"`
	Invested        float64 `json:"invested"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
	Weight          float64 `json:"weight"`
}

// SectorSlice is one sector's share of the portfolio by market value.
type SectorSlice struct {
	Sector    string  `json:"sector"`
	Value     float64 `json:"value"`
	Weight    float64 `json:"weight"`
	Positions int     `json:"positions"`
}

// ValuationServicer computes point-in-time and current portfolio values.
type ValuationServicer interface {
	ValueAt(ctx context.Context, userID, portfolioID string, date time.Time) (*ValuationPoint, error)
	Summary(ctx context.Context, userID, portfolioID string) (*PortfolioSummary, error)
	PositionViews(ctx context.Context, userID, portfolioID string) ([]PositionView, error)
	SectorDistribution(ctx context.Context, userID, portfolioID string) ([]SectorSlice, error)
}

// PortfolioRisk aggregates the portfolio-level risk statistics.
type PortfolioRisk struct {
	Volatility  float64 `json:"volatility"`
	Beta        float64 `json:"beta"`
	SharpeRatio float64 `json:"sharpe_ratio"`
}

// SymbolRisk holds per-symbol risk statistics. RealizedVolatility is
// restricted to the span the position has actually been held.
type SymbolRisk struct {
	Symbol               string  `json:"symbol"`
	Beta                 float64 `json:"beta"`
	HistoricalVolatility float64 `json:"historical_volatility"`
	RealizedVolatility   float64 `json:"realized_volatility,omitempty"`
}

// CorrelationPair is one cell of the pairwise correlation matrix.
type CorrelationPair struct {
	SymbolA     string  `json:"symbol_a"`
	SymbolB     string  `json:"symbol_b"`
	Correlation float64 `json:"correlation"`
}

// RiskServicer computes risk statistics from aligned return series. The
// risk-free rate and benchmark symbol are always explicit parameters,
// sourced from per-user settings by the caller.
type RiskServicer interface {
	SymbolRisk(ctx context.Context, symbol, benchmark, period string, openedAt *time.Time) (*SymbolRisk, error)
	PortfolioRisk(ctx context.Context, userID, portfolioID, benchmark string, riskFreeRate float64, period string) (*PortfolioRisk, error)
	CorrelationMatrix(ctx context.Context, userID, portfolioID, period string) ([]CorrelationPair, error)
}

// PerformancePoint is one entry of a value-over-time series.
type PerformancePoint struct {
	Date          time.Time `json:"date"`
	Value         float64   `json:"value"`
	ChangePercent float64   `json:"change_percent"`
}

// ReturnDenominator selects the base for total_return_percent.
type ReturnDenominator string

const (
	// DenominatorStartValue divides by the series' first value.
	DenominatorStartValue ReturnDenominator = "start_value"
	// DenominatorNetCapital divides by net capital contributions.
	DenominatorNetCapital ReturnDenominator = "net_capital"
)

// PerformanceResult is a period's value series with its total return.
type PerformanceResult struct {
	Data               []PerformancePoint `json:"data"`
	TotalReturn        float64            `json:"total_return"`
	TotalReturnPercent float64            `json:"total_return_percent"`
}

// ComparisonPoint overlays portfolio and benchmark percent change.
type ComparisonPoint struct {
	Date             time.Time `json:"date"`
	PortfolioPercent float64   `json:"portfolio_percent"`
	BenchmarkPercent float64   `json:"benchmark_percent"`
}

// PerformanceServicer builds the chart series consumed by the dashboard.
type PerformanceServicer interface {
	PortfolioSeries(ctx context.Context, userID, portfolioID, period string, denominator ReturnDenominator) (*PerformanceResult, error)
	CompareBenchmark(ctx context.Context, userID, portfolioID, period, benchmark string) ([]ComparisonPoint, error)
}

// DividendServicer maintains the dividend income ledger of a portfolio.
// Dividends never touch position quantity or cost basis.
type DividendServicer interface {
	AddDividend(userID, portfolioID, positionID string, amount decimal.Decimal, date time.Time, notes string) (*models.Dividend, error)
	GetDividends(userID, portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.Dividend], error)
	DeleteDividend(userID, portfolioID, dividendID string) error
}

// AlertServicer manages price alerts and their evaluation.
type AlertServicer interface {
	CreateAlert(userID, symbol string, direction models.AlertDirection, threshold decimal.Decimal) (*models.PriceAlert, error)
	GetUserAlerts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PriceAlert], error)
	SetAlertActive(userID, alertID string, active bool) (*models.PriceAlert, error)
	DeleteAlert(userID, alertID string) error
	EvaluateAll(ctx context.Context) (int, error)
}

// SnapshotServicer records and serves daily portfolio valuation snapshots.
type SnapshotServicer interface {
	RecordAll(ctx context.Context) error
	GetHistory(userID, portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}
