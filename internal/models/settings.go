package models

// Default analytics settings applied when a user has no Settings row.
const (
	DefaultRiskFreeRate    = 3.0
	DefaultBenchmarkSymbol = "^GSPC"
)

// Settings holds per-user analytics preferences. RiskFreeRate is an
// annualized percentage; BenchmarkSymbol is the index used for beta and
// performance comparison. Handlers read these and pass them explicitly
// into analytics calls; the analytics layer never reads them itself.
type Settings struct {
	Base
	UserID          string  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	RiskFreeRate    float64 `gorm:"not null;default:3.0" json:"risk_free_rate"`
	BenchmarkSymbol string  `gorm:"not null;default:'^GSPC'" json:"benchmark_symbol"`
}

// SettingsOrDefaults returns usable settings values, falling back to the
// application defaults when s is nil.
func SettingsOrDefaults(s *Settings) (riskFreeRate float64, benchmark string) {
	if s == nil {
		return DefaultRiskFreeRate, DefaultBenchmarkSymbol
	}
	riskFreeRate = s.RiskFreeRate
	benchmark = s.BenchmarkSymbol
	if benchmark == "" {
		benchmark = DefaultBenchmarkSymbol
	}
	return riskFreeRate, benchmark
}
