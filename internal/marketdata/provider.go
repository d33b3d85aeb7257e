// Package marketdata defines the price-series collaborator the valuation
// and analytics layers consume. The core only depends on the Provider
// interface; retrieval, caching, and retry policy live behind it.
package marketdata

import (
	"context"
	"time"

	"folio/internal/timeseries"
)

// SymbolMatch is one result of a ticker search. Sector is empty for
// instruments that have none (ETFs, crypto pairs, indexes).
type SymbolMatch struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Sector string `json:"sector,omitempty"`
}

// Provider supplies daily closing-price series and latest quotes per
// symbol. Implementations return SYMBOL_NOT_FOUND for unknown tickers.
type Provider interface {
	// GetDailySeries returns the ordered daily closing prices for a symbol
	// between start and end inclusive, on the symbol's own trading
	// calendar (no alignment is performed here).
	GetDailySeries(ctx context.Context, symbol string, start, end time.Time) (timeseries.Series, error)

	// GetLatestQuote returns the most recent price for a symbol.
	GetLatestQuote(ctx context.Context, symbol string) (float64, error)

	// Search matches tickers by symbol or company name. An unmatched
	// query returns an empty slice, not an error.
	Search(ctx context.Context, query string) ([]SymbolMatch, error)
}
