package testutil

import (
	"context"
	"strings"
	"time"

	apperrors "folio/internal/errors"
	"folio/internal/marketdata"
	"folio/internal/timeseries"
)

// FakeProvider is an in-memory market data provider for service tests.
// Symbols absent from both maps report SYMBOL_NOT_FOUND; a non-nil Err
// overrides everything. Matches keys are lowercase queries.
type FakeProvider struct {
	Series  map[string]timeseries.Series
	Quotes  map[string]float64
	Matches map[string][]marketdata.SymbolMatch
	Err     error
}

// GetDailySeries returns the configured series clipped to [start, end].
func (f *FakeProvider) GetDailySeries(_ context.Context, symbol string, start, end time.Time) (timeseries.Series, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	series, ok := f.Series[symbol]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrSymbolNotFound, "Unknown symbol "+symbol)
	}

	clipped := make(timeseries.Series, 0, len(series))
	for _, p := range series {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		clipped = append(clipped, p)
	}
	return clipped, nil
}

// GetLatestQuote returns the configured quote for the symbol.
func (f *FakeProvider) GetLatestQuote(_ context.Context, symbol string) (float64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	quote, ok := f.Quotes[symbol]
	if !ok {
		return 0, apperrors.WithMessage(apperrors.ErrSymbolNotFound, "Unknown symbol "+symbol)
	}
	return quote, nil
}

// Search returns the configured matches for the lowercased query.
func (f *FakeProvider) Search(_ context.Context, query string) ([]marketdata.SymbolMatch, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Matches[strings.ToLower(query)], nil
}

// WeekdaySeries builds a daily close series starting at start, skipping
// weekends, one point per price.
func WeekdaySeries(start time.Time, prices ...float64) timeseries.Series {
	series := make(timeseries.Series, 0, len(prices))
	date := timeseries.Day(start)
	for _, price := range prices {
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}
		series = append(series, timeseries.Point{Date: date, Price: price})
		date = date.AddDate(0, 0, 1)
	}
	return series
}
