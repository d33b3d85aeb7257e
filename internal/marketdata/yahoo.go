package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "folio/internal/errors"
	"folio/internal/timeseries"
)

const (
	yahooChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooSearchURL = "https://query1.finance.yahoo.com/v1/finance/search"
	yahooUA        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// yahooChartResponse is the subset of the Yahoo chart API response we read.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooSearchResponse is the subset of the Yahoo search API response we
// read. Non-equity matches carry no sector.
type yahooSearchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Sector    string `json:"sector"`
	} `json:"quotes"`
}

// YahooProvider fetches price series, quotes, and ticker matches from the
// Yahoo Finance APIs. It serves stocks, ETFs, crypto pairs (BTC-USD), and
// index symbols (^GSPC) alike.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // chart endpoint, overridable for tests
	searchURL  string // search endpoint, overridable for tests
}

// NewYahooProvider creates a new Yahoo Finance price provider.
func NewYahooProvider(httpClient *http.Client) *YahooProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &YahooProvider{httpClient: httpClient, baseURL: yahooChartURL, searchURL: yahooSearchURL}
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, params url.Values) (*yahooChartResponse, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed, err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.WithMessage(apperrors.ErrSymbolNotFound, "Symbol "+symbol+" not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed,
			fmt.Errorf("yahoo chart API returned status %d for %s", resp.StatusCode, symbol))
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed, err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, apperrors.WithMessage(apperrors.ErrSymbolNotFound, "Symbol "+symbol+" not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed,
			fmt.Errorf("yahoo chart API error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrSymbolNotFound, "Symbol "+symbol+" not found")
	}
	return &chart, nil
}

// GetDailySeries returns daily closes between start and end inclusive.
func (p *YahooProvider) GetDailySeries(ctx context.Context, symbol string, start, end time.Time) (timeseries.Series, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", fmt.Sprintf("%d", timeseries.Day(start).Unix()))
	// period2 is exclusive; push it past the end date.
	params.Set("period2", fmt.Sprintf("%d", timeseries.Day(end).Add(24*time.Hour).Unix()))

	chart, err := p.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrSymbolNotFound, "Symbol "+symbol+" has no quote data")
	}
	closes := result.Indicators.Quote[0].Close

	series := make(timeseries.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			// Yahoo emits null closes for half-days and data gaps.
			continue
		}
		series = append(series, timeseries.Point{
			Date:  timeseries.Day(time.Unix(ts, 0)),
			Price: *closes[i],
		})
	}
	return series, nil
}

// GetLatestQuote returns the most recent market price for a symbol.
func (p *YahooProvider) GetLatestQuote(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	chart, err := p.fetchChart(ctx, symbol, params)
	if err != nil {
		return 0, err
	}

	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrSymbolNotFound, "Symbol "+symbol+" has no market price")
	}
	return price, nil
}

// Search matches tickers by symbol or name. Matches without a symbol are
// dropped; an unmatched query yields an empty slice.
func (p *YahooProvider) Search(ctx context.Context, query string) ([]SymbolMatch, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("quotesCount", "10")
	params.Set("newsCount", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed, err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed,
			fmt.Errorf("yahoo search API returned status %d for %q", resp.StatusCode, query))
	}

	var result yahooSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailed, err)
	}

	matches := make([]SymbolMatch, 0, len(result.Quotes))
	for _, q := range result.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		matches = append(matches, SymbolMatch{
			Symbol: q.Symbol,
			Name:   name,
			Type:   q.QuoteType,
			Sector: q.Sector,
		})
	}
	return matches, nil
}
