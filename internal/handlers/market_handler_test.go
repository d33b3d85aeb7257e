package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"folio/internal/marketdata"
	"folio/internal/testutil"
	"folio/internal/timeseries"
)

func setupMarketRouter(handler *MarketHandler) *gin.Engine {
	r := gin.New()
	group := r.Group("/market", injectUserID(testUserID))
	group.GET("/quote/:symbol", handler.GetQuote)
	group.GET("/history/:symbol", handler.GetHistory)
	group.GET("/search", handler.Search)
	return r
}

func TestGetQuoteEndpoint(t *testing.T) {
	provider := &testutil.FakeProvider{Quotes: map[string]float64{"AAPL": 150}}
	r := setupMarketRouter(NewMarketHandler(provider))

	t.Run("symbol uppercased and quoted", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/market/quote/aapl", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if body["symbol"] != "AAPL" || body["price"] != float64(150) {
			t.Errorf("unexpected quote payload: %s", rec.Body.String())
		}
	})

	t.Run("unknown symbol", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/market/quote/NOPE", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestGetHistoryEndpoint(t *testing.T) {
	series := testutil.WeekdaySeries(time.Now().UTC().AddDate(0, 0, -10), 100, 101, 102)
	provider := &testutil.FakeProvider{Series: map[string]timeseries.Series{"AAPL": series}}
	r := setupMarketRouter(NewMarketHandler(provider))

	t.Run("series returned", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/market/history/AAPL?period=1m", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		prices, ok := body["prices"].([]interface{})
		if !ok || len(prices) != 3 {
			t.Fatalf("expected 3 price points, got %s", rec.Body.String())
		}
	})

	t.Run("unknown period rejected", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/market/history/AAPL?period=2w", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INVALID_INPUT" {
			t.Errorf("expected INVALID_INPUT, got %s", code)
		}
	})
}

func TestSearchEndpoint(t *testing.T) {
	provider := &testutil.FakeProvider{
		Matches: map[string][]marketdata.SymbolMatch{
			"apple": {{Symbol: "AAPL", Name: "Apple Inc.", Type: "EQUITY", Sector: "Technology"}},
		},
	}
	r := setupMarketRouter(NewMarketHandler(provider))

	t.Run("matches returned", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/market/search?q=Apple", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		results, ok := body["results"].([]interface{})
		if !ok || len(results) != 1 {
			t.Fatalf("expected one match, got %s", rec.Body.String())
		}
		match := results[0].(map[string]interface{})
		if match["symbol"] != "AAPL" || match["sector"] != "Technology" {
			t.Errorf("unexpected match payload: %v", match)
		}
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/market/search?q=nothing", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing query rejected", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/market/search?q=++", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}
