package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// TestTradeFlow walks the full investing lifecycle over the HTTP surface:
// deposit capital, buy twice (averaging the cost basis), sell at a gain,
// and check cash, summary, and the transaction log along the way.
func TestTradeFlow(t *testing.T) {
	app := setupApp(t)
	app.Provider.Quotes = map[string]float64{"AAPL": 150}

	token, _, _ := app.registerUser(t, "trader@test.com", "password123")
	portfolioID := app.createPortfolio(t, token, "Growth")
	base := "/api/v1/portfolios/" + portfolioID

	// Step 1: Deposit 10,000 USD
	rec := app.request("POST", base+"/cash/deposit", `{"currency":"USD","amount":10000}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit failed: %d %s", rec.Code, rec.Body.String())
	}

	// Step 2: Cash-settled buy of 10 AAPL @ 100
	rec = app.request("POST", base+"/positions/buy",
		`{"symbol":"AAPL","asset_type":"stock","quantity":10,"unit_price":100,"cash_currency":"USD"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
	}
	position := parseJSON(t, rec)["position"].(map[string]interface{})
	if position["quantity"] != "10" || position["avg_price"] != "100" {
		t.Errorf("expected 10 @ 100, got %v @ %v", position["quantity"], position["avg_price"])
	}

	// Step 3: Second buy of 10 @ 120 re-averages the cost basis
	rec = app.request("POST", base+"/positions/buy",
		`{"symbol":"AAPL","asset_type":"stock","quantity":10,"unit_price":120,"cash_currency":"USD"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second buy failed: %d %s", rec.Code, rec.Body.String())
	}
	position = parseJSON(t, rec)["position"].(map[string]interface{})
	if position["quantity"] != "20" || position["avg_price"] != "110" {
		t.Errorf("expected 20 @ 110, got %v @ %v", position["quantity"], position["avg_price"])
	}

	// Step 4: Sell 12 @ 150; realized gain is (150-110)*12 = 480
	rec = app.request("POST", base+"/positions/sell",
		`{"symbol":"AAPL","quantity":12,"unit_price":150,"cash_currency":"USD"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("sell failed: %d %s", rec.Code, rec.Body.String())
	}
	sellResult := parseJSON(t, rec)
	if sellResult["realized_gain_loss"] != "480" {
		t.Errorf("expected realized gain 480, got %v", sellResult["realized_gain_loss"])
	}

	// Step 5: Cash reflects every settlement: 10000 - 1000 - 1200 + 1800
	rec = app.request("GET", base+"/cash", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cash failed: %d %s", rec.Code, rec.Body.String())
	}
	accounts := parseJSON(t, rec)["cash_accounts"].([]interface{})
	if len(accounts) != 1 {
		t.Fatalf("expected one cash account, got %d", len(accounts))
	}
	account := accounts[0].(map[string]interface{})
	if account["balance"] != "9600" {
		t.Errorf("expected balance 9600, got %v", account["balance"])
	}

	// Step 6: Summary values the remaining 8 shares at the latest quote
	rec = app.request("GET", base+"/summary", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary failed: %d %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)
	if summary["positions_value"] != float64(8*150) {
		t.Errorf("expected positions value 1200, got %v", summary["positions_value"])
	}
	if summary["cash_value"] != float64(9600) {
		t.Errorf("expected cash value 9600, got %v", summary["cash_value"])
	}
	if summary["total_value"] != float64(10800) {
		t.Errorf("expected total value 10800, got %v", summary["total_value"])
	}
	if summary["net_capital"] != float64(10000) {
		t.Errorf("expected net capital 10000, got %v", summary["net_capital"])
	}

	// Step 7: The transaction log holds all three trades
	rec = app.request("GET", base+"/transactions", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get transactions failed: %d %s", rec.Code, rec.Body.String())
	}
	page := parseJSON(t, rec)
	if page["total_items"] != float64(3) {
		t.Errorf("expected 3 transactions, got %v", page["total_items"])
	}
}

func TestTradeFlow_Oversell(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "oversell@test.com", "password123")
	portfolioID := app.createPortfolio(t, token, "Main")
	base := "/api/v1/portfolios/" + portfolioID

	rec := app.request("POST", base+"/positions/buy",
		`{"symbol":"AAPL","asset_type":"stock","quantity":5,"unit_price":100}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", base+"/positions/sell",
		`{"symbol":"AAPL","quantity":6,"unit_price":100}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INVALID_QUANTITY" {
		t.Errorf("expected INVALID_QUANTITY, got %v", code)
	}
}

func TestTradeFlow_InsufficientFunds(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "broke@test.com", "password123")
	portfolioID := app.createPortfolio(t, token, "Main")
	base := "/api/v1/portfolios/" + portfolioID

	rec := app.request("POST", base+"/cash/deposit", `{"currency":"USD","amount":500}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit failed: %d %s", rec.Code, rec.Body.String())
	}

	// 10 @ 100 needs 1000 but only 500 is available
	rec = app.request("POST", base+"/positions/buy",
		`{"symbol":"AAPL","asset_type":"stock","quantity":10,"unit_price":100,"cash_currency":"USD"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INSUFFICIENT_FUNDS" {
		t.Errorf("expected INSUFFICIENT_FUNDS, got %v", code)
	}
}

func TestTradeFlow_CrossUserIsolation(t *testing.T) {
	app := setupApp(t)
	ownerToken, _, _ := app.registerUser(t, "owner@test.com", "password123")
	otherToken, _, _ := app.registerUser(t, "other@test.com", "password123")

	portfolioID := app.createPortfolio(t, ownerToken, "Private")
	base := "/api/v1/portfolios/" + portfolioID

	for _, path := range []string{base, base + "/positions", base + "/summary", base + "/transactions"} {
		rec := app.request("GET", path, "", otherToken)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404 for another user, got %d", path, rec.Code)
		}
	}
}

func TestDividendFlow(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "income@test.com", "password123")
	portfolioID := app.createPortfolio(t, token, "Income")
	base := "/api/v1/portfolios/" + portfolioID

	rec := app.request("POST", base+"/positions/buy",
		`{"symbol":"KO","asset_type":"stock","quantity":100,"unit_price":60}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
	}
	position := parseJSON(t, rec)["position"].(map[string]interface{})
	positionID := position["id"].(string)

	// Record a dividend against the position
	body := fmt.Sprintf(`{"position_id":%q,"amount":46,"notes":"Q3 payout"}`, positionID)
	rec = app.request("POST", base+"/dividends", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add dividend failed: %d %s", rec.Code, rec.Body.String())
	}
	dividend := parseJSON(t, rec)["dividend"].(map[string]interface{})
	if dividend["symbol"] != "KO" || dividend["amount"] != "46" {
		t.Errorf("unexpected dividend payload: %v", dividend)
	}
	dividendID := dividend["id"].(string)

	// The position is untouched: dividends are income, not trades
	rec = app.request("GET", base+"/positions/"+positionID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get position failed: %d %s", rec.Code, rec.Body.String())
	}
	position = parseJSON(t, rec)["position"].(map[string]interface{})
	if position["quantity"] != "100" || position["avg_price"] != "60" {
		t.Errorf("dividend must not alter the position, got %v @ %v", position["quantity"], position["avg_price"])
	}

	// Listed newest first
	rec = app.request("GET", base+"/dividends", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list dividends failed: %d %s", rec.Code, rec.Body.String())
	}
	page := parseJSON(t, rec)
	if page["total_items"] != float64(1) {
		t.Fatalf("expected one dividend, got %v", page["total_items"])
	}

	// Delete and verify it is gone
	rec = app.request("DELETE", base+"/dividends/"+dividendID, "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete dividend failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("DELETE", base+"/dividends/"+dividendID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on double delete, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "DIVIDEND_NOT_FOUND" {
		t.Errorf("expected DIVIDEND_NOT_FOUND, got %v", code)
	}
}
