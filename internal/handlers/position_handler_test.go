package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
	"folio/internal/services"
)

const testPortfolioID = "0190a6e2-0000-7000-8000-000000000002"

// --- mock services ---

type mockLedgerService struct {
	applyBuyFn        func(userID, portfolioID string, input services.BuyInput) (*models.Position, error)
	applySellFn       func(userID, portfolioID string, input services.SellInput) (*services.SellResult, error)
	mergeDuplicatesFn func(userID, portfolioID string) (int, error)
}

func (m *mockLedgerService) ApplyBuy(userID, portfolioID string, input services.BuyInput) (*models.Position, error) {
	if m.applyBuyFn != nil {
		return m.applyBuyFn(userID, portfolioID, input)
	}
	return &models.Position{}, nil
}

func (m *mockLedgerService) ApplySell(userID, portfolioID string, input services.SellInput) (*services.SellResult, error) {
	if m.applySellFn != nil {
		return m.applySellFn(userID, portfolioID, input)
	}
	return &services.SellResult{}, nil
}

func (m *mockLedgerService) MergeDuplicates(userID, portfolioID string) (int, error) {
	if m.mergeDuplicatesFn != nil {
		return m.mergeDuplicatesFn(userID, portfolioID)
	}
	return 0, nil
}

func (m *mockLedgerService) GetPositions(_, _ string) ([]models.Position, error) {
	return nil, nil
}

func (m *mockLedgerService) GetPositionByID(_, _, _ string) (*models.Position, error) {
	return &models.Position{}, nil
}

func (m *mockLedgerService) DeletePosition(_, _, _ string) error { return nil }

func (m *mockLedgerService) GetTransactions(_, _ string, _ pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	return &pagination.PageResponse[models.Transaction]{}, nil
}

type mockValuationService struct {
	positionViewsFn func(ctx context.Context, userID, portfolioID string) ([]services.PositionView, error)
}

func (m *mockValuationService) ValueAt(_ context.Context, _, _ string, _ time.Time) (*services.ValuationPoint, error) {
	return nil, nil
}

func (m *mockValuationService) PositionViews(ctx context.Context, userID, portfolioID string) ([]services.PositionView, error) {
	if m.positionViewsFn != nil {
		return m.positionViewsFn(ctx, userID, portfolioID)
	}
	return nil, nil
}

func (m *mockValuationService) Summary(_ context.Context, _, _ string) (*services.PortfolioSummary, error) {
	return &services.PortfolioSummary{}, nil
}

func (m *mockValuationService) SectorDistribution(_ context.Context, _, _ string) ([]services.SectorSlice, error) {
	return nil, nil
}

// --- tests ---

func setupPositionRouter(handler *PositionHandler) *gin.Engine {
	r := gin.New()
	group := r.Group("/portfolios/:id", injectUserID(testUserID))
	group.GET("/positions", handler.GetPositions)
	group.POST("/positions/buy", handler.Buy)
	group.POST("/positions/sell", handler.Sell)
	group.POST("/positions/merge", handler.MergeDuplicates)
	return r
}

func TestBuy(t *testing.T) {
	t.Run("valid buy forwarded to the ledger", func(t *testing.T) {
		var got services.BuyInput
		mock := &mockLedgerService{
			applyBuyFn: func(userID, portfolioID string, input services.BuyInput) (*models.Position, error) {
				if userID != testUserID || portfolioID != testPortfolioID {
					t.Errorf("unexpected scope: %s / %s", userID, portfolioID)
				}
				got = input
				return &models.Position{Symbol: input.Symbol}, nil
			},
		}
		r := setupPositionRouter(NewPositionHandler(mock, &mockValuationService{}))

		rec := doRequest(r, http.MethodPost, "/portfolios/"+testPortfolioID+"/positions/buy",
			`{"symbol":"aapl","asset_type":"stock","quantity":10,"unit_price":100.5}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Symbol != "AAPL" {
			t.Errorf("expected the symbol uppercased, got %s", got.Symbol)
		}
		if got.Currency != "USD" {
			t.Errorf("expected USD default, got %s", got.Currency)
		}
		if !got.Quantity.Equal(decimal.NewFromFloat(10)) || !got.UnitPrice.Equal(decimal.NewFromFloat(100.5)) {
			t.Errorf("unexpected amounts: %s @ %s", got.Quantity, got.UnitPrice)
		}
		if got.Date.IsZero() {
			t.Error("expected a default date when none is given")
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		r := setupPositionRouter(NewPositionHandler(&mockLedgerService{}, &mockValuationService{}))
		cases := map[string]string{
			"negative quantity":  `{"symbol":"AAPL","asset_type":"stock","quantity":-1,"unit_price":100}`,
			"unknown asset type": `{"symbol":"AAPL","asset_type":"bond","quantity":1,"unit_price":100}`,
			"bad currency":       `{"symbol":"AAPL","asset_type":"stock","quantity":1,"unit_price":100,"currency":"DOLLARS"}`,
			"missing symbol":     `{"asset_type":"stock","quantity":1,"unit_price":100}`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				rec := doRequest(r, http.MethodPost, "/portfolios/"+testPortfolioID+"/positions/buy", body)
				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", rec.Code)
				}
			})
		}
	})

	t.Run("invalid portfolio path ID", func(t *testing.T) {
		r := setupPositionRouter(NewPositionHandler(&mockLedgerService{}, &mockValuationService{}))
		rec := doRequest(r, http.MethodPost, "/portfolios/not-a-uuid/positions/buy",
			`{"symbol":"AAPL","asset_type":"stock","quantity":1,"unit_price":100}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSell(t *testing.T) {
	t.Run("sell result passed through", func(t *testing.T) {
		mock := &mockLedgerService{
			applySellFn: func(_, _ string, input services.SellInput) (*services.SellResult, error) {
				return &services.SellResult{RealizedGainLoss: decimal.NewFromInt(480)}, nil
			},
		}
		r := setupPositionRouter(NewPositionHandler(mock, &mockValuationService{}))

		rec := doRequest(r, http.MethodPost, "/portfolios/"+testPortfolioID+"/positions/sell",
			`{"symbol":"AAPL","quantity":12,"unit_price":150}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if body["realized_gain_loss"] != "480" {
			t.Errorf("expected realized gain 480, got %v", body["realized_gain_loss"])
		}
	})

	t.Run("oversell surfaces the ledger error", func(t *testing.T) {
		mock := &mockLedgerService{
			applySellFn: func(_, _ string, _ services.SellInput) (*services.SellResult, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidQuantity, "Cannot sell more than held")
			},
		}
		r := setupPositionRouter(NewPositionHandler(mock, &mockValuationService{}))

		rec := doRequest(r, http.MethodPost, "/portfolios/"+testPortfolioID+"/positions/sell",
			`{"symbol":"AAPL","quantity":999,"unit_price":150}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INVALID_QUANTITY" {
			t.Errorf("expected INVALID_QUANTITY, got %s", code)
		}
	})
}

func TestMergeDuplicatesEndpoint(t *testing.T) {
	mock := &mockLedgerService{
		mergeDuplicatesFn: func(_, _ string) (int, error) { return 2, nil },
	}
	r := setupPositionRouter(NewPositionHandler(mock, &mockValuationService{}))

	rec := doRequest(r, http.MethodPost, "/portfolios/"+testPortfolioID+"/positions/merge", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := parseJSON(t, rec)
	if body["merged"] != float64(2) {
		t.Errorf("expected merged count 2, got %v", body["merged"])
	}
}

func TestGetPositionsEndpoint(t *testing.T) {
	mock := &mockValuationService{
		positionViewsFn: func(_ context.Context, _, _ string) ([]services.PositionView, error) {
			view := services.PositionView{CurrentPrice: 150, TotalValue: 1500, Weight: 100}
			view.Symbol = "AAPL"
			return []services.PositionView{view}, nil
		},
	}
	r := setupPositionRouter(NewPositionHandler(&mockLedgerService{}, mock))

	rec := doRequest(r, http.MethodGet, "/portfolios/"+testPortfolioID+"/positions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := parseJSON(t, rec)
	positions, ok := body["positions"].([]interface{})
	if !ok || len(positions) != 1 {
		t.Fatalf("expected one position, got %s", rec.Body.String())
	}
}
