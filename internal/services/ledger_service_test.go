package services_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"folio/internal/models"
	"folio/internal/pagination"
	"folio/internal/services"
	"folio/internal/testutil"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func strPtr(s string) *string { return &s }

func buyInput(symbol string, qty, price float64) services.BuyInput {
	return services.BuyInput{
		Symbol:    symbol,
		Name:      symbol,
		AssetType: models.AssetTypeStock,
		Quantity:  dec(qty),
		UnitPrice: dec(price),
		Currency:  "USD",
	}
}

func TestApplyBuy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := services.NewLedgerService(db)
	user := testutil.CreateTestUser(t, db)
	portfolio := testutil.CreateTestPortfolio(t, db, user.ID)

	t.Run("first buy creates the position", func(t *testing.T) {
		position, err := svc.ApplyBuy(user.ID, portfolio.ID, buyInput("AAPL", 10, 100))
		testutil.AssertNoError(t, err)

		if !position.Quantity.Equal(dec(10)) {
			t.Errorf("expected quantity 10, got %s", position.Quantity)
		}
		if !position.AvgPrice.Equal(dec(100)) {
			t.Errorf("expected avg price 100, got %s", position.AvgPrice)
		}
	})

	t.Run("second buy merges into the weighted average", func(t *testing.T) {
		position, err := svc.ApplyBuy(user.ID, portfolio.ID, buyInput("AAPL", 5, 130))
		testutil.AssertNoError(t, err)

		if !position.Quantity.Equal(dec(15)) {
			t.Errorf("expected quantity 15, got %s", position.Quantity)
		}
		// (10×100 + 5×130) / 15 = 110
		if !position.AvgPrice.Equal(dec(110)) {
			t.Errorf("expected avg price 110, got %s", position.AvgPrice)
		}
	})

	t.Run("every buy appends to the ledger", func(t *testing.T) {
		var count int64
		db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolio.ID).Count(&count)
		if count != 2 {
			t.Errorf("expected 2 ledger entries, got %d", count)
		}
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		_, err := svc.ApplyBuy(user.ID, portfolio.ID, buyInput("AAPL", 0, 100))
		testutil.AssertAppError(t, err, "INVALID_QUANTITY")

		_, err = svc.ApplyBuy(user.ID, portfolio.ID, buyInput("AAPL", -5, 100))
		testutil.AssertAppError(t, err, "INVALID_QUANTITY")
	})

	t.Run("another user's portfolio reads as missing", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		_, err := svc.ApplyBuy(other.ID, portfolio.ID, buyInput("AAPL", 1, 100))
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})
}

func TestBuyBatchingOrderIndependence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := services.NewLedgerService(db)
	user := testutil.CreateTestUser(t, db)

	// Two buys and their single-lot equivalent must land on the same state.
	split := testutil.CreateTestPortfolio(t, db, user.ID)
	_, err := svc.ApplyBuy(user.ID, split.ID, buyInput("VWCE.DE", 10, 100))
	testutil.AssertNoError(t, err)
	splitPos, err := svc.ApplyBuy(user.ID, split.ID, buyInput("VWCE.DE", 5, 130))
	testutil.AssertNoError(t, err)

	whole := testutil.CreateTestPortfolio(t, db, user.ID)
	wholePos, err := svc.ApplyBuy(user.ID, whole.ID, buyInput("VWCE.DE", 15, 110))
	testutil.AssertNoError(t, err)

	if !splitPos.Quantity.Equal(wholePos.Quantity) {
		t.Errorf("quantities diverge: %s vs %s", splitPos.Quantity, wholePos.Quantity)
	}
	if !splitPos.AvgPrice.Equal(wholePos.AvgPrice) {
		t.Errorf("average prices diverge: %s vs %s", splitPos.AvgPrice, wholePos.AvgPrice)
	}
}

func TestApplySell(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := services.NewLedgerService(db)
	user := testutil.CreateTestUser(t, db)
	portfolio := testutil.CreateTestPortfolio(t, db, user.ID)

	_, err := svc.ApplyBuy(user.ID, portfolio.ID, buyInput("AAPL", 10, 100))
	testutil.AssertNoError(t, err)
	_, err = svc.ApplyBuy(user.ID, portfolio.ID, buyInput("AAPL", 5, 130))
	testutil.AssertNoError(t, err)

	t.Run("partial sell keeps the average price", func(t *testing.T) {
		result, err := svc.ApplySell(user.ID, portfolio.ID, services.SellInput{
			Symbol: "AAPL", Quantity: dec(12), UnitPrice: dec(150),
		})
		testutil.AssertNoError(t, err)

		// 12 × (150 − 110) = 480
		if !result.RealizedGainLoss.Equal(dec(480)) {
			t.Errorf("expected realized gain 480, got %s", result.RealizedGainLoss)
		}
		if result.Position == nil {
			t.Fatal("expected a remaining position")
		}
		if !result.Position.Quantity.Equal(dec(3)) {
			t.Errorf("expected 3 remaining, got %s", result.Position.Quantity)
		}
		if !result.Position.AvgPrice.Equal(dec(110)) {
			t.Errorf("selling must not move the average price, got %s", result.Position.AvgPrice)
		}
	})

	t.Run("selling more than held fails and changes nothing", func(t *testing.T) {
		_, err := svc.ApplySell(user.ID, portfolio.ID, services.SellInput{
			Symbol: "AAPL", Quantity: dec(4), UnitPrice: dec(150),
		})
		testutil.AssertAppError(t, err, "INVALID_QUANTITY")

		var position models.Position
		testutil.AssertNoError(t, db.Where("portfolio_id = ? AND symbol = ?", portfolio.ID, "AAPL").First(&position).Error)
		if !position.Quantity.Equal(dec(3)) {
			t.Errorf("failed sell must not touch the position, got quantity %s", position.Quantity)
		}
	})

	t.Run("selling everything removes the position", func(t *testing.T) {
		result, err := svc.ApplySell(user.ID, portfolio.ID, services.SellInput{
			Symbol: "AAPL", Quantity: dec(3), UnitPrice: dec(90),
		})
		testutil.AssertNoError(t, err)

		if result.Position != nil {
			t.Errorf("expected the position to be gone, got %+v", result.Position)
		}
		// 3 × (90 − 110) = −60
		if !result.RealizedGainLoss.Equal(dec(-60)) {
			t.Errorf("expected realized loss -60, got %s", result.RealizedGainLoss)
		}

		var count int64
		db.Unscoped().Model(&models.Position{}).
			Where("portfolio_id = ? AND symbol = ?", portfolio.ID, "AAPL").Count(&count)
		if count != 0 {
			t.Errorf("expected hard-deleted position, found %d rows", count)
		}
	})

	t.Run("ledger survives the closed position", func(t *testing.T) {
		var count int64
		db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolio.ID).Count(&count)
		if count != 4 {
			t.Errorf("expected 4 ledger entries, got %d", count)
		}
	})

	t.Run("selling an absent symbol", func(t *testing.T) {
		_, err := svc.ApplySell(user.ID, portfolio.ID, services.SellInput{
			Symbol: "MSFT", Quantity: dec(1), UnitPrice: dec(100),
		})
		testutil.AssertAppError(t, err, "POSITION_NOT_FOUND")
	})
}

func TestCashLinkedTrades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	ledger := services.NewLedgerService(db)
	cash := services.NewCashService(db)
	user := testutil.CreateTestUser(t, db)
	portfolio := testutil.CreateTestPortfolio(t, db, user.ID)

	_, err := cash.Deposit(user.ID, portfolio.ID, "USD", dec(2000), time.Now(), "")
	testutil.AssertNoError(t, err)

	t.Run("cash-linked buy debits the account", func(t *testing.T) {
		input := buyInput("AAPL", 10, 100)
		input.CashCurrency = strPtr("USD")
		_, err := ledger.ApplyBuy(user.ID, portfolio.ID, input)
		testutil.AssertNoError(t, err)

		accounts, err := cash.GetCashAccounts(user.ID, portfolio.ID)
		testutil.AssertNoError(t, err)
		if len(accounts) != 1 || !accounts[0].Balance.Equal(dec(1000)) {
			t.Errorf("expected USD balance 1000, got %+v", accounts)
		}
	})

	t.Run("insufficient cash rolls the whole buy back", func(t *testing.T) {
		input := buyInput("MSFT", 50, 100)
		input.CashCurrency = strPtr("USD")
		_, err := ledger.ApplyBuy(user.ID, portfolio.ID, input)
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")

		var count int64
		db.Model(&models.Position{}).Where("portfolio_id = ? AND symbol = ?", portfolio.ID, "MSFT").Count(&count)
		if count != 0 {
			t.Error("failed buy must not leave a position behind")
		}
		db.Model(&models.Transaction{}).Where("portfolio_id = ? AND symbol = ?", portfolio.ID, "MSFT").Count(&count)
		if count != 0 {
			t.Error("failed buy must not leave a ledger entry behind")
		}
	})

	t.Run("cash-linked sell credits the account", func(t *testing.T) {
		_, err := ledger.ApplySell(user.ID, portfolio.ID, services.SellInput{
			Symbol: "AAPL", Quantity: dec(5), UnitPrice: dec(120), CashCurrency: strPtr("USD"),
		})
		testutil.AssertNoError(t, err)

		accounts, err := cash.GetCashAccounts(user.ID, portfolio.ID)
		testutil.AssertNoError(t, err)
		if !accounts[0].Balance.Equal(dec(1600)) {
			t.Errorf("expected USD balance 1600, got %s", accounts[0].Balance)
		}
	})

	t.Run("buy against a missing cash account", func(t *testing.T) {
		input := buyInput("AAPL", 1, 10)
		input.CashCurrency = strPtr("EUR")
		_, err := ledger.ApplyBuy(user.ID, portfolio.ID, input)
		testutil.AssertAppError(t, err, "CASH_ACCOUNT_NOT_FOUND")
	})
}

func TestMergeDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := services.NewLedgerService(db)
	user := testutil.CreateTestUser(t, db)
	portfolio := testutil.CreateTestPortfolio(t, db, user.ID)

	// Duplicate rows as imported historical data might contain.
	first := testutil.CreateTestPosition(t, db, portfolio.ID, "AAPL", 10, 100)
	testutil.CreateTestPosition(t, db, portfolio.ID, "AAPL", 5, 130)
	testutil.CreateTestPosition(t, db, portfolio.ID, "MSFT", 2, 300)

	merged, err := svc.MergeDuplicates(user.ID, portfolio.ID)
	testutil.AssertNoError(t, err)
	if merged != 1 {
		t.Fatalf("expected 1 merge, got %d", merged)
	}

	positions, err := svc.GetPositions(user.ID, portfolio.ID)
	testutil.AssertNoError(t, err)
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions after merge, got %d", len(positions))
	}

	var aapl models.Position
	testutil.AssertNoError(t, db.Where("portfolio_id = ? AND symbol = ?", portfolio.ID, "AAPL").First(&aapl).Error)
	if aapl.ID != first.ID {
		t.Error("merge should keep the earliest position row")
	}
	if !aapl.Quantity.Equal(dec(15)) || !aapl.AvgPrice.Equal(dec(110)) {
		t.Errorf("expected 15 @ 110, got %s @ %s", aapl.Quantity, aapl.AvgPrice)
	}

	// Idempotent: nothing left to merge.
	merged, err = svc.MergeDuplicates(user.ID, portfolio.ID)
	testutil.AssertNoError(t, err)
	if merged != 0 {
		t.Errorf("expected 0 merges on second run, got %d", merged)
	}
}

func TestGetPositionByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := services.NewLedgerService(db)
	user := testutil.CreateTestUser(t, db)
	portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
	other := testutil.CreateTestPortfolio(t, db, user.ID)
	position := testutil.CreateTestPosition(t, db, portfolio.ID, "AAPL", 10, 100)

	t.Run("found", func(t *testing.T) {
		got, err := svc.GetPositionByID(user.ID, portfolio.ID, position.ID)
		testutil.AssertNoError(t, err)
		if got.Symbol != "AAPL" {
			t.Errorf("expected AAPL, got %s", got.Symbol)
		}
	})

	t.Run("wrong portfolio", func(t *testing.T) {
		_, err := svc.GetPositionByID(user.ID, other.ID, position.ID)
		testutil.AssertAppError(t, err, "PORTFOLIO_MISMATCH")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.GetPositionByID(user.ID, portfolio.ID, "00000000-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "POSITION_NOT_FOUND")
	})
}

func TestDeletePositionKeepsLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := services.NewLedgerService(db)
	user := testutil.CreateTestUser(t, db)
	portfolio := testutil.CreateTestPortfolio(t, db, user.ID)

	position, err := svc.ApplyBuy(user.ID, portfolio.ID, buyInput("AAPL", 10, 100))
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.DeletePosition(user.ID, portfolio.ID, position.ID))

	positions, err := svc.GetPositions(user.ID, portfolio.ID)
	testutil.AssertNoError(t, err)
	if len(positions) != 0 {
		t.Errorf("expected no positions, got %d", len(positions))
	}

	page, err := svc.GetTransactions(user.ID, portfolio.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 1 {
		t.Errorf("transaction log must survive position deletion, got %d entries", page.TotalItems)
	}
}
