package services_test

import (
	"context"
	"testing"

	"folio/internal/models"
	"folio/internal/pagination"
	"folio/internal/services"
	"folio/internal/testutil"
)

func TestRecordAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	provider := &testutil.FakeProvider{Quotes: map[string]float64{"AAPL": 150}}
	svc := services.NewSnapshotService(db, provider)

	user := testutil.CreateTestUser(t, db)
	funded := testutil.CreateTestPortfolio(t, db, user.ID)
	testutil.CreateTestPosition(t, db, funded.ID, "AAPL", 10, 100)
	testutil.CreateTestCashAccount(t, db, funded.ID, "USD", 500)

	empty := testutil.CreateTestPortfolio(t, db, user.ID)

	broken := testutil.CreateTestPortfolio(t, db, user.ID)
	testutil.CreateTestPosition(t, db, broken.ID, "NOPE", 1, 1)

	testutil.AssertNoError(t, svc.RecordAll(context.Background()))

	t.Run("funded portfolio valued at the latest quotes", func(t *testing.T) {
		var snapshot models.PortfolioSnapshot
		testutil.AssertNoError(t, db.First(&snapshot, "portfolio_id = ?", funded.ID).Error)

		testutil.AssertInDelta(t, 1500, snapshot.PositionsValue, 1e-9)
		testutil.AssertInDelta(t, 500, snapshot.CashValue, 1e-9)
		testutil.AssertInDelta(t, 2000, snapshot.TotalValue, 1e-9)
		testutil.AssertInDelta(t, 1000, snapshot.CostBasis, 1e-9)
	})

	t.Run("empty portfolio records a zero snapshot", func(t *testing.T) {
		var snapshot models.PortfolioSnapshot
		testutil.AssertNoError(t, db.First(&snapshot, "portfolio_id = ?", empty.ID).Error)
		if snapshot.TotalValue != 0 {
			t.Errorf("expected zero value, got %v", snapshot.TotalValue)
		}
	})

	t.Run("failing portfolio skipped without blocking the run", func(t *testing.T) {
		var count int64
		db.Model(&models.PortfolioSnapshot{}).Where("portfolio_id = ?", broken.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no snapshot for the unpriceable portfolio, got %d", count)
		}
	})
}

func TestGetHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	provider := &testutil.FakeProvider{Quotes: map[string]float64{"AAPL": 150}}
	svc := services.NewSnapshotService(db, provider)

	user := testutil.CreateTestUser(t, db)
	portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
	testutil.CreateTestPosition(t, db, portfolio.ID, "AAPL", 10, 100)

	for i := 0; i < 3; i++ {
		testutil.AssertNoError(t, svc.RecordAll(context.Background()))
	}

	t.Run("newest first", func(t *testing.T) {
		page, err := svc.GetHistory(user.ID, portfolio.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 {
			t.Fatalf("expected 3 snapshots, got %d", page.TotalItems)
		}
		if page.Data[0].RecordedAt.Before(page.Data[1].RecordedAt) {
			t.Error("expected newest first ordering")
		}
	})

	t.Run("other user's portfolio", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		_, err := svc.GetHistory(other.ID, portfolio.ID, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})
}
