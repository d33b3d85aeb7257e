package services

import "folio/internal/models"

// BuildPositionViews derives the display projection for each position
// from a single set of inputs, so current value, gain/loss, and weight
// are computed in exactly one place. prices maps symbol to latest price.
func BuildPositionViews(positions []models.Position, prices map[string]float64) []PositionView {
	views := make([]PositionView, 0, len(positions))
	positionsValue := 0.0

	for _, p := range positions {
		quantity := p.Quantity.InexactFloat64()
		invested := p.CostBasis().InexactFloat64()
		currentPrice := prices[p.Symbol]
		totalValue := quantity * currentPrice
		gainLoss := totalValue - invested

		view := PositionView{
			Position:     p,
			CurrentPrice: currentPrice,
			TotalValue:   totalValue,
			Invested:     invested,
			GainLoss:     gainLoss,
		}
		if invested > 0 {
			view.GainLossPercent = gainLoss / invested * 100
		}
		views = append(views, view)
		positionsValue += totalValue
	}

	if positionsValue > 0 {
		for i := range views {
			views[i].Weight = views[i].TotalValue / positionsValue * 100
		}
	}
	return views
}
