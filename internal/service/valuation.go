package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/pricing"
)

// normalizeHistory returns points sorted ascending by day with one point per
// day. Dates are truncated to the UTC day; when a day appears more than once
// the observation that came last in the input wins.
func normalizeHistory(points []model.PricePoint) []model.PricePoint {
	if len(points) == 0 {
		return nil
	}

	byDay := make(map[int64]model.PricePoint, len(points))
	for _, p := range points {
		day := model.Day(p.Date)
		byDay[day.Unix()] = model.PricePoint{Date: day, Price: p.Price}
	}

	normalized := make([]model.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		normalized = append(normalized, p)
	}
	pricing.SortHistory(normalized)
	return normalized
}

// priceOnOrBefore returns the price of the latest point dated on or before
// date. When every point is after date it falls back to the earliest point.
// history must be non-empty and sorted ascending.
func priceOnOrBefore(history []model.PricePoint, date time.Time) decimal.Decimal {
	// First index whose date is after the target.
	i := sort.Search(len(history), func(i int) bool {
		return history[i].Date.After(date)
	})
	if i == 0 {
		return history[0].Price
	}
	return history[i-1].Price
}

// buildSnapshots reconstructs the portfolio valuation over the base timeline.
// Cost is the current cost basis applied to every date; value uses each
// symbol's price on or before the date. holdings must be sorted by symbol and
// every holding must have a non-empty normalized history.
func buildSnapshots(holdings []model.Holding, histories map[string][]model.PricePoint) []model.PortfolioSnapshot {
	if len(holdings) == 0 {
		return []model.PortfolioSnapshot{}
	}

	totalCost := decimal.Zero
	for _, h := range holdings {
		totalCost = totalCost.Add(h.TotalCost())
	}

	base := histories[holdings[0].Symbol]
	snapshots := make([]model.PortfolioSnapshot, 0, len(base))
	for _, point := range base {
		totalValue := decimal.Zero
		for _, h := range holdings {
			totalValue = totalValue.Add(h.MarketValue(priceOnOrBefore(histories[h.Symbol], point.Date)))
		}
		snapshots = append(snapshots, model.NewPortfolioSnapshot(point.Date, totalCost, totalValue))
	}
	return snapshots
}
