package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is one point of a reconstructed portfolio valuation.
// Snapshots are computed on demand and never stored.
type PortfolioSnapshot struct {
	Date       time.Time       `json:"date"`
	TotalCost  decimal.Decimal `json:"totalCost"`
	TotalValue decimal.Decimal `json:"totalValue"`
	Profit     decimal.Decimal `json:"profit"`
	ProfitRate decimal.Decimal `json:"profitRate"`
}

// NewPortfolioSnapshot derives profit and profit rate from cost and value.
// ProfitRate is zero when the cost is zero.
func NewPortfolioSnapshot(date time.Time, totalCost, totalValue decimal.Decimal) PortfolioSnapshot {
	profit := totalValue.Sub(totalCost)
	rate := decimal.Zero
	if !totalCost.IsZero() {
		rate = profit.Div(totalCost)
	}
	return PortfolioSnapshot{
		Date:       date,
		TotalCost:  totalCost,
		TotalValue: totalValue,
		Profit:     profit,
		ProfitRate: rate,
	}
}

// PortfolioResult is the outcome of a portfolio analysis.
// HasData is false when the user holds nothing or a price history is missing;
// Message explains which.
type PortfolioResult struct {
	Username  string              `json:"username"`
	Holdings  []Holding           `json:"holdings"`
	Snapshots []PortfolioSnapshot `json:"snapshots"`
	HasData   bool                `json:"hasData"`
	Message   string              `json:"message"`
}

// HoldingValuation is a holding valued at the current market price.
// Error is set, and the price fields left zero, when the price could not be fetched.
type HoldingValuation struct {
	Symbol                  string          `json:"symbol"`
	Shares                  int64           `json:"shares"`
	AvgCost                 decimal.Decimal `json:"avgCost"`
	TotalCost               decimal.Decimal `json:"totalCost"`
	CurrentPrice            decimal.Decimal `json:"currentPrice"`
	MarketValue             decimal.Decimal `json:"marketValue"`
	TotalUnrealizedGainLoss decimal.Decimal `json:"totalUnrealizedGainLoss"`
	Error                   string          `json:"error,omitempty"`
}
