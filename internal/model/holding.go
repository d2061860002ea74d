package model

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Persisted ledgers and API payloads carry money as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Holding is a user's position in a single symbol.
// Holdings are value objects: the ledger replaces them wholesale on every
// mutation and never stores one with zero shares.
type Holding struct {
	Symbol  string          `json:"symbol"`
	Shares  int64           `json:"shares"`
	AvgCost decimal.Decimal `json:"avgCost"`
}

// NewHolding creates a Holding value.
func NewHolding(symbol string, shares int64, avgCost decimal.Decimal) Holding {
	return Holding{Symbol: symbol, Shares: shares, AvgCost: avgCost}
}

// TotalCost returns the cost basis of the position (shares * average cost).
func (h Holding) TotalCost() decimal.Decimal {
	return h.AvgCost.Mul(decimal.NewFromInt(h.Shares))
}

// MarketValue returns the value of the position at the given price.
func (h Holding) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(h.Shares))
}

// Account is the cash and holdings owned by a single user.
type Account struct {
	Username string          `json:"username"`
	Cash     decimal.Decimal `json:"cash"`
	Holdings []Holding       `json:"holdings"`
}
