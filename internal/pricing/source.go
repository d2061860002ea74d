// Package pricing provides the market data the ledger trades and values against.
//
// Live quotes fail hard: an error means the order cannot be executed.
// Histories fail soft: a source that cannot produce a history returns an
// empty series and logs why, and the valuation reports the symbol as missing.
package pricing

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// Source supplies live quotes and daily price histories for symbols.
type Source interface {
	// CurrentPrice returns the latest price for symbol.
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	// PriceHistory returns daily prices ascending by date, or an empty series
	// when none can be obtained.
	PriceHistory(ctx context.Context, symbol string) []model.PricePoint
	// Name identifies the source in logs and the version endpoint.
	Name() string
}

// QuoteInvalidator is implemented by sources that cache live quotes.
type QuoteInvalidator interface {
	// InvalidateQuote drops any cached quote for symbol.
	InvalidateQuote(symbol string)
}

// SortHistory orders points ascending by date in place.
func SortHistory(points []model.PricePoint) {
	slices.SortStableFunc(points, func(a, b model.PricePoint) int {
		return a.Date.Compare(b.Date)
	})
}
