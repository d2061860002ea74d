package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// HoldingBuilder provides a fluent interface for seeding holdings.
//
// Example usage:
//
//	// Simple creation with defaults (10 shares of a random symbol at 100)
//	holding := testutil.NewHoldingFor("alice").Build(t, store)
//
//	// Customized holding
//	holding := testutil.NewHoldingFor("alice").
//	    WithSymbol("AAPL").
//	    WithShares(6).
//	    WithAvgCost("100").
//	    Build(t, store)
type HoldingBuilder struct {
	Username string
	Symbol   string
	Shares   int64
	AvgCost  decimal.Decimal
}

// NewHoldingFor creates a HoldingBuilder for username with sensible defaults.
func NewHoldingFor(username string) *HoldingBuilder {
	return &HoldingBuilder{
		Username: username,
		Symbol:   MakeSymbol(""),
		Shares:   10,
		AvgCost:  decimal.NewFromInt(100),
	}
}

// WithSymbol sets the symbol.
func (b *HoldingBuilder) WithSymbol(symbol string) *HoldingBuilder {
	b.Symbol = symbol
	return b
}

// WithShares sets the share count.
func (b *HoldingBuilder) WithShares(shares int64) *HoldingBuilder {
	b.Shares = shares
	return b
}

// WithAvgCost sets the average cost from a decimal literal.
func (b *HoldingBuilder) WithAvgCost(avgCost string) *HoldingBuilder {
	b.AvgCost = Dec(avgCost)
	return b
}

// Build stores the holding in the ledger and returns it.
func (b *HoldingBuilder) Build(t *testing.T, store *ledger.Store) model.Holding {
	t.Helper()

	holding := model.NewHolding(b.Symbol, b.Shares, b.AvgCost)
	if err := store.SetHolding(b.Username, holding); err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}
	return holding
}

// OrderBuilder provides a fluent interface for seeding order log entries.
//
// Example usage:
//
//	order := testutil.NewOrderFor("alice").
//	    WithSymbol("AAPL").
//	    Sell(4, "120").
//	    Build(t, store)
type OrderBuilder struct {
	record model.OrderRecord
}

// NewOrderFor creates an OrderBuilder for username: a BUY of 10 shares at 100.
func NewOrderFor(username string) *OrderBuilder {
	b := &OrderBuilder{record: model.OrderRecord{
		ID:        MakeID(),
		Timestamp: time.Now().UTC(),
		Username:  username,
		Symbol:    MakeSymbol(""),
	}}
	return b.Buy(10, "100")
}

// WithSymbol sets the symbol.
func (b *OrderBuilder) WithSymbol(symbol string) *OrderBuilder {
	b.record.Symbol = symbol
	return b
}

// WithTimestamp sets the execution time.
func (b *OrderBuilder) WithTimestamp(ts time.Time) *OrderBuilder {
	b.record.Timestamp = ts
	return b
}

// Buy makes the order a BUY of shares at price.
func (b *OrderBuilder) Buy(shares int64, price string) *OrderBuilder {
	return b.side(model.ActionBuy, shares, price)
}

// Sell makes the order a SELL of shares at price.
func (b *OrderBuilder) Sell(shares int64, price string) *OrderBuilder {
	return b.side(model.ActionSell, shares, price)
}

func (b *OrderBuilder) side(action model.Action, shares int64, price string) *OrderBuilder {
	b.record.Action = action
	b.record.Shares = shares
	b.record.Price = Dec(price)
	b.record.TotalAmount = b.record.Price.Mul(decimal.NewFromInt(shares))
	return b
}

// Record returns the order without storing it.
func (b *OrderBuilder) Record() model.OrderRecord {
	return b.record
}

// Build appends the order to the ledger's order log and returns it.
// Only the log is changed; cash and holdings are left as they are.
func (b *OrderBuilder) Build(t *testing.T, store *ledger.Store) model.OrderRecord {
	t.Helper()

	if err := store.AppendOrder(b.record); err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}
	return b.record
}

// Convenience functions

// CreateAccount sets the cash balance of username.
//
// Example usage:
//
//	testutil.CreateAccount(t, store, "alice", "1000")
func CreateAccount(t *testing.T, store *ledger.Store, username, cash string) {
	t.Helper()

	if err := store.SetCash(username, Dec(cash)); err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
}

// CreateHolding stores a holding for username.
//
// Example usage:
//
//	testutil.CreateHolding(t, store, "alice", "AAPL", 10, "100")
func CreateHolding(t *testing.T, store *ledger.Store, username, symbol string, shares int64, avgCost string) model.Holding {
	t.Helper()
	return NewHoldingFor(username).WithSymbol(symbol).WithShares(shares).WithAvgCost(avgCost).Build(t, store)
}
