package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// MockPriceSource is a configurable pricing.Source for tests.
// Unknown symbols have no price (ErrSymbolNotFound) and an empty history.
//
// Example usage:
//
//	prices := testutil.NewMockPriceSource().
//	    WithPrice("AAPL", "100").
//	    WithHistory("AAPL", testutil.Point("2024-01-01", "100"))
type MockPriceSource struct {
	mu           sync.Mutex
	prices       map[string]decimal.Decimal
	histories    map[string][]model.PricePoint
	priceErrs    map[string]error
	priceCalls   map[string]int
	historyCalls map[string]int
	gate         chan struct{}
}

// NewMockPriceSource creates a MockPriceSource without any prices.
func NewMockPriceSource() *MockPriceSource {
	return &MockPriceSource{
		prices:       make(map[string]decimal.Decimal),
		histories:    make(map[string][]model.PricePoint),
		priceErrs:    make(map[string]error),
		priceCalls:   make(map[string]int),
		historyCalls: make(map[string]int),
	}
}

// WithPrice sets the current price of symbol.
func (m *MockPriceSource) WithPrice(symbol, price string) *MockPriceSource {
	m.SetPrice(symbol, price)
	return m
}

// WithHistory sets the price history of symbol, in the order given.
func (m *MockPriceSource) WithHistory(symbol string, points ...model.PricePoint) *MockPriceSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[symbol] = points
	return m
}

// WithPriceError makes CurrentPrice fail for symbol.
func (m *MockPriceSource) WithPriceError(symbol string, err error) *MockPriceSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceErrs[symbol] = err
	return m
}

// WithGate makes CurrentPrice block until gate is closed or the context ends.
func (m *MockPriceSource) WithGate(gate chan struct{}) *MockPriceSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = gate
	return m
}

// SetPrice changes the current price of symbol.
func (m *MockPriceSource) SetPrice(symbol, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = Dec(price)
}

func (m *MockPriceSource) Name() string {
	return "mock"
}

func (m *MockPriceSource) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	m.mu.Lock()
	m.priceCalls[symbol]++
	gate := m.gate
	price, hasPrice := m.prices[symbol]
	err := m.priceErrs[symbol]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	}
	if err != nil {
		return decimal.Zero, err
	}
	if !hasPrice {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
	}
	return price, nil
}

func (m *MockPriceSource) PriceHistory(_ context.Context, symbol string) []model.PricePoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyCalls[symbol]++

	points := slices.Clone(m.histories[symbol])
	if points == nil {
		return []model.PricePoint{}
	}
	return points
}

// PriceCalls returns how many times CurrentPrice was called for symbol.
func (m *MockPriceSource) PriceCalls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.priceCalls[symbol]
}

// HistoryCalls returns how many times PriceHistory was called for symbol.
func (m *MockPriceSource) HistoryCalls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historyCalls[symbol]
}

// Date parses a YYYY-MM-DD date as midnight UTC and panics on malformed input.
func Date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// Point builds a price point from a YYYY-MM-DD date and a decimal literal.
func Point(date, price string) model.PricePoint {
	return model.PricePoint{Date: Date(date), Price: Dec(price)}
}
