package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// StaticSource serves prices from memory. It is deterministic and is used
// for offline runs, demos and tests.
type StaticSource struct {
	mu        sync.RWMutex
	prices    map[string]decimal.Decimal
	histories map[string][]model.PricePoint
}

// NewStaticSource creates an empty StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		prices:    make(map[string]decimal.Decimal),
		histories: make(map[string][]model.PricePoint),
	}
}

func (s *StaticSource) Name() string {
	return "static"
}

// SetPrice sets the current price of symbol.
func (s *StaticSource) SetPrice(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// SetHistory replaces the price history of symbol.
func (s *StaticSource) SetHistory(symbol string, points []model.PricePoint) {
	points = slices.Clone(points)
	SortHistory(points)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[symbol] = points
}

func (s *StaticSource) CurrentPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
	}
	return price, nil
}

func (s *StaticSource) PriceHistory(_ context.Context, symbol string) []model.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := slices.Clone(s.histories[symbol])
	if points == nil {
		return []model.PricePoint{}
	}
	return points
}

// staticFile is the JSON layout read by LoadStaticSource:
//
//	{"prices": {"AAPL": 185.64}, "history": {"AAPL": [{"date": "2024-01-02", "price": 185.64}]}}
type staticFile struct {
	Prices  map[string]decimal.Decimal `json:"prices"`
	History map[string][]struct {
		Date  string          `json:"date"`
		Price decimal.Decimal `json:"price"`
	} `json:"history"`
}

// LoadStaticSource reads a StaticSource from a JSON price file.
func LoadStaticSource(path string) (*StaticSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	return ReadStaticSource(f)
}

// ReadStaticSource decodes a StaticSource from JSON.
func ReadStaticSource(r io.Reader) (*StaticSource, error) {
	var file staticFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode price file: %w", err)
	}

	source := NewStaticSource()
	for symbol, price := range file.Prices {
		if price.IsNegative() {
			return nil, fmt.Errorf("negative price for %s", symbol)
		}
		source.SetPrice(symbol, price)
	}
	for symbol, entries := range file.History {
		points := make([]model.PricePoint, 0, len(entries))
		for _, e := range entries {
			date, err := time.Parse("2006-01-02", e.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid history date %q for %s: %w", e.Date, symbol, err)
			}
			if e.Price.IsNegative() {
				return nil, fmt.Errorf("negative history price for %s on %s", symbol, e.Date)
			}
			points = append(points, model.PricePoint{Date: date, Price: e.Price})
		}
		source.SetHistory(symbol, points)
	}
	return source, nil
}
