package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/yahoo"
)

// YahooSource reads prices from the Yahoo Finance chart API.
// The current price is the most recent daily close of the last five trading
// days; histories cover the configured number of calendar days up to today.
type YahooSource struct {
	client      yahoo.Client
	historyDays int
	now         func() time.Time
	log         zerolog.Logger
}

// NewYahooSource creates a YahooSource using client.
func NewYahooSource(client yahoo.Client, historyDays int, log zerolog.Logger) *YahooSource {
	return &YahooSource{
		client:      client,
		historyDays: historyDays,
		now:         time.Now,
		log:         log.With().Str("component", "pricing").Str("source", "yahoo").Logger(),
	}
}

// WithClock replaces the clock used to compute the history window.
func (s *YahooSource) WithClock(now func() time.Time) *YahooSource {
	s.now = now
	return s
}

func (s *YahooSource) Name() string {
	return "yahoo"
}

func (s *YahooSource) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	resp, err := s.client.QueryYahooFiveDaySymbol(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query price for %s: %w", symbol, err)
	}

	chart, err := s.client.ParseChart(resp)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price for %s: %w", symbol, err)
	}

	last, ok := chart.LastClose()
	if !ok {
		return decimal.Zero, fmt.Errorf("no closing price available for %s", symbol)
	}
	if last.PriceClose.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s reported for %s", last.PriceClose, symbol)
	}
	return last.PriceClose, nil
}

func (s *YahooSource) PriceHistory(ctx context.Context, symbol string) []model.PricePoint {
	end := s.now().UTC()
	start := model.Day(end).AddDate(0, 0, -s.historyDays)

	resp, err := s.client.QueryYahooSymbolByDateRange(ctx, symbol, start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch price history")
		return []model.PricePoint{}
	}

	chart, err := s.client.ParseChart(resp)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to parse price history")
		return []model.PricePoint{}
	}

	points := make([]model.PricePoint, 0, len(chart.Indicators))
	for _, ind := range chart.Indicators {
		if ind.PriceClose.IsNegative() {
			continue
		}
		points = append(points, model.PricePoint{Date: model.Day(ind.Date), Price: ind.PriceClose})
	}
	SortHistory(points)

	s.log.Debug().Str("symbol", symbol).Int("points", len(points)).Msg("Fetched price history")
	return points
}
