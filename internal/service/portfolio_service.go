package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/pricing"
)

// User-facing messages of portfolio analysis outcomes.
const (
	MsgNoHoldingsPrefix     = "No holdings found for user: "
	MsgMissingHistoryPrefix = "Missing historical prices for: "
	MsgAnalysisCompleted    = "Portfolio analysis completed successfully."
)

// defaultFetchConcurrency caps parallel price source calls per request.
const defaultFetchConcurrency = 4

// PortfolioService values a user's holdings against market prices.
// It only reads the ledger.
type PortfolioService struct {
	store       *ledger.Store
	prices      pricing.Source
	concurrency int
	log         zerolog.Logger
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(store *ledger.Store, prices pricing.Source, log zerolog.Logger) *PortfolioService {
	return &PortfolioService{
		store:       store,
		prices:      prices,
		concurrency: defaultFetchConcurrency,
		log:         log.With().Str("component", "portfolio").Logger(),
	}
}

// Analyze reconstructs the daily cost, value and profit of the user's current
// holdings over the price history of the alphabetically first symbol.
//
// Process:
//  1. Copy the user's holdings, sorted by symbol. No holdings: HasData=false.
//  2. Fetch every symbol's history concurrently, then sort and de-duplicate
//     each by day. If any history is empty the whole analysis reports
//     HasData=false naming every missing symbol; no snapshots are built.
//  3. Emit one snapshot per date of the base symbol's history. Cost is the
//     current cost basis on every date. Value prices each holding at its
//     latest point on or before the date, or its earliest point when the
//     whole history is later.
//
// Missing data is a result, not an error. Errors are returned only for a
// blank username or when ctx ends during the fetch.
func (s *PortfolioService) Analyze(ctx context.Context, username string) (model.PortfolioResult, error) {
	if strings.TrimSpace(username) == "" {
		return model.PortfolioResult{}, apperrors.ErrInvalidUsername
	}

	holdings := s.store.Holdings(username)
	result := model.PortfolioResult{
		Username:  username,
		Holdings:  holdings,
		Snapshots: []model.PortfolioSnapshot{},
	}

	if len(holdings) == 0 {
		result.Message = MsgNoHoldingsPrefix + username
		return result, nil
	}

	histories, err := s.fetchHistories(ctx, holdings)
	if err != nil {
		return model.PortfolioResult{}, fmt.Errorf("failed to fetch price histories: %w", err)
	}

	var missing []string
	for _, h := range holdings {
		if len(histories[h.Symbol]) == 0 {
			missing = append(missing, h.Symbol)
		}
	}
	if len(missing) > 0 {
		s.log.Info().
			Str("username", username).
			Strs("symbols", missing).
			Msg("Portfolio analysis skipped: missing price history")
		result.Message = MsgMissingHistoryPrefix + strings.Join(missing, ", ")
		return result, nil
	}

	result.Snapshots = buildSnapshots(holdings, histories)
	result.HasData = true
	result.Message = MsgAnalysisCompleted

	s.log.Debug().
		Str("username", username).
		Int("holdings", len(holdings)).
		Int("snapshots", len(result.Snapshots)).
		Msg("Portfolio analysis completed")
	return result, nil
}

// fetchHistories loads and normalizes every holding's history.
// Histories fail soft, so the only error is the context ending.
func (s *PortfolioService) fetchHistories(ctx context.Context, holdings []model.Holding) (map[string][]model.PricePoint, error) {
	fetched := make([][]model.PricePoint, len(holdings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, h := range holdings {
		g.Go(func() error {
			fetched[i] = normalizeHistory(s.prices.PriceHistory(gctx, h.Symbol))
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	histories := make(map[string][]model.PricePoint, len(holdings))
	for i, h := range holdings {
		histories[h.Symbol] = fetched[i]
	}
	return histories, nil
}

// Holdings values each of the user's holdings at the current price.
// A holding whose price cannot be fetched is returned with Error set and
// zero market fields; it does not fail the call.
func (s *PortfolioService) Holdings(ctx context.Context, username string) ([]model.HoldingValuation, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperrors.ErrInvalidUsername
	}

	holdings := s.store.Holdings(username)
	valuations := make([]model.HoldingValuation, len(holdings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, h := range holdings {
		g.Go(func() error {
			valuations[i] = s.valueHolding(gctx, h)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to value holdings: %w", err)
	}

	return valuations, nil
}

func (s *PortfolioService) valueHolding(ctx context.Context, h model.Holding) model.HoldingValuation {
	v := model.HoldingValuation{
		Symbol:    h.Symbol,
		Shares:    h.Shares,
		AvgCost:   h.AvgCost,
		TotalCost: h.TotalCost(),
	}

	price, err := s.prices.CurrentPrice(ctx, h.Symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Failed to fetch current price")
		v.Error = apperrors.ErrPriceSource.Error()
		return v
	}

	v.CurrentPrice = price
	v.MarketValue = h.MarketValue(price)
	v.TotalUnrealizedGainLoss = v.MarketValue.Sub(v.TotalCost)
	return v
}
