package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/service"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/testutil"
)

// TestPortfolioService_Analyze tests the Analyze method.
//
// WHY: Analyze rebuilds the portfolio's cost and value over time from the
// current holdings. Missing data must be reported as a result, never as an
// error or a partial series.
func TestPortfolioService_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("single holding with one price point", func(t *testing.T) {
		// Setup
		store, _ := testutil.NewTestStore(t)
		testutil.CreateHolding(t, store, "alice", "AAPL", 10, "100")
		prices := testutil.NewMockPriceSource().
			WithHistory("AAPL", testutil.Point("2024-01-01", "100"))
		svc := testutil.NewTestPortfolioService(t, store, prices)

		// Execute
		result, err := svc.Analyze(ctx, "alice")

		// Assert
		require.NoError(t, err)
		assert.True(t, result.HasData)
		assert.Equal(t, service.MsgAnalysisCompleted, result.Message)
		assert.Equal(t, "alice", result.Username)
		require.Len(t, result.Holdings, 1)
		require.Len(t, result.Snapshots, 1)

		snap := result.Snapshots[0]
		assert.Equal(t, testutil.Date("2024-01-01"), snap.Date)
		assert.True(t, snap.TotalCost.Equal(testutil.Dec("1000")))
		assert.True(t, snap.TotalValue.Equal(testutil.Dec("1000")))
		assert.True(t, snap.Profit.IsZero())
		assert.True(t, snap.ProfitRate.IsZero())
	})

	t.Run("empty history reports the missing symbol", func(t *testing.T) {
		// Setup
		store, _ := testutil.NewTestStore(t)
		testutil.CreateHolding(t, store, "alice", "AAPL", 10, "100")
		svc := testutil.NewTestPortfolioService(t, store, testutil.NewMockPriceSource())

		// Execute
		result, err := svc.Analyze(ctx, "alice")

		// Assert
		require.NoError(t, err)
		assert.False(t, result.HasData)
		assert.Equal(t, service.MsgMissingHistoryPrefix+"AAPL", result.Message)
		assert.NotNil(t, result.Snapshots)
		assert.Empty(t, result.Snapshots)
	})

	t.Run("every missing symbol is named", func(t *testing.T) {
		store, _ := testutil.NewTestStore(t)
		testutil.CreateHolding(t, store, "alice", "TSLA", 1, "200")
		testutil.CreateHolding(t, store, "alice", "AAPL", 1, "100")
		testutil.CreateHolding(t, store, "alice", "MSFT", 1, "300")
		prices := testutil.NewMockPriceSource().
			WithHistory("MSFT", testutil.Point("2024-01-01", "310"))
		svc := testutil.NewTestPortfolioService(t, store, prices)

		result, err := svc.Analyze(ctx, "alice")

		require.NoError(t, err)
		assert.False(t, result.HasData)
		assert.Equal(t, service.MsgMissingHistoryPrefix+"AAPL, TSLA", result.Message)
		assert.Empty(t, result.Snapshots)
	})

	t.Run("no holdings", func(t *testing.T) {
		store, _ := testutil.NewFundedTestStore(t, map[string]string{"bob": "1000"})
		prices := testutil.NewMockPriceSource()
		svc := testutil.NewTestPortfolioService(t, store, prices)

		result, err := svc.Analyze(ctx, "bob")

		require.NoError(t, err)
		assert.False(t, result.HasData)
		assert.Equal(t, service.MsgNoHoldingsPrefix+"bob", result.Message)
		assert.Empty(t, result.Holdings)
		assert.NotNil(t, result.Snapshots)
		assert.Empty(t, result.Snapshots)
	})

	t.Run("blank username", func(t *testing.T) {
		store, _ := testutil.NewTestStore(t)
		svc := testutil.NewTestPortfolioService(t, store, testutil.NewMockPriceSource())

		_, err := svc.Analyze(ctx, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidUsername)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store, _ := testutil.NewTestStore(t)
		testutil.CreateHolding(t, store, "alice", "AAPL", 1, "100")
		prices := testutil.NewMockPriceSource().
			WithHistory("AAPL", testutil.Point("2024-01-01", "100"))
		svc := testutil.NewTestPortfolioService(t, store, prices)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.Analyze(cancelled, "alice")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestPortfolioService_AnalyzeTimeline checks which dates are emitted and
// which prices value the non-base holdings.
//
// WHY: The alphabetically first symbol drives the timeline. Other symbols are
// valued at their latest price on or before each date, falling back to their
// earliest price before their history starts.
func TestPortfolioService_AnalyzeTimeline(t *testing.T) {
	// Setup
	store, _ := testutil.NewTestStore(t)
	testutil.CreateHolding(t, store, "alice", "MSFT", 2, "300")
	testutil.CreateHolding(t, store, "alice", "AAPL", 10, "100")
	prices := testutil.NewMockPriceSource().
		WithHistory("AAPL",
			testutil.Point("2024-01-04", "104"),
			testutil.Point("2024-01-02", "102"),
			testutil.Point("2024-01-03", "103"),
		).
		WithHistory("MSFT",
			testutil.Point("2024-01-03", "330"),
			testutil.Point("2024-01-05", "350"),
		)
	svc := testutil.NewTestPortfolioService(t, store, prices)

	// Execute
	result, err := svc.Analyze(context.Background(), "alice")

	// Assert
	require.NoError(t, err)
	require.True(t, result.HasData)
	require.Len(t, result.Snapshots, 3, "timeline follows AAPL, not MSFT")
	assert.Equal(t, "AAPL", result.Holdings[0].Symbol)

	expected := []struct {
		date  string
		value string
	}{
		{date: "2024-01-02", value: "1680"}, // 10*102 + 2*330 (earliest MSFT)
		{date: "2024-01-03", value: "1690"}, // 10*103 + 2*330
		{date: "2024-01-04", value: "1700"}, // 10*104 + 2*330
	}
	for i, want := range expected {
		snap := result.Snapshots[i]
		assert.Equal(t, testutil.Date(want.date), snap.Date)
		assert.True(t, snap.TotalCost.Equal(testutil.Dec("1600")), "cost on %s", want.date)
		assert.True(t, snap.TotalValue.Equal(testutil.Dec(want.value)), "value on %s: got %s", want.date, snap.TotalValue)
		assert.True(t, snap.Profit.Equal(snap.TotalValue.Sub(snap.TotalCost)))
		assert.True(t, snap.ProfitRate.Equal(snap.Profit.Div(snap.TotalCost)))
	}
}

func TestPortfolioService_AnalyzeDuplicateDates(t *testing.T) {
	store, _ := testutil.NewTestStore(t)
	testutil.CreateHolding(t, store, "alice", "AAPL", 10, "100")
	prices := testutil.NewMockPriceSource().
		WithHistory("AAPL",
			testutil.Point("2024-01-02", "110"),
			testutil.Point("2024-01-02", "90"),
		)
	svc := testutil.NewTestPortfolioService(t, store, prices)

	result, err := svc.Analyze(context.Background(), "alice")

	require.NoError(t, err)
	require.Len(t, result.Snapshots, 1)
	assert.True(t, result.Snapshots[0].TotalValue.Equal(testutil.Dec("900")), "last observation of a day wins")
	assert.True(t, result.Snapshots[0].Profit.Equal(testutil.Dec("-100")))
	assert.True(t, result.Snapshots[0].ProfitRate.Equal(testutil.Dec("-0.1")))
}

func TestPortfolioService_AnalyzeDoesNotMutate(t *testing.T) {
	store, persister := testutil.NewFundedTestStore(t, map[string]string{"alice": "50"})
	testutil.CreateHolding(t, store, "alice", "AAPL", 10, "100")
	savesBefore := persister.Saves()
	prices := testutil.NewMockPriceSource().
		WithHistory("AAPL", testutil.Point("2024-01-01", "100"))
	svc := testutil.NewTestPortfolioService(t, store, prices)

	_, err := svc.Analyze(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, savesBefore, persister.Saves())
	assert.True(t, store.Cash("alice").Equal(testutil.Dec("50")))
	assert.Empty(t, store.Orders())
}

// TestPortfolioService_Holdings tests current-price valuation of holdings.
//
// WHY: A single unavailable quote must not hide the rest of the portfolio.
func TestPortfolioService_Holdings(t *testing.T) {
	ctx := context.Background()

	t.Run("values every holding", func(t *testing.T) {
		// Setup
		store, _ := testutil.NewTestStore(t)
		testutil.CreateHolding(t, store, "alice", "MSFT", 2, "300")
		testutil.CreateHolding(t, store, "alice", "AAPL", 10, "100")
		prices := testutil.NewMockPriceSource().
			WithPrice("AAPL", "120").
			WithPrice("MSFT", "250")
		svc := testutil.NewTestPortfolioService(t, store, prices)

		// Execute
		valuations, err := svc.Holdings(ctx, "alice")

		// Assert
		require.NoError(t, err)
		require.Len(t, valuations, 2)

		aapl := valuations[0]
		assert.Equal(t, "AAPL", aapl.Symbol)
		assert.Equal(t, int64(10), aapl.Shares)
		assert.True(t, aapl.TotalCost.Equal(testutil.Dec("1000")))
		assert.True(t, aapl.CurrentPrice.Equal(testutil.Dec("120")))
		assert.True(t, aapl.MarketValue.Equal(testutil.Dec("1200")))
		assert.True(t, aapl.TotalUnrealizedGainLoss.Equal(testutil.Dec("200")))
		assert.Empty(t, aapl.Error)

		msft := valuations[1]
		assert.Equal(t, "MSFT", msft.Symbol)
		assert.True(t, msft.TotalUnrealizedGainLoss.Equal(testutil.Dec("-100")))
	})

	t.Run("price failure marks only that holding", func(t *testing.T) {
		store, _ := testutil.NewTestStore(t)
		testutil.CreateHolding(t, store, "alice", "AAPL", 10, "100")
		testutil.CreateHolding(t, store, "alice", "MSFT", 2, "300")
		prices := testutil.NewMockPriceSource().
			WithPrice("AAPL", "120").
			WithPriceError("MSFT", errors.New("timeout"))
		svc := testutil.NewTestPortfolioService(t, store, prices)

		valuations, err := svc.Holdings(ctx, "alice")

		require.NoError(t, err)
		require.Len(t, valuations, 2)
		assert.Empty(t, valuations[0].Error)
		assert.Equal(t, apperrors.ErrPriceSource.Error(), valuations[1].Error)
		assert.True(t, valuations[1].TotalCost.Equal(testutil.Dec("600")))
		assert.True(t, valuations[1].MarketValue.IsZero())
	})

	t.Run("no holdings", func(t *testing.T) {
		store, _ := testutil.NewTestStore(t)
		svc := testutil.NewTestPortfolioService(t, store, testutil.NewMockPriceSource())

		valuations, err := svc.Holdings(ctx, "nobody")

		require.NoError(t, err)
		assert.NotNil(t, valuations)
		assert.Empty(t, valuations)
	})

	t.Run("blank username", func(t *testing.T) {
		store, _ := testutil.NewTestStore(t)
		svc := testutil.NewTestPortfolioService(t, store, testutil.NewMockPriceSource())

		_, err := svc.Holdings(ctx, " ")
		assert.ErrorIs(t, err, apperrors.ErrInvalidUsername)
	})
}
