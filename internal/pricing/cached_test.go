package pricing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/pricing"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/testutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCachedSource_CurrentPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("caches until the ttl expires", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)}
		mock := testutil.NewMockPriceSource().WithPrice("AAPL", "100")
		cached := pricing.NewCachedSource(mock, time.Minute).WithClock(clock.Now)

		price, err := cached.CurrentPrice(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "100", price.String())

		mock.SetPrice("AAPL", "101")
		price, err = cached.CurrentPrice(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "100", price.String())
		assert.Equal(t, 1, mock.PriceCalls("AAPL"))

		clock.Advance(time.Minute)
		price, err = cached.CurrentPrice(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "101", price.String())
		assert.Equal(t, 2, mock.PriceCalls("AAPL"))
	})

	t.Run("does not cache errors", func(t *testing.T) {
		errDown := errors.New("network down")
		mock := testutil.NewMockPriceSource().WithPriceError("AAPL", errDown)
		cached := pricing.NewCachedSource(mock, time.Minute)

		_, err := cached.CurrentPrice(ctx, "AAPL")
		assert.ErrorIs(t, err, errDown)

		mock.WithPriceError("AAPL", nil).WithPrice("AAPL", "100")
		price, err := cached.CurrentPrice(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "100", price.String())
		assert.Equal(t, 2, mock.PriceCalls("AAPL"))
	})

	t.Run("concurrent callers share one upstream call", func(t *testing.T) {
		gate := make(chan struct{})
		mock := testutil.NewMockPriceSource().WithPrice("AAPL", "100").WithGate(gate)
		cached := pricing.NewCachedSource(mock, time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				price, err := cached.CurrentPrice(ctx, "AAPL")
				assert.NoError(t, err)
				assert.Equal(t, "100", price.String())
			}()
		}

		require.Eventually(t, func() bool { return mock.PriceCalls("AAPL") == 1 }, time.Second, time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(gate)
		wg.Wait()

		assert.Equal(t, 1, mock.PriceCalls("AAPL"))
	})

	t.Run("caller context bounds the wait", func(t *testing.T) {
		gate := make(chan struct{})
		defer close(gate)
		mock := testutil.NewMockPriceSource().WithPrice("AAPL", "100").WithGate(gate)
		cached := pricing.NewCachedSource(mock, time.Minute)

		timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()

		_, err := cached.CurrentPrice(timeoutCtx, "AAPL")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestCachedSource_PriceHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("caches non-empty histories", func(t *testing.T) {
		mock := testutil.NewMockPriceSource().WithHistory("AAPL", testutil.Point("2024-01-02", "185.64"))
		cached := pricing.NewCachedSource(mock, time.Minute)

		assert.Len(t, cached.PriceHistory(ctx, "AAPL"), 1)
		assert.Len(t, cached.PriceHistory(ctx, "AAPL"), 1)
		assert.Equal(t, 1, mock.HistoryCalls("AAPL"))
	})

	t.Run("does not cache empty histories", func(t *testing.T) {
		mock := testutil.NewMockPriceSource()
		cached := pricing.NewCachedSource(mock, time.Minute)

		assert.Empty(t, cached.PriceHistory(ctx, "AAPL"))

		mock.WithHistory("AAPL", testutil.Point("2024-01-02", "185.64"))
		assert.Len(t, cached.PriceHistory(ctx, "AAPL"), 1)
		assert.Equal(t, 2, mock.HistoryCalls("AAPL"))
	})

	t.Run("invalidate quote keeps the history", func(t *testing.T) {
		mock := testutil.NewMockPriceSource().
			WithPrice("AAPL", "100").
			WithHistory("AAPL", testutil.Point("2024-01-02", "185.64"))
		cached := pricing.NewCachedSource(mock, time.Minute)
		var _ pricing.QuoteInvalidator = cached

		_, _ = cached.CurrentPrice(ctx, "AAPL")
		_ = cached.PriceHistory(ctx, "AAPL")
		mock.SetPrice("AAPL", "105")
		cached.InvalidateQuote("AAPL")
		price, err := cached.CurrentPrice(ctx, "AAPL")
		_ = cached.PriceHistory(ctx, "AAPL")

		require.NoError(t, err)
		assert.True(t, price.Equal(testutil.Dec("105")))
		assert.Equal(t, 2, mock.PriceCalls("AAPL"))
		assert.Equal(t, 1, mock.HistoryCalls("AAPL"))
		assert.Equal(t, "mock", cached.Name())
	})
}
