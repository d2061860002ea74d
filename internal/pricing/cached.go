package pricing

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// CachedSource wraps another Source with a TTL cache. Concurrent requests for
// the same symbol share one upstream call. Errors and empty histories are not
// cached so a transient failure is retried on the next request.
type CachedSource struct {
	next Source
	ttl  time.Duration
	now  func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	quotes    map[string]cachedQuote
	histories map[string]cachedHistory
}

type cachedQuote struct {
	price   decimal.Decimal
	expires time.Time
}

type cachedHistory struct {
	points  []model.PricePoint
	expires time.Time
}

// NewCachedSource caches results of next for ttl.
func NewCachedSource(next Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		next:      next,
		ttl:       ttl,
		now:       time.Now,
		quotes:    make(map[string]cachedQuote),
		histories: make(map[string]cachedHistory),
	}
}

// WithClock replaces the clock used for expiry.
func (c *CachedSource) WithClock(now func() time.Time) *CachedSource {
	c.now = now
	return c
}

func (c *CachedSource) Name() string {
	return c.next.Name()
}

func (c *CachedSource) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	c.mu.Lock()
	if q, ok := c.quotes[symbol]; ok && c.now().Before(q.expires) {
		c.mu.Unlock()
		return q.price, nil
	}
	c.mu.Unlock()

	// The shared call must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan("quote:"+symbol, func() (interface{}, error) {
		price, err := c.next.CurrentPrice(shared, symbol)
		if err != nil {
			return decimal.Zero, err
		}
		c.mu.Lock()
		c.quotes[symbol] = cachedQuote{price: price, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return price, nil
	})

	select {
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return decimal.Zero, res.Err
		}
		return res.Val.(decimal.Decimal), nil
	}
}

func (c *CachedSource) PriceHistory(ctx context.Context, symbol string) []model.PricePoint {
	c.mu.Lock()
	if h, ok := c.histories[symbol]; ok && c.now().Before(h.expires) {
		c.mu.Unlock()
		return slices.Clone(h.points)
	}
	c.mu.Unlock()

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan("history:"+symbol, func() (interface{}, error) {
		points := c.next.PriceHistory(shared, symbol)
		if len(points) > 0 {
			c.mu.Lock()
			c.histories[symbol] = cachedHistory{points: slices.Clone(points), expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return points, nil
	})

	select {
	case <-ctx.Done():
		return []model.PricePoint{}
	case res := <-ch:
		return slices.Clone(res.Val.([]model.PricePoint))
	}
}

// InvalidateQuote drops the cached quote for symbol. The cached history is
// kept.
func (c *CachedSource) InvalidateQuote(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.quotes, symbol)
}
