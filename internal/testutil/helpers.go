package testutil

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/pricing"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/service"
)

// FixedTime is the clock used by the test services.
var FixedTime = time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)

// NewTestOrderService creates an OrderService with a fixed clock and a short price timeout.
func NewTestOrderService(t *testing.T, store *ledger.Store, prices pricing.Source) *service.OrderService {
	t.Helper()

	return service.NewOrderService(store, prices, time.Second, zerolog.Nop()).
		WithClock(func() time.Time { return FixedTime })
}

func NewTestPortfolioService(t *testing.T, store *ledger.Store, prices pricing.Source) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(store, prices, zerolog.Nop())
}

// NewTestAccountService creates an AccountService seeding 10000 of cash.
func NewTestAccountService(t *testing.T, store *ledger.Store) *service.AccountService {
	t.Helper()

	return service.NewAccountService(store, decimal.NewFromInt(10000), zerolog.Nop())
}

func NewTestSystemService(t *testing.T, store *ledger.Store) *service.SystemService {
	t.Helper()

	return service.NewSystemService(store, nil, "memory", "mock", map[string]bool{"holdings_valuation": true})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeUsername generates a unique username for testing.
//
// Example usage:
//
//	username := testutil.MakeUsername("trader")
//	// Returns: "trader_a1b2c3"
func MakeUsername(base string) string {
	if base == "" {
		base = "user"
	}
	return base + "_" + randomLowercase(6)
}

// MakeSymbol generates a stock ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AAPL")
//	// Returns: "AAPL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	return randomFrom("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", length)
}

func randomLowercase(length int) string {
	return randomFrom("abcdefghijklmnopqrstuvwxyz0123456789", length)
}

func randomFrom(charset string, length int) string {
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
