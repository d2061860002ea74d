package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/pricing"
)

// User-facing messages of order execution outcomes.
const (
	MsgInvalidOrder    = "Enter your symbol, action, and shares."
	MsgNotEnoughCash   = "Not enough cash."
	MsgNotEnoughShares = "Not enough shares to sell."
	MsgOrderExecuted   = "Order executed."
)

// DefaultPriceTimeout bounds a live quote fetch when no timeout is configured.
const DefaultPriceTimeout = 10 * time.Second

// OrderService executes buy and sell orders against the ledger.
//
// Each order is one critical section on the ledger store: the cash and
// holding are read, checked, updated and logged, and the new state is
// persisted before any other mutation can start. The live price is fetched
// before entering that section so a slow quote only delays its own order.
type OrderService struct {
	store        *ledger.Store
	prices       pricing.Source
	priceTimeout time.Duration
	now          func() time.Time
	newID        func() string
	log          zerolog.Logger
}

// NewOrderService creates a new OrderService.
// priceTimeout bounds each live quote fetch; zero uses DefaultPriceTimeout.
func NewOrderService(store *ledger.Store, prices pricing.Source, priceTimeout time.Duration, log zerolog.Logger) *OrderService {
	if priceTimeout <= 0 {
		priceTimeout = DefaultPriceTimeout
	}
	return &OrderService{
		store:        store,
		prices:       prices,
		priceTimeout: priceTimeout,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
		log:          log.With().Str("component", "orders").Logger(),
	}
}

// WithClock replaces the clock used to timestamp order records.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// WithIDGenerator replaces the generator of order record IDs.
func (s *OrderService) WithIDGenerator(newID func() string) *OrderService {
	s.newID = newID
	return s
}

// PlaceOrder validates and executes a single order for username.
//
// Outcomes:
//   - Invalid input (blank symbol, unknown action, shares <= 0), insufficient
//     cash or insufficient shares: Success=false with a message and the
//     unchanged account state, nil error. Nothing is written.
//   - Price source failure or timeout: *apperrors.ExecutionError. Nothing is written.
//   - Success: Success=true with the post-trade account state and the new
//     order record.
//   - Success that could not be persisted: the success result with
//     Durable=false together with *apperrors.PersistenceError. The order is
//     applied in memory and will be written by the next successful flush.
//
// symbol is trimmed and upper-cased; action is case-insensitive.
func (s *OrderService) PlaceOrder(ctx context.Context, username, symbol, action string, shares int64) (model.ExecutionResult, error) {
	if strings.TrimSpace(username) == "" {
		return model.ExecutionResult{}, apperrors.ErrInvalidUsername
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	side, ok := model.ParseAction(action)
	if symbol == "" || !ok || shares <= 0 {
		return s.unchanged(username, symbol, MsgInvalidOrder), nil
	}

	price, err := s.fetchPrice(ctx, symbol)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("username", username).
			Str("symbol", symbol).
			Str("action", string(side)).
			Msg("Order aborted: price unavailable")
		return model.ExecutionResult{}, &apperrors.ExecutionError{Symbol: symbol, Err: err}
	}

	var result model.ExecutionResult
	err = s.store.Update(func(tx *ledger.Tx) error {
		var execErr error
		if side == model.ActionBuy {
			result, execErr = s.buy(tx, username, symbol, shares, price)
		} else {
			result, execErr = s.sell(tx, username, symbol, shares, price)
		}
		return execErr
	})

	var persistErr *apperrors.PersistenceError
	switch {
	case err == nil:
	case errors.As(err, &persistErr):
		result.Durable = false
		event := s.log.Error().Err(err).Str("username", username)
		if result.Order != nil {
			event = event.Str("order_id", result.Order.ID)
		}
		event.Msg("Order executed but not persisted")
		return result, err
	default:
		return model.ExecutionResult{}, fmt.Errorf("failed to execute order: %w", err)
	}

	if result.Success {
		s.log.Info().
			Str("username", username).
			Str("symbol", symbol).
			Str("action", string(side)).
			Int64("shares", shares).
			Str("price", price.String()).
			Str("order_id", result.Order.ID).
			Msg("Order executed")
	} else {
		s.log.Debug().
			Str("username", username).
			Str("symbol", symbol).
			Str("action", string(side)).
			Int64("shares", shares).
			Msg(result.Message)
	}
	return result, nil
}

func (s *OrderService) fetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	// Orders always execute at a fresh quote, never a cached one.
	if cache, ok := s.prices.(pricing.QuoteInvalidator); ok {
		cache.InvalidateQuote(symbol)
	}

	ctx, cancel := context.WithTimeout(ctx, s.priceTimeout)
	defer cancel()

	price, err := s.prices.CurrentPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s for %s", price, symbol)
	}
	return price, nil
}

func (s *OrderService) buy(tx *ledger.Tx, username, symbol string, shares int64, price decimal.Decimal) (model.ExecutionResult, error) {
	cash := tx.Cash(username)
	holding, _ := tx.Holding(username, symbol)
	totalCost := price.Mul(decimal.NewFromInt(shares))

	if shares > math.MaxInt64-holding.Shares {
		return failedResult(MsgInvalidOrder, cash, holding, price), nil
	}
	if cash.LessThan(totalCost) {
		return failedResult(MsgNotEnoughCash, cash, holding, price), nil
	}

	newShares := holding.Shares + shares
	newAvgCost := holding.TotalCost().Add(totalCost).Div(decimal.NewFromInt(newShares))
	updated := model.NewHolding(symbol, newShares, newAvgCost)
	newCash := cash.Sub(totalCost)

	if err := tx.SetHolding(username, updated); err != nil {
		return model.ExecutionResult{}, err
	}
	if err := tx.SetCash(username, newCash); err != nil {
		return model.ExecutionResult{}, err
	}
	return s.record(tx, username, symbol, model.ActionBuy, shares, price, newCash, updated)
}

func (s *OrderService) sell(tx *ledger.Tx, username, symbol string, shares int64, price decimal.Decimal) (model.ExecutionResult, error) {
	cash := tx.Cash(username)
	holding, ok := tx.Holding(username, symbol)

	if !ok || shares > holding.Shares {
		return failedResult(MsgNotEnoughShares, cash, holding, price), nil
	}

	proceeds := price.Mul(decimal.NewFromInt(shares))
	newCash := cash.Add(proceeds)
	remaining := model.NewHolding(symbol, holding.Shares-shares, holding.AvgCost)

	if remaining.Shares == 0 {
		tx.RemoveHolding(username, symbol)
	} else if err := tx.SetHolding(username, remaining); err != nil {
		return model.ExecutionResult{}, err
	}
	if err := tx.SetCash(username, newCash); err != nil {
		return model.ExecutionResult{}, err
	}
	return s.record(tx, username, symbol, model.ActionSell, shares, price, newCash, remaining)
}

// record appends the order to the log and builds the success result.
func (s *OrderService) record(
	tx *ledger.Tx,
	username, symbol string,
	action model.Action,
	shares int64,
	price, cashAfter decimal.Decimal,
	holdingAfter model.Holding,
) (model.ExecutionResult, error) {
	order := model.OrderRecord{
		ID:          s.newID(),
		Timestamp:   s.now().UTC(),
		Username:    username,
		Symbol:      symbol,
		Action:      action,
		Shares:      shares,
		Price:       price,
		TotalAmount: price.Mul(decimal.NewFromInt(shares)),
	}
	if err := tx.AppendOrder(order); err != nil {
		return model.ExecutionResult{}, err
	}

	avgCost := holdingAfter.AvgCost
	if holdingAfter.Shares == 0 {
		avgCost = decimal.Zero
	}
	return model.ExecutionResult{
		Message:                     MsgOrderExecuted,
		Success:                     true,
		CashAfterTrade:              cashAfter,
		AverageCostAfterTrade:       avgCost,
		TotalSharesAfterTrade:       holdingAfter.Shares,
		TotalHoldingValueAfterTrade: holdingAfter.MarketValue(price),
		Durable:                     true,
		Order:                       &order,
	}, nil
}

// unchanged builds a failure result echoing the current account state
// without consulting the price source. The holding is valued at cost.
func (s *OrderService) unchanged(username, symbol, message string) model.ExecutionResult {
	var result model.ExecutionResult
	_ = s.store.View(func(r ledger.Reader) error {
		holding, _ := r.Holding(username, symbol)
		result = failedResult(message, r.Cash(username), holding, holding.AvgCost)
		return nil
	})
	return result
}

// failedResult echoes the account state for a business failure. The holding
// value is the current shares at price.
func failedResult(message string, cash decimal.Decimal, holding model.Holding, price decimal.Decimal) model.ExecutionResult {
	return model.ExecutionResult{
		Message:                     message,
		Success:                     false,
		CashAfterTrade:              cash,
		AverageCostAfterTrade:       holding.AvgCost,
		TotalSharesAfterTrade:       holding.Shares,
		TotalHoldingValueAfterTrade: holding.MarketValue(price),
		Durable:                     true,
	}
}

// Orders returns the user's executed orders in the order they were placed.
func (s *OrderService) Orders(username string) ([]model.OrderRecord, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperrors.ErrInvalidUsername
	}
	return s.store.OrdersByUser(username), nil
}

// Order returns one of the user's executed orders by ID.
func (s *OrderService) Order(username, id string) (model.OrderRecord, error) {
	orders, err := s.Orders(username)
	if err != nil {
		return model.OrderRecord{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.OrderRecord{}, apperrors.ErrOrderNotFound
}
