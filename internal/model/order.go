package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the side of an order.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// ParseAction parses an order side, ignoring case and surrounding spaces.
// The second return value is false for anything other than BUY or SELL.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, true
	case ActionSell:
		return ActionSell, true
	default:
		return "", false
	}
}

// OrderRecord is one executed order in the order log.
// Records are immutable once appended; the log's append order is the
// chronological order.
type OrderRecord struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Username    string          `json:"username"`
	Symbol      string          `json:"symbol"`
	Action      Action          `json:"action"`
	Shares      int64           `json:"shares"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// ExecutionResult reports the outcome of a single order request.
//
// Business failures (bad input, insufficient cash or shares) are returned
// with Success=false and a user-facing Message. The *AfterTrade fields hold
// the account state after the request, which equals the state before it for
// failures. Durable is false when the order was applied in memory but the
// ledger could not be written to storage.
type ExecutionResult struct {
	Message                     string          `json:"message"`
	Success                     bool            `json:"success"`
	CashAfterTrade              decimal.Decimal `json:"cashAfterTrade"`
	AverageCostAfterTrade       decimal.Decimal `json:"averageCostAfterTrade"`
	TotalSharesAfterTrade       int64           `json:"totalSharesAfterTrade"`
	TotalHoldingValueAfterTrade decimal.Decimal `json:"totalHoldingValueAfterTrade"`
	Durable                     bool            `json:"durable"`
	Order                       *OrderRecord    `json:"order,omitempty"`
}
