package validation

import (
	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/request"
)

// ValidatePlaceOrder checks the format of an order request.
//
// Only malformed values are rejected here. A blank symbol, a missing or
// unknown action and a non-positive share count pass through: the execution
// engine reports them as an unsuccessful order with the current account state.
//
// Checked fields:
//   - symbol: letters, digits and . = ^ -, at most MaxSymbolLength characters
//   - action: at most 8 characters
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidatePlaceOrder(req request.PlaceOrderRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if len(req.Action) > 8 {
		errors["action"] = "action must be BUY or SELL"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
