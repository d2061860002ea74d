// Package request holds the JSON bodies accepted by the API.
package request

// PlaceOrderRequest represents the request body for placing an order.
// Missing fields decode to their zero values and are rejected by the
// execution engine with a business failure rather than a 400.
type PlaceOrderRequest struct {
	Symbol string `json:"symbol"`
	Action string `json:"action"`
	Shares int64  `json:"shares"`
}
