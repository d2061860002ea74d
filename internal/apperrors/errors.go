package apperrors

import (
	"errors"
	"fmt"
)

// Fault errors represent failures of collaborators (price source, storage).
// They are surfaced to callers separately from business failures, which are
// returned as data.
var (
	// ErrPriceSource indicates that a live quote could not be obtained.
	ErrPriceSource = errors.New("price source unavailable")

	// ErrPersistence indicates that the ledger state could not be written to storage.
	ErrPersistence = errors.New("failed to persist ledger state")

	// ErrCorruptState indicates that the persisted ledger could not be decoded.
	ErrCorruptState = errors.New("persisted ledger state is corrupt")

	// ErrSymbolNotFound indicates that a price source has no data for a symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Not found errors.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrAccountNotFound = errors.New("account not found")
)

// Validation errors for required fields.
var (
	ErrInvalidUsername = errors.New("username is required")
	ErrInvalidSymbol   = errors.New("symbol is required")
	ErrInvalidHolding  = errors.New("invalid holding")
	ErrInvalidOrder    = errors.New("invalid order record")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
)

// Operation failure errors used as user-facing messages at the HTTP layer.
var (
	ErrFailedToPlaceOrder       = errors.New("failed to place order")
	ErrFailedToRetrieveOrders   = errors.New("failed to retrieve orders")
	ErrFailedToAnalyzePortfolio = errors.New("failed to analyze portfolio")
	ErrFailedToRetrieveHoldings = errors.New("failed to retrieve holdings")
	ErrFailedToRetrieveAccount  = errors.New("failed to retrieve account")
	ErrFailedToOpenAccount      = errors.New("failed to open account")
	ErrFailedToGetVersionInfo   = errors.New("failed to get version information")
	ErrOrderNotDurable          = errors.New("order executed but not yet persisted")
)

// ExecutionError is returned when an order could not be executed because the
// live price could not be fetched. No ledger state was changed.
type ExecutionError struct {
	Symbol string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute order for %s: %v", e.Symbol, e.Err)
}

// Unwrap exposes both ErrPriceSource and the underlying cause.
func (e *ExecutionError) Unwrap() []error {
	return []error{ErrPriceSource, e.Err}
}

// PersistenceError is returned when a mutation was applied in memory but the
// resulting snapshot could not be saved. The change is lost if the process
// stops before a later save succeeds.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist ledger after %s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrPersistence and the underlying cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// StartupError is returned when the persisted ledger cannot be loaded.
// It is not recoverable: the process must not continue with an unknown state.
type StartupError struct {
	Source string
	Err    error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("failed to load ledger from %s: %v", e.Source, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
