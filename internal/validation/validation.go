package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID     = fmt.Errorf("invalid UUID format")
	ErrInvalidUsername = fmt.Errorf("invalid username")
	ErrInvalidSymbol   = fmt.Errorf("invalid symbol")
)

// MaxUsernameLength and MaxSymbolLength bound identifiers taken from requests.
const (
	MaxUsernameLength = 64
	MaxSymbolLength   = 16
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]*$`)
	// Exchange suffixes (BRK.B, VOD.L), indices (^GSPC), futures (CL=F) and crypto pairs (BTC-USD).
	symbolPattern = regexp.MustCompile(`^[A-Za-z0-9^][A-Za-z0-9.=^-]*$`)
)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateUsername checks that a username is present, at most
// MaxUsernameLength characters and made of letters, digits and . _ @ -.
func ValidateUsername(username string) error {
	switch {
	case strings.TrimSpace(username) == "":
		return fmt.Errorf("%w: username is required", ErrInvalidUsername)
	case len(username) > MaxUsernameLength:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, MaxUsernameLength)
	case !usernamePattern.MatchString(username):
		return fmt.Errorf("%w: %q contains unsupported characters", ErrInvalidUsername, username)
	}
	return nil
}

// ValidateSymbol checks the format of a ticker symbol. Surrounding
// whitespace is ignored; an empty symbol is not checked here.
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil
	}
	if len(symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidSymbol, MaxSymbolLength)
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}
