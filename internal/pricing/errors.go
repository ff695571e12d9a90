package pricing

import (
	"errors"
	"fmt"
)

// Common errors returned by the pricing client.
var (
	// ErrInvalidMint is returned when a mint address fails base58 validation.
	ErrInvalidMint = errors.New("invalid mint address")

	// ErrNoPairData is returned when the API knows no priced pair for a token.
	ErrNoPairData = errors.New("no pair data for token")
)

// APIError represents a non-200 response from the pricing API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("pricing API error (status %d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the error is worth retrying: server-side
// failures and throttling, never client errors.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
