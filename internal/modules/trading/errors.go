package trading

import (
	"errors"
	"fmt"
)

// Sentinel errors for order validation. All are expected, recoverable
// conditions returned to the caller; the handler layer maps them to HTTP
// status codes.
var (
	// ErrInvalidOrder covers non-positive share counts and symbols
	// outside the tradable universe.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrBelowMinimumTrade means the order's dollar value is under the
	// minimum ticket size.
	ErrBelowMinimumTrade = errors.New("below minimum trade")

	// ErrInsufficientFunds means the agent's cash cannot cover the buy.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares means the agent holds fewer shares than the
	// sell requests.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrConcurrencyConflict means the ledger transaction could not be
	// committed after retries.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// InsufficientFundsError reports how much the order needed against what
// the agent holds. Matches ErrInsufficientFunds under errors.Is.
type InsufficientFundsError struct {
	Need float64
	Have float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need $%.2f, have $%.2f", e.Need, e.Have)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InsufficientSharesError reports held vs requested share counts.
// Matches ErrInsufficientShares under errors.Is.
type InsufficientSharesError struct {
	Symbol    string
	Held      int
	Requested int
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: own %d, want to sell %d", e.Symbol, e.Held, e.Requested)
}

func (e *InsufficientSharesError) Unwrap() error { return ErrInsufficientShares }
