package market

import "errors"

// Sentinel errors for quote resolution. The handler layer maps these to
// HTTP status codes.
var (
	// ErrUnknownSymbol means the symbol is not part of the tradable universe.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrQuoteUnavailable means no quote could be obtained, fresh or stale.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)
