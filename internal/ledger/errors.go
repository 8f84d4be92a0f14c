package ledger

import "errors"

var (
	// ErrInvalidTransactionType rejects any type outside {BUY, SELL} before
	// anything is mutated.
	ErrInvalidTransactionType = errors.New("invalid transaction type: must be BUY or SELL")

	// ErrHoldingNotFound is a SELL against a (portfolio, symbol) key with no holding.
	ErrHoldingNotFound = errors.New("no holding found for symbol in portfolio")

	// ErrInsufficientQuantity is a SELL for more than the held quantity.
	ErrInsufficientQuantity = errors.New("sell quantity exceeds held quantity")
)
