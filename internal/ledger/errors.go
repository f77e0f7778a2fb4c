package ledger

import "errors"

var (
	// ErrInvalidAmount rejects zero or negative amounts on any mutation
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds is returned when a debit would push an account
	// below its floor
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCreditLimitExceeded is returned when a station with negative
	// balance allowed would exceed its credit limit
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")

	// ErrNoAccountFound is returned when a required account does not exist
	// and must not be auto-created
	ErrNoAccountFound = errors.New("no account found")
)
