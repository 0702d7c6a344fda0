package ledger

import "errors"

var (
	// ErrInsufficientFunds is returned when the balance does not cover amount and fee
	ErrInsufficientFunds = errors.New("Insufficient funds")

	// ErrAccountNotFound is returned for unknown account ids
	ErrAccountNotFound = errors.New("Account not found")

	// ErrLedgerTimeout is returned when the account lock was not acquired in time.
	// Safe to retry with the same transaction id
	ErrLedgerTimeout = errors.New("Ledger timeout")

	// ErrLedgerUnavailable is returned when the journal could not be written
	ErrLedgerUnavailable = errors.New("Ledger unavailable")

	// ErrTransactionConflict is returned when a transaction id is reused for another account
	ErrTransactionConflict = errors.New("Transaction conflict")
)
