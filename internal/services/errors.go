// Package services defines the business logic for the credit ledger,
// operation accounting, and billing. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

var (
	// ErrInsufficientCredits is returned when a debit would push the
	// user's balance below zero. The balance is left unchanged.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrUnknownOperation is returned when a charge names an operation
	// kind outside the fixed set.
	ErrUnknownOperation = errors.New("unknown operation kind")

	// ErrOperationNotFound indicates that the requested operation record
	// does not exist or is not accessible to the current user.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrTransactionNotFound indicates that no pending transaction matches
	// the given payment intent: either the intent is unknown or the
	// transaction was already completed. For webhook redelivery this is a
	// normal, non-exceptional outcome.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidCreditsAmount is returned when a purchase requests a
	// non-positive number of credits.
	ErrInvalidCreditsAmount = errors.New("credits amount must be a positive integer")

	// ErrInvalidAmountPaid is returned when a purchase carries a negative
	// price.
	ErrInvalidAmountPaid = errors.New("amount paid must not be negative")

	// ErrPartialFailure marks the charge protocol's
	// record-created-but-debit-failed case. It is logged for operator
	// remediation and never retried automatically.
	ErrPartialFailure = errors.New("operation recorded but debit failed")
)
