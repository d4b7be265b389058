// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// This file centralizes symbolic error code constants that are mapped to
// HTTP responses (via the `fail()` helper in this package). These codes
// provide clients with a stable, machine-readable error taxonomy that
// supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless
//     explicitly noted.
//   - Generic codes (e.g., bad_request, not_found) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., insufficient_credits) are reserved for
//     business outcomes a status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInsufficientCredits = "insufficient_credits"
	ErrCodeChargeFailed        = "charge_failed"
	ErrCodeListFailed          = "list_failed"
	ErrCodePaymentFailed       = "payment_failed"
	ErrCodeMethodNotAllowed    = "method_not_allowed"
)
