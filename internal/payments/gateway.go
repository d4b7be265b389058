// Package payments wraps the external payment gateway behind a narrow
// interface. The accounting core only depends on Gateway; the Stripe
// implementation lives in stripe.go and is wired in at startup.
package payments

import "context"

// CreateIntentParams carries everything the gateway needs to open one
// payment attempt for a credit purchase.
type CreateIntentParams struct {
	// UserID is recorded in the intent metadata for reconciliation.
	UserID string
	// Email and Name identify the paying customer at the gateway.
	Email string
	Name  string
	// AmountCents is the charge amount in the currency's minor unit.
	AmountCents int64
	// Currency is the lowercase ISO code, e.g. "usd".
	Currency string
	// Credits is the number of credits being purchased, recorded in the
	// intent metadata.
	Credits int
	// APIVersion optionally pins the gateway API version for the
	// ephemeral key (mobile SDKs send it per request).
	APIVersion string
}

// Intent is the gateway's answer to CreateIntent: the opaque tokens the
// mobile client needs to drive the payment sheet, plus the intent id the
// core persists on the pending transaction.
type Intent struct {
	ID             string
	ClientSecret   string
	CustomerID     string
	EphemeralKey   string
	PublishableKey string
}

// Gateway creates payment intents at the external payment provider. The
// provider confirms intents out of band; the core only learns about the
// outcome through the success callback carrying the intent id.
type Gateway interface {
	CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error)
}
