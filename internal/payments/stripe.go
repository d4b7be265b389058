// Package payments – Stripe-backed Gateway implementation.
//
// Mirrors the mobile payment-sheet flow: create (or reuse) a customer,
// mint an ephemeral key for the client SDK, then open a payment intent
// with the purchase recorded in its metadata.
package payments

import (
	"context"
	"strconv"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway implements Gateway on top of the Stripe API.
type StripeGateway struct {
	api            *client.API
	publishableKey string
}

// NewStripeGateway builds a gateway bound to the given secret key. The
// publishable key is echoed back to clients alongside each intent.
func NewStripeGateway(secretKey, publishableKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, publishableKey: publishableKey}
}

// CreateIntent opens a payment intent for p and returns the tokens the
// mobile payment sheet needs. The user id and credit amount travel in the
// intent metadata so gateway-side events can be reconciled with the
// transaction store.
func (g *StripeGateway) CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error) {
	custParams := &stripe.CustomerParams{
		Email: stripe.String(p.Email),
		Name:  stripe.String(p.Name),
	}
	custParams.Context = ctx
	cust, err := g.api.Customers.New(custParams)
	if err != nil {
		return nil, err
	}

	ekParams := &stripe.EphemeralKeyParams{
		Customer: stripe.String(cust.ID),
	}
	if p.APIVersion != "" {
		ekParams.StripeVersion = stripe.String(p.APIVersion)
	}
	ekParams.Context = ctx
	ek, err := g.api.EphemeralKeys.New(ekParams)
	if err != nil {
		return nil, err
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.AmountCents),
		Currency: stripe.String(p.Currency),
		Customer: stripe.String(cust.ID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	piParams.Context = ctx
	piParams.AddMetadata("user_id", p.UserID)
	piParams.AddMetadata("credits_amount", strconv.Itoa(p.Credits))
	pi, err := g.api.PaymentIntents.New(piParams)
	if err != nil {
		return nil, err
	}

	return &Intent{
		ID:             pi.ID,
		ClientSecret:   pi.ClientSecret,
		CustomerID:     cust.ID,
		EphemeralKey:   ek.Secret,
		PublishableKey: g.publishableKey,
	}, nil
}
