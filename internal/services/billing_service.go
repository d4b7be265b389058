// Package services – BillingService
//
// This file implements the credit purchase flow: opening a payment intent
// with a pending transaction record, and the completion protocol invoked
// by the payment webhook. Completion applies the "credit exactly once"
// guarantee: the status flip and the ledger credit run inside one
// database transaction, with the flip guarded on status = 'pending' so a
// redelivered callback finds nothing to do.
package services

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/shemnduati/AiImageApp/internal/domain"
	"github.com/shemnduati/AiImageApp/internal/payments"
	"github.com/shemnduati/AiImageApp/internal/repo"
)

// BillingService implements the use-cases around credit purchases.
type BillingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Ledger credits the balance on payment completion.
	Ledger *LedgerService
	// Gateway creates payment intents at the external provider.
	Gateway payments.Gateway
	// Currency is the ISO code all purchases are denominated in.
	Currency string
}

// NewBillingService constructs a BillingService charging in USD.
func NewBillingService(db *gorm.DB, ledger *LedgerService, gw payments.Gateway) *BillingService {
	return &BillingService{DB: db, Ledger: ledger, Gateway: gw, Currency: "usd"}
}

// CreateIntent validates the purchase, opens a payment intent at the
// gateway, and persists the matching pending transaction.
//
// Validation: credits must be a positive integer (ErrInvalidCreditsAmount)
// and price must not be negative (ErrInvalidAmountPaid); both are checked
// before any external call or mutation.
//
// The pending row is the anchor for the later completion callback; its
// payment_intent_id is unique per transaction.
func (s *BillingService) CreateIntent(ctx context.Context, userID string, credits int, price float64, apiVersion string) (*domain.Transaction, *payments.Intent, error) {
	if credits < 1 {
		return nil, nil, ErrInvalidCreditsAmount
	}
	if price < 0 {
		return nil, nil, ErrInvalidAmountPaid
	}

	user, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		return nil, nil, err
	}

	intent, err := s.Gateway.CreateIntent(ctx, payments.CreateIntentParams{
		UserID:      userID,
		Email:       user.Email,
		Name:        user.Name,
		AmountCents: int64(math.Round(price * 100)),
		Currency:    s.Currency,
		Credits:     credits,
		APIVersion:  apiVersion,
	})
	if err != nil {
		return nil, nil, err
	}

	tx, err := repo.CreatePendingTransaction(ctx, s.DB, userID, intent.ID, credits, price, s.Currency)
	if err != nil {
		return nil, nil, err
	}
	return tx, intent, nil
}

// CompletePayment executes the payment-completion protocol for a
// confirmed payment intent:
//
//  1. Look up the transaction matching the intent id with status
//     'pending'. Anything else (unknown intent, already completed)
//     yields ErrTransactionNotFound, which redeliveries treat as a
//     harmless no-op.
//  2. Flip the transaction to 'completed' (status-guarded update).
//  3. Credit the ledger with the transaction's credit amount.
//
// Steps 2 and 3 run in one database transaction, flip first, so a
// balance can never be credited for a transaction that stayed pending,
// and no transaction is ever credited twice.
//
// On success it returns the credited balance and the credits added.
func (s *BillingService) CompletePayment(ctx context.Context, paymentIntentID string) (newBalance, creditsAdded int, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		tx, err := repo.FindPendingTransaction(ctx, dbtx, paymentIntentID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrTransactionNotFound
			}
			return err
		}

		// The status guard inside MarkTransactionCompleted is what makes
		// concurrent deliveries safe: only one flips the row.
		if _, err := repo.MarkTransactionCompleted(ctx, dbtx, tx.ID); err != nil {
			if repo.IsNotFound(err) {
				return ErrTransactionNotFound
			}
			return err
		}

		balance, err := s.Ledger.withDB(dbtx).Credit(ctx, tx.UserID, tx.CreditsAmount)
		if err != nil {
			return err
		}
		newBalance = balance
		creditsAdded = tx.CreditsAmount
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return newBalance, creditsAdded, nil
}
