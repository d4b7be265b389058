// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Transaction model, including the status-guarded completion flip that
// makes payment webhooks idempotent.
//
// Error semantics:
//   - FindPendingTransaction returns ErrNotFound both for unknown intents
//     and for intents whose transaction is already completed; the caller
//     treats that as a safe no-op for redelivered webhooks.
//   - MarkTransactionCompleted returns ErrNotFound when no pending row was
//     flipped, so a second completion attempt cannot take effect.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shemnduati/AiImageApp/internal/domain"
)

// CreatePendingTransaction inserts a transaction in the pending state for
// the given payment intent. The payment_intent_id column carries a unique
// index, so a duplicate intent id surfaces as a DB error.
func CreatePendingTransaction(ctx context.Context, db *gorm.DB, userID, paymentIntentID string, creditsAmount int, amountPaid float64, currency string) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		PaymentIntentID: paymentIntentID,
		CreditsAmount:   creditsAmount,
		AmountPaid:      amountPaid,
		Currency:        strings.ToLower(currency),
		Status:          domain.TxPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, err
	}
	return tx, nil
}

// FindPendingTransaction looks up the transaction matching both the given
// payment intent id and status "pending". The dual condition is the
// idempotence guard: once a row is completed this lookup stops finding
// it, so a redelivered success callback observes ErrNotFound and does
// nothing.
func FindPendingTransaction(ctx context.Context, db *gorm.DB, paymentIntentID string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := db.WithContext(ctx).
		Where("payment_intent_id = ? AND status = ?", paymentIntentID, domain.TxPending).
		First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// MarkTransactionCompleted flips the transaction from pending to
// completed and stamps paid_at. The status guard sits in the UPDATE
// itself:
//
//	UPDATE transactions SET status = 'completed', paid_at = ?
//	WHERE id = ? AND status = 'pending'
//
// so only the first caller ever transitions the row; any later attempt
// matches nothing and gets ErrNotFound.
func MarkTransactionCompleted(ctx context.Context, db *gorm.DB, transactionID string) (*domain.Transaction, error) {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", transactionID, domain.TxPending).
		Updates(map[string]any{
			"status":  domain.TxCompleted,
			"paid_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var tx domain.Transaction
	if err := db.WithContext(ctx).First(&tx, "id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}
