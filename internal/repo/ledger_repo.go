// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the credit ledger: reads and atomic
// mutations of the per-user balance stored on the users table.
//
// All functions are context-aware and accept a *gorm.DB handle, making
// them safe for use within transactions or connection-scoped operations.
//
// Concurrency contract:
//   - DebitCredits and CreditCredits are single conditional UPDATE
//     statements. The database serializes them per row, so two concurrent
//     debits of the same user can never both pass the balance guard. The
//     earlier advisory read (GetUserCredits) never reserves funds.
//
// Error semantics:
//   - A missing user yields ErrNotFound.
//   - A debit whose guard matched no row (balance too low) yields
//     ErrInsufficientBalance; the balance is left untouched.
//   - Other DB errors are propagated raw.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shemnduati/AiImageApp/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrInsufficientBalance is returned by DebitCredits when the conditional
// decrement matched no row because the balance was below the amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// CreateUser inserts a user row with the given starting balance. Account
// provisioning proper lives in the auth layer; this exists for bootstrap
// and tests.
func CreateUser(ctx context.Context, db *gorm.DB, name, email string, credits int) (*domain.User, error) {
	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Credits:   credits,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user row by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, userID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserCredits returns the current balance for userID, or ErrNotFound.
// This is an advisory read: it does not lock or reserve anything, so a
// caller must still expect DebitCredits to fail.
func GetUserCredits(ctx context.Context, db *gorm.DB, userID string) (int, error) {
	var row struct{ Credits int }
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("credits").
		Where("id = ?", userID).
		First(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Credits, nil
}

// DebitCredits decrements the user's balance by amount and returns the new
// balance. The decrement is guarded in the statement itself:
//
//	UPDATE users SET credits = credits - ? WHERE id = ? AND credits >= ?
//
// so the balance can never go negative regardless of interleaving. If the
// guard matches no row, the user either does not exist (ErrNotFound) or
// has too few credits (ErrInsufficientBalance).
func DebitCredits(ctx context.Context, db *gorm.DB, userID string, amount int) (int, error) {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND credits >= ?", userID, amount).
		Update("credits", gorm.Expr("credits - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish "no such user" from "not enough credits".
		if _, err := GetUserCredits(ctx, db, userID); err != nil {
			return 0, err
		}
		return 0, ErrInsufficientBalance
	}
	return GetUserCredits(ctx, db, userID)
}

// CreditCredits increments the user's balance by amount and returns the
// new balance. No upper bound is enforced. A missing user yields
// ErrNotFound.
func CreditCredits(ctx context.Context, db *gorm.DB, userID string, amount int) (int, error) {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Update("credits", gorm.Expr("credits + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return GetUserCredits(ctx, db, userID)
}
