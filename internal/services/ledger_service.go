// Package services – LedgerService
//
// This file implements the account ledger: the durable source of truth
// for how many credits a user has left. It exposes an advisory balance
// check plus atomic debit/credit operations, delegating the actual
// guard-and-mutate to a single conditional UPDATE in the repository so
// that concurrent mutations of one user's balance serialize at the row.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shemnduati/AiImageApp/internal/repo"
)

// LedgerService owns a user's credit balance. It is context-aware and
// safe for concurrent use; every mutation is persisted synchronously.
type LedgerService struct {
	// DB is the database handle used for all ledger operations.
	// The handle may be a plain *gorm.DB or a transaction-bound handle.
	DB *gorm.DB
}

// Balance returns the user's current credit balance.
func (s *LedgerService) Balance(ctx context.Context, userID string) (int, error) {
	return repo.GetUserCredits(ctx, s.DB, userID)
}

// CheckSufficientBalance reports whether the user's balance covers
// required credits. The read is advisory only: it reserves nothing, and a
// later Debit re-checks at mutation time.
func (s *LedgerService) CheckSufficientBalance(ctx context.Context, userID string, required int) (bool, error) {
	balance, err := repo.GetUserCredits(ctx, s.DB, userID)
	if err != nil {
		return false, err
	}
	return balance >= required, nil
}

// Debit decrements the balance by amount and returns the new balance.
// The decrement re-checks the balance inside the mutation itself; if it
// would go negative, ErrInsufficientCredits is returned and the balance
// is left unchanged.
func (s *LedgerService) Debit(ctx context.Context, userID string, amount int) (int, error) {
	newBalance, err := repo.DebitCredits(ctx, s.DB, userID, amount)
	if errors.Is(err, repo.ErrInsufficientBalance) {
		return 0, ErrInsufficientCredits
	}
	return newBalance, err
}

// Credit increments the balance by amount and returns the new balance.
// No upper bound is enforced.
func (s *LedgerService) Credit(ctx context.Context, userID string, amount int) (int, error) {
	return repo.CreditCredits(ctx, s.DB, userID, amount)
}

// withDB returns a copy of the service bound to the given handle, used to
// run ledger operations inside a caller-owned transaction.
func (s *LedgerService) withDB(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}
