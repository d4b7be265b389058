// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Operation model.
//
// All functions are context-aware and accept a *gorm.DB handle. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Every query is scoped by user_id so
// a caller can never observe another user's rows; a cross-user lookup is
// indistinguishable from a missing one (ErrNotFound either way).
//
// Functions:
//
//   - CreateOperation(ctx, db, op) -> error
//     Inserts a new, immutable operation row.
//
//   - CountOperations(ctx, db, userID) -> (int64, error)
//     Total operations owned by the user.
//
//   - ListOperationsPage(ctx, db, userID, offset, limit) -> []domain.Operation, error
//     Paginated slice, ordered by creation time descending.
//
//   - GetOperation(ctx, db, id, userID) -> *domain.Operation, error
//     Single row by id/owner, or ErrNotFound.
//
//   - DeleteOperation(ctx, db, id, userID) -> *domain.Operation, error
//     Removes the row and returns it (the caller needs the asset ids for
//     remote cleanup), or ErrNotFound.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shemnduati/AiImageApp/internal/domain"
)

// NewOperation assembles an unsaved Operation row with a fresh UUID and
// UTC creation timestamp.
func NewOperation(userID string, kind domain.OperationKind, originalAssetID, originalURL, generatedAssetID, generatedURL string, metadata map[string]string) *domain.Operation {
	return &domain.Operation{
		ID:               uuid.NewString(),
		UserID:           userID,
		Kind:             kind,
		OriginalAssetID:  originalAssetID,
		OriginalURL:      originalURL,
		GeneratedAssetID: generatedAssetID,
		GeneratedURL:     generatedURL,
		Metadata:         metadata,
		CreatedAt:        time.Now().UTC(),
	}
}

// CreateOperation inserts op. On failure, it returns a DB error.
func CreateOperation(ctx context.Context, db *gorm.DB, op *domain.Operation) error {
	return db.WithContext(ctx).Create(op).Error
}

// CountOperations returns the total number of operations owned by userID.
func CountOperations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Operation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListOperationsPage returns a paginated slice of operations for userID,
// ordered by creation time descending (most recent first). Use
// CountOperations to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit
// (e.g., (page-1)*perPage).
func ListOperationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Operation, error) {
	var out []domain.Operation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetOperation fetches a single operation by its ID and owner. If the
// record does not exist, or exists but belongs to someone else, it
// returns ErrNotFound.
func GetOperation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Operation, error) {
	var op domain.Operation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// DeleteOperation removes the operation identified by id and owned by
// userID and returns the deleted row so the caller can schedule remote
// asset cleanup. Returns ErrNotFound under the same ownership rule as
// GetOperation.
func DeleteOperation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Operation, error) {
	op, err := GetOperation(ctx, db, id, userID)
	if err != nil {
		return nil, err
	}
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Operation{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Deleted concurrently between the read and the delete.
		return nil, gorm.ErrRecordNotFound
	}
	return op, nil
}

// IsNotFound reports whether err represents a missing record, either via
// the package sentinel or GORM's own.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
