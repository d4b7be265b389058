// Package services – OperationService
//
// This file implements the operation record store and the charge
// protocol that ties a successful image transformation to a ledger
// debit. It also owns the best-effort cleanup of remote image assets
// when a record is deleted: cleanup runs on its own error channel
// (logged, never bubbled) and never blocks or fails the delete.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shemnduati/AiImageApp/internal/domain"
	"github.com/shemnduati/AiImageApp/internal/repo"
)

// AssetRemover deletes one remote image asset by its storage id.
// Implementations must honor the context for cancellation and timeouts.
type AssetRemover interface {
	Remove(ctx context.Context, assetID string) error
}

// ChargeParams carries the inputs of one charge: the operation performed
// and the references to the images it touched. The request layer invokes
// Charge only after the external transform call succeeded.
type ChargeParams struct {
	Kind             domain.OperationKind
	OriginalAssetID  string
	OriginalURL      string
	GeneratedAssetID string
	GeneratedURL     string
	Metadata         map[string]string
}

const (
	defaultPerPage = 10
	maxPerPage     = 50
)

// OperationService implements the use-cases around operation records:
// charging for a transformation, paginated history, single lookup, and
// deletion with remote asset cleanup.
type OperationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Ledger mutates the credit balance for charges.
	Ledger *LedgerService
	// Assets deletes remote image assets; may be nil, in which case
	// cleanup is skipped entirely.
	Assets AssetRemover
	// AssetTimeout bounds each remote asset deletion attempt.
	AssetTimeout time.Duration
}

// NewOperationService constructs an OperationService with a sane default
// asset-deletion timeout.
func NewOperationService(db *gorm.DB, ledger *LedgerService, assets AssetRemover) *OperationService {
	return &OperationService{
		DB:           db,
		Ledger:       ledger,
		Assets:       assets,
		AssetTimeout: 30 * time.Second,
	}
}

// Charge executes the transformation-charge protocol for userID:
//
//  1. Re-validate the balance against the kind's cost; a shortfall fails
//     with ErrInsufficientCredits before any mutation.
//  2. Persist the operation record.
//  3. Debit the ledger by the kind's cost.
//
// Steps 2 and 3 run inside one database transaction, so a debit that
// loses a concurrent race (the advisory check passed but the guarded
// decrement found too few credits) rolls the record back and surfaces
// ErrInsufficientCredits; the store never keeps a record it did not
// charge for. Any other debit failure also rolls back and is surfaced
// wrapped in ErrPartialFailure for operational alerting.
//
// On success it returns the created record (with CreditsUsed populated)
// and the new balance.
func (s *OperationService) Charge(ctx context.Context, userID string, p ChargeParams) (*domain.Operation, int, error) {
	if !p.Kind.Valid() {
		return nil, 0, ErrUnknownOperation
	}
	cost := p.Kind.Credits()

	enough, err := s.Ledger.CheckSufficientBalance(ctx, userID, cost)
	if err != nil {
		return nil, 0, err
	}
	if !enough {
		return nil, 0, ErrInsufficientCredits
	}

	op := repo.NewOperation(userID, p.Kind,
		p.OriginalAssetID, p.OriginalURL,
		p.GeneratedAssetID, p.GeneratedURL,
		p.Metadata)

	var newBalance int
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateOperation(ctx, tx, op); err != nil {
			return err
		}
		balance, err := s.Ledger.withDB(tx).Debit(ctx, userID, cost)
		if err != nil {
			if errors.Is(err, ErrInsufficientCredits) {
				return err
			}
			// The record insert succeeded but the debit did not. The
			// rollback keeps the store consistent; flag the case for
			// operators, never retry automatically.
			log.Error().Err(err).
				Str("user_id", userID).
				Str("operation_id", op.ID).
				Str("kind", string(p.Kind)).
				Msg("charge debit failed after record create")
			return errors.Join(ErrPartialFailure, err)
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	op.CreditsUsed = cost
	return op, newBalance, nil
}

// PageInfo carries pagination metadata for operation listings.
type PageInfo struct {
	Total        int64 `json:"total"`
	PerPage      int   `json:"per_page"`
	CurrentPage  int   `json:"current_page"`
	LastPage     int   `json:"last_page"`
	HasMorePages bool  `json:"has_more_pages"`
}

// ListPage returns one page of the user's operations, newest first, plus
// pagination metadata. page defaults to 1 and perPage to 10 when out of
// range; perPage is capped at 50. Every returned record has CreditsUsed
// computed from the static cost table.
func (s *OperationService) ListPage(ctx context.Context, userID string, page, perPage int) ([]domain.Operation, PageInfo, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	total, err := repo.CountOperations(ctx, s.DB, userID)
	if err != nil {
		return nil, PageInfo{}, err
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	info := PageInfo{
		Total:        total,
		PerPage:      perPage,
		CurrentPage:  page,
		LastPage:     lastPage,
		HasMorePages: page < lastPage,
	}

	if total == 0 {
		return []domain.Operation{}, info, nil
	}

	items, err := repo.ListOperationsPage(ctx, s.DB, userID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, PageInfo{}, err
	}
	for i := range items {
		items[i].CreditsUsed = items[i].Kind.Credits()
	}
	return items, info, nil
}

// Get returns a single operation owned by userID, with CreditsUsed
// populated, or ErrOperationNotFound. A record owned by someone else is
// indistinguishable from a missing one.
func (s *OperationService) Get(ctx context.Context, userID, id string) (*domain.Operation, error) {
	op, err := repo.GetOperation(ctx, s.DB, id, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOperationNotFound
		}
		return nil, err
	}
	op.CreditsUsed = op.Kind.Credits()
	return op, nil
}

// Delete removes an operation owned by userID and schedules best-effort
// deletion of the two remote image assets it references. The remote
// cleanup runs in the background, never blocks the response, and its
// failures are only logged. Returns ErrOperationNotFound under the same
// ownership rule as Get.
func (s *OperationService) Delete(ctx context.Context, userID, id string) error {
	op, err := repo.DeleteOperation(ctx, s.DB, id, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrOperationNotFound
		}
		return err
	}

	if s.Assets != nil {
		go s.removeAssets(op)
	}
	return nil
}

// removeAssets deletes the original and generated remote assets of op,
// each under its own timeout. Failures are logged and swallowed.
func (s *OperationService) removeAssets(op *domain.Operation) {
	for _, assetID := range []string{op.OriginalAssetID, op.GeneratedAssetID} {
		if assetID == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.AssetTimeout)
		if err := s.Assets.Remove(ctx, assetID); err != nil {
			log.Error().Err(err).
				Str("operation_id", op.ID).
				Str("asset_id", assetID).
				Msg("failed to delete remote asset")
		}
		cancel()
	}
}
