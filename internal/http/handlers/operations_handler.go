// Operation HTTP handlers.
//
// This file exposes REST endpoints for the operation history:
//   - POST   /operations       (charge for a completed transformation)
//   - GET    /operations       (list, paginated, ETag support)
//   - GET    /operations/{id}  (single lookup)
//   - DELETE /operations/{id}  (delete + remote asset cleanup)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shemnduati/AiImageApp/internal/domain"
	"github.com/shemnduati/AiImageApp/internal/payments"
	"github.com/shemnduati/AiImageApp/internal/repo"
	"github.com/shemnduati/AiImageApp/internal/services"
	"github.com/shemnduati/AiImageApp/internal/utils"
)

//
// Service contracts (context-aware)
//

// OperationService defines the operation accounting use-cases consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type OperationService interface {
	// Charge records a completed transformation and debits its cost.
	Charge(ctx context.Context, userID string, p services.ChargeParams) (*domain.Operation, int, error)
	// ListPage returns a page of the user's operations plus pagination info.
	ListPage(ctx context.Context, userID string, page, perPage int) ([]domain.Operation, services.PageInfo, error)
	// Get returns a single operation owned by the user.
	Get(ctx context.Context, userID, id string) (*domain.Operation, error)
	// Delete removes an operation owned by the user.
	Delete(ctx context.Context, userID, id string) error
}

// BillingService defines the credit purchase use-cases consumed by HTTP
// handlers.
type BillingService interface {
	// CreateIntent opens a payment intent and a pending transaction.
	CreateIntent(ctx context.Context, userID string, credits int, price float64, apiVersion string) (*domain.Transaction, *payments.Intent, error)
	// CompletePayment applies a confirmed payment exactly once.
	CompletePayment(ctx context.Context, paymentIntentID string) (newBalance, creditsAdded int, err error)
}

// LedgerService exposes balance reads to the HTTP layer.
type LedgerService interface {
	// Balance returns the user's current credit balance.
	Balance(ctx context.Context, userID string) (int, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for operations, credits, and payments.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	opSvc   OperationService
	billSvc BillingService
	ledger  LedgerService
}

// New constructs and returns a Handlers instance bound to the given
// services.
func New(opSvc OperationService, billSvc BillingService, ledger LedgerService) *Handlers {
	return &Handlers{opSvc: opSvc, billSvc: billSvc, ledger: ledger}
}

// userID extracts the authenticated user id from Gin context (set by
// upstream auth middleware). If absent, it falls back to the "X-User-ID"
// header (tests use it). It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

//
// DTOs
//

// ImageRef is one stored image: the storage id used for later deletion
// and the public URL clients render.
type ImageRef struct {
	AssetID string `json:"public_id" binding:"required" example:"uploads/IMG_2024.jpg"`
	URL     string `json:"url"       binding:"required" example:"https://cdn.example.com/uploads/IMG_2024.jpg"`
}

// ChargeOperationRequest is the JSON payload recording one completed
// transformation. The request layer submits it only after the external
// transform call succeeded.
type ChargeOperationRequest struct {
	Kind      string            `json:"operation_type" binding:"required" example:"generative_fill"`
	Original  ImageRef          `json:"original_image" binding:"required"`
	Generated ImageRef          `json:"generated_image" binding:"required"`
	Metadata  map[string]string `json:"operation_metadata"`
}

// ChargeOperationResponse wraps the created record and the balance after
// the debit.
type ChargeOperationResponse struct {
	Operation *domain.Operation `json:"operation"`
	Credits   int               `json:"credits"`
}

// ListOperationsResponse wraps a page of operations and pagination
// information.
type ListOperationsResponse struct {
	Operations []domain.Operation `json:"operations"`
	Pagination services.PageInfo  `json:"pagination"`
}

//
// Helpers
//

// pageParams parses page and per_page query params, deferring range
// normalization (defaults, upper bound) to the service.
func pageParams(c *gin.Context) (page, perPage int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	perPage = utils.AtoiDefault(c.Query("per_page"), 0)
	return
}

//
// Handlers
//

// ChargeOperation godoc
// @ID          chargeOperation
// @Summary     Charge for a completed transformation
// @Description Persists the operation record and debits the kind's credit cost.
// @Tags        Operations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(141add05-4415-4938-b5a1-17e0d3171aff)
// @Param       body       body    handlers.ChargeOperationRequest  true  "Charge payload"
//
// @Success     201  {object}  handlers.ChargeOperationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     402  {object}  handlers.ErrorResponse  "Insufficient credits"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /operations [post]
func (h *Handlers) ChargeOperation(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	var req ChargeOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	kind, err := domain.ParseOperationKind(req.Kind)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	op, balance, err := h.opSvc.Charge(c.Request.Context(), uid, services.ChargeParams{
		Kind:             kind,
		OriginalAssetID:  req.Original.AssetID,
		OriginalURL:      req.Original.URL,
		GeneratedAssetID: req.Generated.AssetID,
		GeneratedURL:     req.Generated.URL,
		Metadata:         req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientCredits):
			msg := fmt.Sprintf("this operation requires %d credits", kind.Credits())
			if have, berr := h.ledger.Balance(c.Request.Context(), uid); berr == nil {
				msg = fmt.Sprintf("this operation requires %d credits, you have %d", kind.Credits(), have)
			}
			fail(c, http.StatusPaymentRequired, ErrCodeInsufficientCredits, msg)
		case errors.Is(err, services.ErrUnknownOperation):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeChargeFailed, "could not process the operation")
		}
		return
	}

	ok(c, http.StatusCreated, ChargeOperationResponse{Operation: op, Credits: balance})
}

// ListOperations godoc
// @ID          listOperations
// @Summary     List operations (paginated)
// @Description Returns a page of the user's operations, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Operations
// @Produce     json
//
// @Param       X-User-ID      header  string  true  "User ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"      minimum(1) default(1)
// @Param       per_page       query   int     false "Items per page"   minimum(1) maximum(50) default(10)
//
// @Success     200  {object} handlers.ListOperationsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /operations [get]
func (h *Handlers) ListOperations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	page, perPage := pageParams(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.opSvc.(*services.OperationService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.OperationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"operations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, info, err := h.opSvc.ListPage(ctx, uid, page, perPage)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list operations")
		return
	}

	ok(c, http.StatusOK, ListOperationsResponse{Operations: items, Pagination: info})
}

// GetOperation godoc
// @ID          getOperation
// @Summary     Get one operation
// @Description Returns a single operation owned by the current user.
// @Tags        Operations
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"
// @Param       id         path    string  true  "Operation ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Operation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Operation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /operations/{id} [get]
func (h *Handlers) GetOperation(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "operation id must be a UUID")
		return
	}

	op, err := h.opSvc.Get(c.Request.Context(), uid, id)
	if err != nil {
		if errors.Is(err, services.ErrOperationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "operation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load operation")
		return
	}

	ok(c, http.StatusOK, gin.H{"operation": op})
}

// DeleteOperation godoc
// @ID          deleteOperation
// @Summary     Delete an operation
// @Description Removes the record and schedules best-effort deletion of its remote image assets.
// @Tags        Operations
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"
// @Param       id         path    string  true  "Operation ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Operation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /operations/{id} [delete]
func (h *Handlers) DeleteOperation(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "operation id must be a UUID")
		return
	}

	if err := h.opSvc.Delete(c.Request.Context(), uid, id); err != nil {
		if errors.Is(err, services.ErrOperationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "operation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete operation")
		return
	}

	noContent(c)
}
