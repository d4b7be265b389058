package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shemnduati/AiImageApp/internal/domain"
	"github.com/shemnduati/AiImageApp/internal/payments"
	"github.com/shemnduati/AiImageApp/internal/repo"
	"github.com/shemnduati/AiImageApp/internal/services"
)

// ---------- test DB + router ----------

func newHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Operation{}, &domain.Transaction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubGateway answers CreateIntent with a canned intent; see billing
// service tests for param capture.
type stubGateway struct {
	err error
}

func (g stubGateway) CreateIntent(ctx context.Context, p payments.CreateIntentParams) (*payments.Intent, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &payments.Intent{
		ID:             "pi_handler",
		ClientSecret:   "pi_handler_secret",
		CustomerID:     "cus_handler",
		EphemeralKey:   "ek_handler",
		PublishableKey: "pk_handler",
	}, nil
}

func newTestRouter(t *testing.T, db *gorm.DB, gw payments.Gateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := &services.LedgerService{DB: db}
	opSvc := services.NewOperationService(db, ledger, nil)
	billSvc := services.NewBillingService(db, ledger, gw)
	h := New(opSvc, billSvc, ledger)

	r := gin.New()
	r.POST("/operations", h.ChargeOperation)
	r.GET("/operations", h.ListOperations)
	r.GET("/operations/:id", h.GetOperation)
	r.DELETE("/operations/:id", h.DeleteOperation)
	r.GET("/credits", h.GetCredits)
	r.GET("/credits/costs", h.GetCreditCosts)
	r.POST("/payments/intent", h.CreatePaymentIntent)
	r.POST("/payments/success", h.PaymentSuccess)
	return r
}

func seedHandlerUser(t *testing.T, db *gorm.DB, credits int) *domain.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, "Handler User", fmt.Sprintf("h%d@example.com", time.Now().UnixNano()), credits)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func doJSON(t *testing.T, r *gin.Engine, method, path, userID string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func chargeBody(kind string) map[string]any {
	return map[string]any{
		"operation_type": kind,
		"original_image": map[string]string{
			"public_id": "orig/img1",
			"url":       "https://cdn.example.com/orig/img1",
		},
		"generated_image": map[string]string{
			"public_id": "gen/img1",
			"url":       "https://cdn.example.com/gen/img1",
		},
		"operation_metadata": map[string]string{"aspect_ratio": "16:9"},
	}
}

// ---------- charge ----------

func TestChargeOperation_Unauthorized(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(t, db, stubGateway{})

	w := doJSON(t, r, http.MethodPost, "/operations", "", chargeBody("restore"), nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestChargeOperation_BadPayloads(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(t, db, stubGateway{})
	u := seedHandlerUser(t, db, 10)

	// Broken JSON
	req := httptest.NewRequest(http.MethodPost, "/operations", bytes.NewBufferString("{nope"))
	req.Header.Set("X-User-ID", u.ID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("broken JSON status = %d, want 400", w.Code)
	}

	// Unknown kind
	w = doJSON(t, r, http.MethodPost, "/operations", u.ID, chargeBody("upscale"), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status = %d, want 400", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeBadRequest {
		t.Fatalf("unexpected error envelope: %s", w.Body.String())
	}
}

func TestChargeOperation_InsufficientCredits(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(t, db, stubGateway{})
	u := seedHandlerUser(t, db, 1) // generative_fill costs 3

	w := doJSON(t, r, http.MethodPost, "/operations", u.ID, chargeBody("generative_fill"), nil)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402; body=%s", w.Code, w.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if er.Code != ErrCodeInsufficientCredits {
		t.Fatalf("code = %q, want %q", er.Code, ErrCodeInsufficientCredits)
	}
	if er.Message != "this operation requires 3 credits, you have 1" {
		t.Fatalf("unexpected message: %q", er.Message)
	}
}

func TestChargeOperation_Success(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(t, db, stubGateway{})
	u := seedHandlerUser(t, db, 5)

	w := doJSON(t, r, http.MethodPost, "/operations", u.ID, chargeBody("generative_fill"), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", w.Code, w.Body.String())
	}

	var resp ChargeOperationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Credits != 2 {
		t.Fatalf("credits after charge = %d, want 2", resp.Credits)
	}
	if resp.Operation == nil || resp.Operation.CreditsUsed != 3 || resp.Operation.Kind != domain.KindGenerativeFill {
		t.Fatalf("unexpected operation: %+v", resp.Operation)
	}
}

// ---------- list ----------

func TestListOperations_PaginationAndETag(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(t, db, stubGateway{})
	u := seedHandlerUser(t, db, 100)

	for i := 0; i < 4; i++ {
		w := doJSON(t, r, http.MethodPost, "/operations", u.ID, chargeBody("recolor"), nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("seed charge %d: %d", i, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/operations?page=1&per_page=3", u.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag header")
	}

	var resp ListOperationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Operations) != 3 {
		t.Fatalf("page size = %d, want 3", len(resp.Operations))
	}
	p := resp.Pagination
	if p.Total != 4 || p.PerPage != 3 || p.CurrentPage != 1 || p.LastPage != 2 || !p.HasMorePages {
		t.Fatalf("unexpected pagination: %+v", p)
	}

	// Conditional revalidation short-circuits an unchanged listing.
	w = doJSON(t, r, http.MethodGet, "/operations?page=1&per_page=3", u.ID, nil, map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", w.Code)
	}
}

func TestListOperations_EmptyPage(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(t, db, stubGateway{})
	u := seedHandlerUser(t, db, 0)

	w := doJSON(t, r, http.MethodGet, "/operations", u.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp ListOperationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Operations == nil || len(resp.Operations) != 0 {
		t.Fatalf("expected empty (non-null) operations array: %s", w.Body.String())
	}
	if resp.Pagination.Total != 0 || resp.Pagination.HasMorePages {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}
}

// ---------- get / delete ----------

func TestGetOperation_Statuses(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(t, db, stubGateway{})
	u := seedHandlerUser(t, db, 5)

	w := doJSON(t, r, http.MethodPost, "/operations", u.ID, chargeBody("restore"), nil)
	var created ChargeOperationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode charge: %v", err)
	}

	// Malformed id
	w = doJSON(t, r, http.MethodGet, "/operations/not-a-uuid", u.ID, nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", w.Code)
	}

	// Unknown id
	w = doJSON(t, r, http.MethodGet, "/operations/"+uuid.NewString(), u.ID, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing id status = %d, want 404", w.Code)
	}

	// Found
	w = doJSON(t, r, http.MethodGet, "/operations/"+created.Operation.ID, u.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Operation domain.Operation `json:"operation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Operation.ID != created.Operation.ID || body.Operation.CreditsUsed != 2 {
		t.Fatalf("unexpected operation: %+v", body.Operation)
	}
}

func TestDeleteOperation_Statuses(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(t, db, stubGateway{})
	u := seedHandlerUser(t, db, 5)

	w := doJSON(t, r, http.MethodPost, "/operations", u.ID, chargeBody("recolor"), nil)
	var created ChargeOperationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode charge: %v", err)
	}

	w = doJSON(t, r, http.MethodDelete, "/operations/"+created.Operation.ID, u.ID, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	// Gone now.
	w = doJSON(t, r, http.MethodDelete, "/operations/"+created.Operation.ID, u.ID, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/operations/"+created.Operation.ID, u.ID, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", w.Code)
	}
}

// ---------- helpers ----------

func Test_userID_Sources(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := userID(c); got != "" {
		t.Fatalf("empty context should yield empty id, got %q", got)
	}

	c.Request.Header.Set("X-User-ID", "  header-user  ")
	if got := userID(c); got != "header-user" {
		t.Fatalf("header fallback = %q", got)
	}

	c.Set("userID", "ctx-user")
	if got := userID(c); got != "ctx-user" {
		t.Fatalf("context value must win, got %q", got)
	}

	c.Set("userID", 42) // wrong type falls through to the header
	if got := userID(c); got != "header-user" {
		t.Fatalf("wrong-type fallback = %q", got)
	}
}
