// Payment HTTP handlers.
//
// This file exposes the credit purchase endpoints:
//   - POST /payments/intent   (open a payment intent, persist pending tx)
//   - POST /payments/success  (confirmation callback; idempotent)
//
// The success endpoint may be invoked by the gateway webhook or by the
// client confirmation call, any number of times; only the first delivery
// for a given payment intent credits the balance.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shemnduati/AiImageApp/internal/services"
)

// CreateIntentRequest is the JSON payload initiating a credit purchase.
type CreateIntentRequest struct {
	Credits int     `json:"credits" binding:"required" example:"50"`
	Price   float64 `json:"price"   example:"9.99"`
}

// CreateIntentResponse carries the gateway tokens the mobile payment
// sheet needs, plus the intent id the client echoes back on confirmation.
type CreateIntentResponse struct {
	PaymentIntent   string `json:"paymentIntent"`
	EphemeralKey    string `json:"ephemeralKey"`
	Customer        string `json:"customer"`
	PublishableKey  string `json:"publishableKey"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// PaymentSuccessRequest is the JSON payload of the confirmation callback.
type PaymentSuccessRequest struct {
	PaymentIntentID string `json:"payment_intent" binding:"required" example:"pi_3OaXYZ"`
}

// PaymentSuccessResponse reports the credited balance after a completed
// purchase.
type PaymentSuccessResponse struct {
	Success      bool `json:"success"`
	Credits      int  `json:"credits"`
	CreditsAdded int  `json:"credits_added"`
}

// CreatePaymentIntent godoc
// @ID          createPaymentIntent
// @Summary     Start a credit purchase
// @Description Opens a payment intent at the gateway and records a pending transaction.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID       header  string  true  "User ID"
// @Param       Stripe-Version  header  string  false "Gateway API version for the ephemeral key"
// @Param       body            body    handlers.CreateIntentRequest  true  "Purchase payload"
//
// @Success     201  {object}  handlers.CreateIntentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /payments/intent [post]
func (h *Handlers) CreatePaymentIntent(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	_, intent, err := h.billSvc.CreateIntent(c.Request.Context(), uid, req.Credits, req.Price, c.GetHeader("Stripe-Version"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCreditsAmount),
			errors.Is(err, services.ErrInvalidAmountPaid):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodePaymentFailed, "could not start the purchase")
		}
		return
	}

	ok(c, http.StatusCreated, CreateIntentResponse{
		PaymentIntent:   intent.ClientSecret,
		EphemeralKey:    intent.EphemeralKey,
		Customer:        intent.CustomerID,
		PublishableKey:  intent.PublishableKey,
		PaymentIntentID: intent.ID,
	})
}

// PaymentSuccess godoc
// @ID          paymentSuccess
// @Summary     Complete a credit purchase
// @Description Marks the pending transaction completed and credits the balance exactly once. Safe to redeliver: an unknown or already completed intent yields 404 and no credit.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.PaymentSuccessRequest  true  "Confirmed payment intent"
//
// @Success     200  {object}  handlers.PaymentSuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /payments/success [post]
func (h *Handlers) PaymentSuccess(c *gin.Context) {
	var req PaymentSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "payment_intent required")
		return
	}

	balance, added, err := h.billSvc.CompletePayment(c.Request.Context(), req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "transaction not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodePaymentFailed, "could not complete the purchase")
		return
	}

	ok(c, http.StatusOK, PaymentSuccessResponse{
		Success:      true,
		Credits:      balance,
		CreditsAdded: added,
	})
}
