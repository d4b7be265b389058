// Credit HTTP handlers.
//
// This file exposes the read-only credit endpoints:
//   - GET /credits        (current balance)
//   - GET /credits/costs  (static kind -> cost table)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shemnduati/AiImageApp/internal/domain"
)

// GetCredits godoc
// @ID          getCredits
// @Summary     Current credit balance
// @Tags        Credits
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"
//
// @Success     200  {object}  map[string]int
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /credits [get]
func (h *Handlers) GetCredits(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	balance, err := h.ledger.Balance(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		return
	}
	ok(c, http.StatusOK, gin.H{"credits": balance})
}

// GetCreditCosts godoc
// @ID          getCreditCosts
// @Summary     Credit cost per operation kind
// @Description Returns the static pricing table used to authorize and charge operations.
// @Tags        Credits
// @Produce     json
//
// @Success     200  {object}  map[string]int
// @Router      /credits/costs [get]
func (h *Handlers) GetCreditCosts(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"credit_costs": domain.CreditCosts()})
}
