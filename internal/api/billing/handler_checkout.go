package billing

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	appbilling "siteaudit-api/internal/app/billing"
)

// CreateCheckoutSession starts a hosted checkout for the caller, who may be anonymous.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req appbilling.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	res, err := h.svc.StartCheckout(c.Request.Context(), req, callerID(c))
	if err != nil {
		slog.Warn("checkout failed", "request_id", c.GetString("request_id"), "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// VerifyCheckout confirms a session on the caller's return from checkout.
func (h *Handler) VerifyCheckout(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	res, err := h.svc.VerifySession(c.Request.Context(), sessionID, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
