package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetEntitlements(c *gin.Context) {
	view, err := h.svc.ResolveEntitlements(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SyncSubscription refreshes the caller's subscription from the processor.
func (h *Handler) SyncSubscription(c *gin.Context) {
	view, err := h.svc.SyncSubscription(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
