package billing

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appbilling "siteaudit-api/internal/app/billing"
	"siteaudit-api/internal/domain/access"
	apperrors "siteaudit-api/internal/shared/errors"
)

type Service interface {
	StartCheckout(ctx context.Context, req appbilling.CheckoutRequest, callerID uint) (*appbilling.CheckoutResult, error)
	VerifySession(ctx context.Context, sessionID string, callerID uint) (*appbilling.VerifyResult, error)
	ResolveEntitlements(ctx context.Context, userID uint) (access.EntitlementView, error)
	SyncSubscription(ctx context.Context, userID uint) (access.EntitlementView, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// callerID is 0 for anonymous requests.
func callerID(c *gin.Context) uint {
	return c.GetUint("user_id")
}

func respondError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	body := gin.H{"error": appErr.Message, "type": appErr.Type}
	// Details of server-side failures stay in the log.
	if len(appErr.Details) > 0 && appErr.Code < http.StatusInternalServerError {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.Code, body)
}
