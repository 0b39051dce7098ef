package stripewebhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appbilling "siteaudit-api/internal/app/billing"
	apperrors "siteaudit-api/internal/shared/errors"
)

const maxPayloadBytes = 65536

type Service interface {
	HandleNotification(ctx context.Context, payload []byte, signature string) (appbilling.NotificationResult, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// StripeWebhook answers 200 for every authenticated notification, processed or not,
// so redelivery stays under the processor's normal schedule.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, maxPayloadBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	res, err := h.svc.HandleNotification(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": "Signature verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received":  true,
		"processed": res.Processed,
		"duplicate": res.Duplicate,
	})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
