package stripewebhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	appbilling "siteaudit-api/internal/app/billing"
	apperrors "siteaudit-api/internal/shared/errors"
)

type stubService struct {
	payload   string
	signature string
	res       appbilling.NotificationResult
	err       error
}

func (s *stubService) HandleNotification(_ context.Context, payload []byte, signature string) (appbilling.NotificationResult, error) {
	s.payload, s.signature = string(payload), signature
	return s.res, s.err
}

func serve(svc Service, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook", NewHandler(svc).StripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStripeWebhook(t *testing.T) {
	t.Run("processed", func(t *testing.T) {
		svc := &stubService{res: appbilling.NotificationResult{Processed: true}}
		w := serve(svc, `{"id":"evt_1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true,"processed":true,"duplicate":false}`, w.Body.String())
		assert.Equal(t, `{"id":"evt_1"}`, svc.payload)
		assert.Equal(t, "t=1,v1=abc", svc.signature)
	})

	t.Run("handling failure is still acknowledged", func(t *testing.T) {
		w := serve(&stubService{}, `{}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true,"processed":false,"duplicate":false}`, w.Body.String())
	})

	t.Run("bad signature", func(t *testing.T) {
		w := serve(&stubService{err: apperrors.NewUnauthorizedError("invalid notification signature")}, `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		w := serve(&stubService{}, strings.Repeat("a", maxPayloadBytes+1))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
