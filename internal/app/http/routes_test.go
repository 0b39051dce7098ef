package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75/webhook"

	"siteaudit-api/database"
	billingapi "siteaudit-api/internal/api/billing"
	plansapi "siteaudit-api/internal/api/plans"
	stripewebhooks "siteaudit-api/internal/api/stripewebhook"
	appbilling "siteaudit-api/internal/app/billing"
	"siteaudit-api/internal/infra/repository"
	"siteaudit-api/internal/infra/stripe"
	"siteaudit-api/internal/shared/logger"
)

const (
	jwtSecret     = "routes-secret"
	webhookSecret = "whsec_routes"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc := appbilling.NewService(
		repository.NewBillingStore(db),
		repository.NewNotificationLedger(db),
		stripe.NewClient("sk_test_unused", webhookSecret, nil),
		logger.Discard(),
		appbilling.Options{AllowedReturnHosts: []string{"app.example.com"}},
	)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, Deps{
		Billing:   billingapi.NewHandler(svc),
		Plans:     plansapi.NewHandler(appbilling.Catalog{}),
		Webhook:   stripewebhooks.NewHandler(svc),
		Export:    svc,
		JWTSecret: jwtSecret,
	})
	return r
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func postWebhook(r http.Handler, payload string, sign bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	if sign {
		sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload:   []byte(payload),
			Secret:    webhookSecret,
			Timestamp: time.Now(),
		})
		req.Header.Set("Stripe-Signature", sp.Header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func exportAccess(r http.Handler, authHeader, reportID string) int {
	req := httptest.NewRequest(http.MethodGet, "/reports/"+reportID+"/export-access", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestReportPurchaseUnlocksExport(t *testing.T) {
	r := newEngine(t)
	auth := bearer(t, 17)

	assert.Equal(t, http.StatusPaymentRequired, exportAccess(r, auth, "seo_77"))

	payload := `{
		"id": "evt_route_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_route_1",
			"object": "checkout.session",
			"mode": "payment",
			"status": "complete",
			"payment_status": "paid",
			"created": 1767225600,
			"metadata": {"user_id": "17", "purchase_type": "single_report", "report_id": "seo_77"}
		}}
	}`

	w := postWebhook(r, payload, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"processed":true,"duplicate":false}`, w.Body.String())

	w = postWebhook(r, payload, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"processed":true,"duplicate":true}`, w.Body.String())

	assert.Equal(t, http.StatusOK, exportAccess(r, auth, "seo_77"))
	assert.Equal(t, http.StatusPaymentRequired, exportAccess(r, bearer(t, 18), "seo_77"))
	assert.Equal(t, http.StatusUnauthorized, exportAccess(r, "", "seo_77"))

	req := httptest.NewRequest(http.MethodGet, "/billing/entitlements", nil)
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seo_77"`)
}

func TestWebhookRejectsUnsignedPayload(t *testing.T) {
	r := newEngine(t)
	w := postWebhook(r, `{"id":"evt_x","object":"event","type":"invoice.paid","data":{"object":{}}}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckoutValidationOverHTTP(t *testing.T) {
	r := newEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/billing/checkout",
		strings.NewReader(`{"purchase_type":"subscription","interval":"month","return_url":"https://app.example.com/"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code, "anonymous subscription")

	req = httptest.NewRequest(http.MethodPost, "/billing/checkout",
		strings.NewReader(`{"purchase_type":"single_report","report_id":"r1","return_url":"https://evil.example/"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r := newEngine(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
