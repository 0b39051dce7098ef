package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v75"

	app "siteaudit-api/internal/app/billing"
	apperrors "siteaudit-api/internal/shared/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
		URL:               stripeapi.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelNull},
	})
	return NewClient("sk_test_123", testWebhookSecret, &stripeapi.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestClient_CreateCheckoutSessionSendsPlaceholderAndMetadata(t *testing.T) {
	var form map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	})

	created, err := c.CreateCheckoutSession(context.Background(), app.CheckoutSessionParams{
		Mode:              app.ModeSubscription,
		PriceID:           "price_month",
		CustomerID:        "cus_1",
		ClientReferenceID: "7",
		SuccessURL:        "https://app.example.com/billing?checkout=success&session_id=" + app.SessionIDPlaceholder,
		CancelURL:         "https://app.example.com/billing?checkout=canceled",
		Metadata:          map[string]string{"user_id": "7", "purchase_type": "subscription"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", created.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", created.URL)

	assert.True(t, strings.HasSuffix(form["success_url"], "session_id={CHECKOUT_SESSION_ID}"), form["success_url"])
	assert.Equal(t, "subscription", form["mode"])
	assert.Equal(t, "price_month", form["line_items[0][price]"])
	assert.Equal(t, "cus_1", form["customer"])
	assert.Equal(t, "7", form["client_reference_id"])
	assert.Equal(t, "7", form["metadata[user_id]"])
	assert.Equal(t, "7", form["subscription_data[metadata][user_id]"])
}

func TestClient_GetSubscription(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions/sub_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"sub_1","object":"subscription","status":"trialing","customer":"cus_1",
			"current_period_end":1767312000,"cancel_at_period_end":true,
			"items":{"object":"list","data":[{"id":"si_1","object":"subscription_item","price":{"id":"p","object":"price","recurring":{"interval":"year"}}}]}}`))
	})

	sub, err := c.GetSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "trialing", sub.Status)
	assert.Equal(t, "year", sub.Interval)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, uint(0), sub.UserID)
}

func TestClient_NotFoundMapsToAppError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such checkout.session: cs_missing"}}`))
	})

	_, err := c.GetSession(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestClient_ServerErrorMapsToExternal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	})

	err := c.SetCancelAtPeriodEnd(context.Background(), "sub_1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternalService))
}
