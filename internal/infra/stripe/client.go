package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"

	app "siteaudit-api/internal/app/billing"
	apperrors "siteaudit-api/internal/shared/errors"
)

// Client implements the billing Processor port on top of the Stripe API.
type Client struct {
	api           *client.API
	webhookSecret string
}

// NewClient builds a client with its own key. backends may be nil.
func NewClient(secretKey, webhookSecret string, backends *stripeapi.Backends) *Client {
	return &Client{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

func (c *Client) CreateCustomer(ctx context.Context, userID uint) (string, error) {
	params := &stripeapi.CustomerParams{
		Metadata: map[string]string{"user_id": strconv.FormatUint(uint64(userID), 10)},
	}
	params.Context = ctx

	cus, err := c.api.Customers.New(params)
	if err != nil {
		return "", mapError("create customer", err)
	}
	return cus.ID, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, p app.CheckoutSessionParams) (*app.CreatedSession, error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode:       stripeapi.String(p.Mode),
		SuccessURL: stripeapi.String(p.SuccessURL),
		CancelURL:  stripeapi.String(p.CancelURL),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(p.PriceID),
				Quantity: stripeapi.Int64(1),
			},
		},
	}
	params.Context = ctx

	if p.CustomerID != "" {
		params.Customer = stripeapi.String(p.CustomerID)
	}
	if p.ClientReferenceID != "" {
		params.ClientReferenceID = stripeapi.String(p.ClientReferenceID)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	// Copy metadata onto the resulting subscription or payment so later
	// notifications can be attributed without the session.
	switch p.Mode {
	case app.ModeSubscription:
		params.SubscriptionData = &stripeapi.CheckoutSessionSubscriptionDataParams{Metadata: p.Metadata}
	case app.ModePayment:
		params.PaymentIntentData = &stripeapi.CheckoutSessionPaymentIntentDataParams{Metadata: p.Metadata}
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapError("create checkout session", err)
	}
	return &app.CreatedSession{ID: s.ID, URL: s.URL}, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*app.Session, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, mapError("get checkout session", err)
	}
	sess, err := sessionFromStripe(s)
	if err != nil {
		return nil, apperrors.NewValidationError("checkout session metadata is invalid", err.Error())
	}
	return &sess, nil
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*app.Subscription, error) {
	params := &stripeapi.SubscriptionParams{}
	params.Context = ctx

	s, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, mapError("get subscription", err)
	}
	sub := subscriptionFromStripe(s)
	return &sub, nil
}

func (c *Client) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripeapi.SubscriptionParams{CancelAtPeriodEnd: stripeapi.Bool(true)}
	params.Context = ctx

	if _, err := c.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return mapError("update subscription", err)
	}
	return nil
}

func (c *Client) ListSubscriptions(ctx context.Context, customerID string) ([]app.Subscription, error) {
	params := &stripeapi.SubscriptionListParams{
		Customer: stripeapi.String(customerID),
		Status:   stripeapi.String("all"),
	}
	params.Context = ctx

	var out []app.Subscription
	it := c.api.Subscriptions.List(params)
	for it.Next() {
		out = append(out, subscriptionFromStripe(it.Subscription()))
	}
	if err := it.Err(); err != nil {
		return nil, mapError("list subscriptions", err)
	}
	return out, nil
}

func mapError(op string, err error) error {
	var se *stripeapi.Error
	if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s: resource not found", op), se.Msg)
	}
	return apperrors.NewExternalServiceError(op+" failed", err)
}
