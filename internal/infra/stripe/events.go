package stripe

import (
	"encoding/json"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"

	app "siteaudit-api/internal/app/billing"
)

// ParseEvent verifies the Stripe-Signature header and decodes the event into a
// notification variant. Bodies that verify but do not decode become Malformed.
func (c *Client) ParseEvent(payload []byte, signature string) (*app.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", app.ErrInvalidSignature, err)
	}
	return decodeEvent(event), nil
}

func decodeEvent(event stripeapi.Event) *app.Event {
	out := &app.Event{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		out.Notification = app.Malformed{Err: fmt.Errorf("event %s has no data", event.ID)}
		return out
	}
	raw := event.Data.Raw

	switch out.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var s stripeapi.CheckoutSession
		if err := json.Unmarshal(raw, &s); err != nil {
			out.Notification = app.Malformed{Err: err}
			return out
		}
		sess, err := sessionFromStripe(&s)
		if err != nil {
			out.Notification = app.Malformed{Err: err}
			return out
		}
		out.Notification = app.CheckoutCompleted{Session: sess}

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var s stripeapi.Subscription
		if err := json.Unmarshal(raw, &s); err != nil {
			out.Notification = app.Malformed{Err: err}
			return out
		}
		sub := subscriptionFromStripe(&s)
		if out.Type == "customer.subscription.deleted" {
			out.Notification = app.SubscriptionDeleted{Subscription: sub}
		} else {
			out.Notification = app.SubscriptionChanged{
				Subscription: sub,
				Created:      out.Type == "customer.subscription.created",
			}
		}

	case "invoice.paid", "invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripeapi.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			out.Notification = app.Malformed{Err: err}
			return out
		}
		var subID, customerID string
		if inv.Subscription != nil {
			subID = inv.Subscription.ID
		}
		if inv.Customer != nil {
			customerID = inv.Customer.ID
		}
		if out.Type == "invoice.payment_failed" {
			out.Notification = app.InvoicePaymentFailed{
				InvoiceID:      inv.ID,
				SubscriptionID: subID,
				CustomerID:     customerID,
				AttemptCount:   inv.AttemptCount,
			}
		} else {
			out.Notification = app.InvoicePaid{InvoiceID: inv.ID, SubscriptionID: subID, CustomerID: customerID}
		}

	default:
		out.Notification = app.Unrecognized{}
	}
	return out
}
