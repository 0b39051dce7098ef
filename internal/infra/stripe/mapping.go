package stripe

import (
	"time"

	stripeapi "github.com/stripe/stripe-go/v75"

	app "siteaudit-api/internal/app/billing"
	"siteaudit-api/internal/domain/plans"
)

func sessionFromStripe(s *stripeapi.CheckoutSession) (app.Session, error) {
	out := app.Session{
		ID:            s.ID,
		Mode:          string(s.Mode),
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}
	if s.Created > 0 {
		out.Created = time.Unix(s.Created, 0).UTC()
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}

	meta, err := app.ParsePurchaseMeta(s.Metadata, s.ClientReferenceID)
	if err != nil {
		return out, err
	}
	if meta.PurchaseType == "" && out.Mode == app.ModeSubscription {
		meta.PurchaseType = app.PurchaseSubscription
	}
	out.Meta = meta
	return out, nil
}

func subscriptionFromStripe(s *stripeapi.Subscription) app.Subscription {
	out := app.Subscription{
		ID:                s.ID,
		Status:            NormalizeStatus(string(s.Status)),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		Interval:          plans.IntervalMonth,
	}
	if s.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(s.CurrentPeriodEnd, 0).UTC()
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil {
		for _, item := range s.Items.Data {
			if item.Price != nil && item.Price.Recurring != nil {
				out.Interval = plans.NormalizeInterval(string(item.Price.Recurring.Interval))
				break
			}
		}
	}
	// A malformed user id is treated as missing; attribution falls back to stored refs.
	if uid, err := app.ParseUserID(s.Metadata["user_id"]); err == nil {
		out.UserID = uid
	}
	return out
}
