package billing

import (
	"context"

	"siteaudit-api/internal/domain/access"
	"siteaudit-api/internal/domain/billing"
)

// SyncSubscription pulls the user's subscriptions from the processor and applies the
// best one. It repairs state when notifications were missed.
func (s *Service) SyncSubscription(ctx context.Context, userID uint) (access.EntitlementView, error) {
	rec, err := s.store.GetUserBilling(ctx, userID)
	if err != nil {
		return access.EntitlementView{}, err
	}
	if rec.StripeCustomerID == nil || *rec.StripeCustomerID == "" {
		return s.ResolveEntitlements(ctx, userID)
	}

	subs, err := s.processor.ListSubscriptions(ctx, *rec.StripeCustomerID)
	if err != nil {
		return access.EntitlementView{}, externalError("list subscriptions", err)
	}

	if best, ok := pickSubscription(subs); ok {
		if best.CustomerID == "" {
			best.CustomerID = *rec.StripeCustomerID
		}
		// The stored record owns this customer, so its user id wins over metadata.
		best.UserID = userID
		if err := s.applySubscription(ctx, best, userID); err != nil {
			return access.EntitlementView{}, err
		}
	}

	return s.ResolveEntitlements(ctx, userID)
}

// pickSubscription prefers live subscriptions, then the latest period end.
func pickSubscription(subs []Subscription) (Subscription, bool) {
	var (
		best  Subscription
		found bool
	)
	for _, sub := range subs {
		if !found {
			best, found = sub, true
			continue
		}
		bestLive, live := billing.IsLiveStatus(best.Status), billing.IsLiveStatus(sub.Status)
		switch {
		case live && !bestLive:
			best = sub
		case live == bestLive && sub.CurrentPeriodEnd.After(best.CurrentPeriodEnd):
			best = sub
		}
	}
	return best, found
}
