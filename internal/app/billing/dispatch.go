package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"siteaudit-api/internal/domain/access"
	"siteaudit-api/internal/domain/billing"
	"siteaudit-api/internal/domain/plans"
	apperrors "siteaudit-api/internal/shared/errors"
)

func (s *Service) dispatch(ctx context.Context, event *Event) error {
	log := s.log.With("event_id", event.ID, "event_type", event.Type)

	switch n := event.Notification.(type) {
	case CheckoutCompleted:
		_, err := s.applySession(ctx, n.Session)
		return err

	case SubscriptionChanged:
		sub, err := s.currentSubscription(ctx, n.Subscription, log)
		if err != nil {
			return err
		}
		return s.applySubscription(ctx, sub, 0)

	case SubscriptionDeleted:
		sub, err := s.currentSubscription(ctx, n.Subscription, log)
		if err != nil {
			return err
		}
		// Deletion is final whatever the fetch returned.
		sub.Status = billing.StatusCanceled
		if !n.Subscription.CurrentPeriodEnd.IsZero() {
			sub.CurrentPeriodEnd = n.Subscription.CurrentPeriodEnd
		}
		return s.applySubscription(ctx, sub, 0)

	case InvoicePaid:
		// Subscription events carry the authoritative state; this is a best-effort refresh.
		if err := s.resyncFromInvoice(ctx, n); err != nil {
			log.Warn("invoice resync failed", "invoice_id", n.InvoiceID, "error", err)
		}
		return nil

	case InvoicePaymentFailed:
		log.Warn("invoice payment failed",
			"invoice_id", n.InvoiceID,
			"subscription_id", n.SubscriptionID,
			"customer_id", n.CustomerID,
			"attempt_count", n.AttemptCount)
		return nil

	case Malformed:
		return fmt.Errorf("malformed notification: %w", n.Err)

	case Unrecognized:
		log.Info("unhandled notification type")
		return nil

	default:
		return fmt.Errorf("unknown notification variant %T", n)
	}
}

// applySession materializes a paid checkout session. Both the notification path and
// session verification land here, so every write is an upsert.
func (s *Service) applySession(ctx context.Context, sess Session) (*VerifyResult, error) {
	res := &VerifyResult{
		Paid:         sess.Paid(),
		PurchaseType: string(sess.Meta.PurchaseType),
		ReportID:     sess.Meta.ReportID,
		PackID:       sess.Meta.PackID,
	}
	log := s.log.With("session_id", sess.ID, "purchase_type", sess.Meta.PurchaseType)

	if !res.Paid {
		log.Info("checkout session not paid yet", "payment_status", sess.PaymentStatus)
		return res, nil
	}

	switch sess.Mode {
	case ModeSubscription:
		res.PurchaseType = string(PurchaseSubscription)
		if sess.SubscriptionID == "" {
			return nil, apperrors.NewValidationError("subscription checkout without subscription", sess.ID)
		}
		sub, err := s.processor.GetSubscription(ctx, sess.SubscriptionID)
		if err != nil {
			return nil, externalError("get subscription", err)
		}
		if sub.CustomerID == "" {
			sub.CustomerID = sess.CustomerID
		}
		return res, s.applySubscription(ctx, *sub, sess.Meta.UserID)

	case ModePayment:
		purchasedAt := sess.Created.UTC().Truncate(time.Second)
		if purchasedAt.IsZero() {
			purchasedAt = s.now().Truncate(time.Second)
		}

		switch sess.Meta.PurchaseType {
		case PurchaseSingleReport:
			if sess.Meta.UserID != 0 {
				err := s.store.UpsertReportPurchase(ctx, &billing.ReportPurchase{
					UserID:          sess.Meta.UserID,
					ReportID:        sess.Meta.ReportID,
					StripeSessionID: sess.ID,
					PurchasedAt:     purchasedAt,
					SiteURL:         optional(sess.Meta.SiteURL),
					AnalyzerType:    optional(sess.Meta.AnalyzerType),
				})
				if err != nil {
					return nil, err
				}
				log.Info("report purchase recorded", "user_id", sess.Meta.UserID, "report_id", sess.Meta.ReportID)
				return res, nil
			}
			return res, s.recordPaidOutcome(ctx, sess, 0, purchasedAt, log)

		case PurchaseCreditPack:
			pack, ok := plans.LookupCreditPack(sess.Meta.PackID)
			if !ok {
				return nil, apperrors.NewValidationError("unknown credit pack", sess.Meta.PackID)
			}
			res.Credits = pack.Credits
			return res, s.recordPaidOutcome(ctx, sess, pack.Credits, purchasedAt, log)
		}
		return nil, apperrors.NewValidationError("payment checkout with unknown purchase type", string(sess.Meta.PurchaseType))
	}

	return nil, apperrors.NewValidationError("unsupported checkout mode", sess.Mode)
}

func (s *Service) recordPaidOutcome(ctx context.Context, sess Session, credits int, completedAt time.Time, log *slog.Logger) error {
	o := &billing.CheckoutOutcome{
		StripeSessionID: sess.ID,
		PurchaseType:    string(sess.Meta.PurchaseType),
		ReportID:        optional(sess.Meta.ReportID),
		PackID:          optional(sess.Meta.PackID),
		CreditsGranted:  credits,
		PaymentStatus:   billing.PaymentPaid,
		Mode:            sess.Mode,
		Currency:        optional(sess.Currency),
		CustomerID:      optional(sess.CustomerID),
		CompletedAt:     &completedAt,
	}
	if sess.AmountTotal > 0 {
		amount := sess.AmountTotal
		o.AmountTotal = &amount
	}
	if err := s.store.UpsertCheckoutOutcome(ctx, o); err != nil {
		return err
	}
	log.Info("checkout outcome recorded", "credits", credits)
	return nil
}

// currentSubscription re-fetches the subscription so an out-of-order payload cannot
// roll state back. The payload is used only when the processor no longer knows it.
func (s *Service) currentSubscription(ctx context.Context, payload Subscription, log *slog.Logger) (Subscription, error) {
	fetched, err := s.processor.GetSubscription(ctx, payload.ID)
	switch {
	case err == nil:
	case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		log.Warn("subscription not found at processor, applying payload", "subscription_id", payload.ID)
		return payload, nil
	default:
		return Subscription{}, externalError("get subscription", err)
	}

	sub := *fetched
	if sub.UserID == 0 {
		sub.UserID = payload.UserID
	}
	if sub.CustomerID == "" {
		sub.CustomerID = payload.CustomerID
	}
	return sub, nil
}

// applySubscription writes the subscription slice of the billing record and rebuilds
// the entitlement cache. hintUserID is used when the subscription carries no user id.
func (s *Service) applySubscription(ctx context.Context, sub Subscription, hintUserID uint) error {
	userID, err := s.attributeSubscription(ctx, sub, hintUserID)
	if err != nil {
		return err
	}
	log := s.log.With("user_id", userID, "subscription_id", sub.ID, "status", sub.Status)

	existing, err := s.store.GetUserBilling(ctx, userID)
	if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return err
	}
	if existing != nil && existing.StripeSubscriptionID != nil && *existing.StripeSubscriptionID != sub.ID &&
		billing.IsLiveStatus(existing.SubscriptionStatus) && !billing.IsLiveStatus(sub.Status) {
		log.Info("ignoring inactive subscription, user has another live subscription",
			"current_subscription_id", *existing.StripeSubscriptionID)
		return nil
	}

	now := s.now()
	var periodEnd *time.Time
	if !sub.CurrentPeriodEnd.IsZero() {
		end := sub.CurrentPeriodEnd.UTC().Truncate(time.Second)
		periodEnd = &end
	}

	state := billing.SubscriptionState{
		Plan:                 planForStatus(sub.Status, periodEnd, now),
		StripeSubscriptionID: sub.ID,
		Status:               sub.Status,
		Interval:             plans.NormalizeInterval(sub.Interval),
		CurrentPeriodEnd:     periodEnd,
	}
	if err := s.store.UpsertSubscriptionState(ctx, userID, state); err != nil {
		return err
	}
	if sub.CustomerID != "" && (existing == nil || existing.StripeCustomerID == nil) {
		if _, err := s.store.AttachCustomer(ctx, userID, sub.CustomerID); err != nil {
			log.Warn("failed to attach customer from subscription", "error", err)
		}
	}

	if err := s.refreshEntitlement(ctx, userID); err != nil {
		return err
	}
	log.Info("subscription state applied", "plan", state.Plan, "interval", state.Interval)

	s.enforceDayPass(ctx, sub, log)
	return nil
}

// enforceDayPass makes day-interval subscriptions non-renewing. Failure only delays it
// to the next subscription notification.
func (s *Service) enforceDayPass(ctx context.Context, sub Subscription, log *slog.Logger) {
	if plans.NormalizeInterval(sub.Interval) != plans.IntervalDay || sub.CancelAtPeriodEnd || !billing.IsLiveStatus(sub.Status) {
		return
	}
	if err := s.processor.SetCancelAtPeriodEnd(ctx, sub.ID); err != nil {
		log.Warn("failed to set cancel_at_period_end on day pass", "error", err)
		return
	}
	log.Info("day pass set to cancel at period end")
}

func (s *Service) refreshEntitlement(ctx context.Context, userID uint) error {
	rec, err := s.store.GetUserBilling(ctx, userID)
	if err != nil {
		return err
	}

	plan := access.PlanFromState(access.ComputeEffectiveAccessState(s.now(), rec))
	q := plans.QuotasFor(plan)

	return s.store.UpsertEntitlement(ctx, &billing.Entitlement{
		UserID:               userID,
		Plan:                 plan,
		StripeSubscriptionID: rec.StripeSubscriptionID,
		Status:               rec.SubscriptionStatus,
		CurrentPeriodEnd:     rec.CurrentPeriodEnd,
		RemainingScans:       q.RemainingScans,
		MaxPagesPerScan:      q.MaxPagesPerScan,
		PDFExport:            q.PDFExport,
	})
}

// attributeSubscription finds the owning user: subscription metadata, then the
// caller's hint, then the stored subscription and customer references.
func (s *Service) attributeSubscription(ctx context.Context, sub Subscription, hintUserID uint) (uint, error) {
	if sub.UserID != 0 {
		return sub.UserID, nil
	}
	if hintUserID != 0 {
		return hintUserID, nil
	}

	lookups := []struct {
		ref  string
		find func(context.Context, string) (*billing.UserBilling, error)
	}{
		{sub.ID, s.store.FindUserBillingBySubscription},
		{sub.CustomerID, s.store.FindUserBillingByCustomer},
	}
	for _, l := range lookups {
		if l.ref == "" {
			continue
		}
		rec, err := l.find(ctx, l.ref)
		if err == nil {
			return rec.UserID, nil
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return 0, err
		}
	}
	return 0, apperrors.NewNotFoundError("no user for subscription", sub.ID)
}

// planForStatus is the cached plan flag: pro while live or inside a canceled period.
func planForStatus(status string, periodEnd *time.Time, now time.Time) string {
	if billing.IsLiveStatus(status) {
		return plans.PlanPro
	}
	if status == billing.StatusCanceled && periodEnd != nil && now.Before(*periodEnd) {
		return plans.PlanPro
	}
	return plans.PlanFree
}

func (s *Service) resyncFromInvoice(ctx context.Context, n InvoicePaid) error {
	if n.SubscriptionID != "" {
		sub, err := s.processor.GetSubscription(ctx, n.SubscriptionID)
		if err != nil {
			return externalError("get subscription", err)
		}
		if sub.CustomerID == "" {
			sub.CustomerID = n.CustomerID
		}
		return s.applySubscription(ctx, *sub, 0)
	}
	if n.CustomerID == "" {
		return nil
	}
	rec, err := s.store.FindUserBillingByCustomer(ctx, n.CustomerID)
	if err != nil {
		return err
	}
	_, err = s.SyncSubscription(ctx, rec.UserID)
	return err
}
