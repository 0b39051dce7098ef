package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"siteaudit-api/internal/domain/billing"
	apperrors "siteaudit-api/internal/shared/errors"
)

// BillingStore persists billing state with gorm. All writes are single-statement
// upserts keyed by natural keys, so concurrent writers never produce duplicates.
type BillingStore struct {
	db *gorm.DB
}

func NewBillingStore(db *gorm.DB) *BillingStore {
	return &BillingStore{db: db}
}

func (s *BillingStore) GetUserBilling(ctx context.Context, userID uint) (*billing.UserBilling, error) {
	return s.findUserBilling(ctx, "user_id = ?", userID)
}

func (s *BillingStore) FindUserBillingBySubscription(ctx context.Context, subscriptionID string) (*billing.UserBilling, error) {
	return s.findUserBilling(ctx, "stripe_subscription_id = ?", subscriptionID)
}

func (s *BillingStore) FindUserBillingByCustomer(ctx context.Context, customerID string) (*billing.UserBilling, error) {
	return s.findUserBilling(ctx, "stripe_customer_id = ?", customerID)
}

func (s *BillingStore) findUserBilling(ctx context.Context, query string, arg any) (*billing.UserBilling, error) {
	var rec billing.UserBilling
	if err := s.db.WithContext(ctx).Where(query, arg).First(&rec).Error; err != nil {
		return nil, notFoundOr(err, "billing record not found")
	}
	return &rec, nil
}

func (s *BillingStore) EnsureUserBilling(ctx context.Context, userID uint) error {
	rec := billing.UserBilling{UserID: userID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&rec).Error
	return wrap(err, "ensure billing record")
}

func (s *BillingStore) AttachCustomer(ctx context.Context, userID uint, customerID string) (string, error) {
	rec := billing.UserBilling{UserID: userID, StripeCustomerID: &customerID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"stripe_customer_id": gorm.Expr("COALESCE(user_billing.stripe_customer_id, excluded.stripe_customer_id)"),
			}),
		}).
		Create(&rec).Error
	if err != nil {
		return "", wrap(err, "attach customer")
	}

	stored, err := s.GetUserBilling(ctx, userID)
	if err != nil {
		return "", err
	}
	if stored.StripeCustomerID == nil {
		return "", apperrors.NewInternalError("customer reference missing after attach", nil)
	}
	return *stored.StripeCustomerID, nil
}

// UpsertSubscriptionState writes the subscription fields. For the same subscription an
// older period never overwrites a newer one, and a canceled state is never revived.
func (s *BillingStore) UpsertSubscriptionState(ctx context.Context, userID uint, st billing.SubscriptionState) error {
	rec := billing.UserBilling{
		UserID:               userID,
		Plan:                 st.Plan,
		StripeSubscriptionID: &st.StripeSubscriptionID,
		SubscriptionStatus:   st.Status,
		SubscriptionInterval: &st.Interval,
		CurrentPeriodEnd:     st.CurrentPeriodEnd,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan", "stripe_subscription_id", "subscription_status", "subscription_interval", "current_period_end"}),
			Where: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "user_billing.stripe_subscription_id IS NULL" +
				" OR user_billing.stripe_subscription_id <> excluded.stripe_subscription_id" +
				" OR ((user_billing.subscription_status <> '" + billing.StatusCanceled + "'" +
				" OR excluded.subscription_status = '" + billing.StatusCanceled + "')" +
				" AND (user_billing.current_period_end IS NULL" +
				" OR excluded.current_period_end IS NULL" +
				" OR excluded.current_period_end >= user_billing.current_period_end))"}}},
		}).
		Create(&rec).Error
	return wrap(err, "upsert subscription state")
}

func (s *BillingStore) GetEntitlement(ctx context.Context, userID uint) (*billing.Entitlement, error) {
	var e billing.Entitlement
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&e).Error; err != nil {
		return nil, notFoundOr(err, "entitlement not found")
	}
	return &e, nil
}

func (s *BillingStore) UpsertEntitlement(ctx context.Context, e *billing.Entitlement) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan", "stripe_subscription_id", "status", "current_period_end",
				"remaining_scans", "max_pages_per_scan", "pdf_export",
			}),
		}).
		Create(e).Error
	return wrap(err, "upsert entitlement")
}

func (s *BillingStore) GetCheckoutOutcome(ctx context.Context, sessionID string) (*billing.CheckoutOutcome, error) {
	var o billing.CheckoutOutcome
	if err := s.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&o).Error; err != nil {
		return nil, notFoundOr(err, "checkout outcome not found")
	}
	return &o, nil
}

// UpsertCheckoutOutcome merges into the row for the session. The merge is commutative:
// paid wins over unpaid, the first completion time is kept, credits take the maximum
// and known values are never cleared.
func (s *BillingStore) UpsertCheckoutOutcome(ctx context.Context, o *billing.CheckoutOutcome) error {
	if o.PaymentStatus == "" {
		o.PaymentStatus = billing.PaymentUnpaid
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_session_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"purchase_type":      gorm.Expr("COALESCE(NULLIF(checkout_outcomes.purchase_type, ''), excluded.purchase_type)"),
				"report_id":          gorm.Expr("COALESCE(checkout_outcomes.report_id, excluded.report_id)"),
				"pack_id":            gorm.Expr("COALESCE(checkout_outcomes.pack_id, excluded.pack_id)"),
				"mode":               gorm.Expr("COALESCE(NULLIF(checkout_outcomes.mode, ''), excluded.mode)"),
				"amount_total":       gorm.Expr("COALESCE(checkout_outcomes.amount_total, excluded.amount_total)"),
				"currency":           gorm.Expr("COALESCE(checkout_outcomes.currency, excluded.currency)"),
				"stripe_customer_id": gorm.Expr("COALESCE(checkout_outcomes.stripe_customer_id, excluded.stripe_customer_id)"),
				"completed_at":       gorm.Expr("COALESCE(checkout_outcomes.completed_at, excluded.completed_at)"),
				"credits_granted": gorm.Expr("CASE WHEN excluded.credits_granted > checkout_outcomes.credits_granted" +
					" THEN excluded.credits_granted ELSE checkout_outcomes.credits_granted END"),
				"payment_status": gorm.Expr("CASE WHEN checkout_outcomes.payment_status = 'paid' OR excluded.payment_status = 'paid'" +
					" THEN 'paid' ELSE checkout_outcomes.payment_status END"),
			}),
		}).
		Create(o).Error
	return wrap(err, "upsert checkout outcome")
}

// UpsertReportPurchase keeps one row per (user, report). The latest purchase time wins,
// which makes concurrent writes of the same session converge.
func (s *BillingStore) UpsertReportPurchase(ctx context.Context, p *billing.ReportPurchase) error {
	const newer = "excluded.purchased_at >= report_purchases.purchased_at"
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "report_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"stripe_session_id": gorm.Expr("CASE WHEN " + newer + " THEN excluded.stripe_session_id ELSE report_purchases.stripe_session_id END"),
				"purchased_at":      gorm.Expr("CASE WHEN " + newer + " THEN excluded.purchased_at ELSE report_purchases.purchased_at END"),
				"site_url":          gorm.Expr("COALESCE(CASE WHEN " + newer + " THEN excluded.site_url END, report_purchases.site_url)"),
				"analyzer_type":     gorm.Expr("COALESCE(CASE WHEN " + newer + " THEN excluded.analyzer_type END, report_purchases.analyzer_type)"),
			}),
		}).
		Create(p).Error
	return wrap(err, "upsert report purchase")
}

func (s *BillingStore) ListReportPurchases(ctx context.Context, userID uint) ([]billing.ReportPurchase, error) {
	var out []billing.ReportPurchase
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, wrap(err, "list report purchases")
	}
	return out, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError(msg)
	}
	return apperrors.NewInternalError(msg, err)
}

func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return apperrors.NewInternalError(fmt.Sprintf("%s failed", op), err)
}
