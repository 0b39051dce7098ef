package billing

import "time"

// UserBilling is the per-user billing record. Subscription fields are written only by
// webhook dispatch and session verification; the customer reference only by checkout.
type UserBilling struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"column:user_id;not null;uniqueIndex:idx_user_billing_user_id"`

	// Cached plan: "free" | "pro".
	Plan string `gorm:"column:plan;type:varchar(16);not null;default:'free'"`

	StripeCustomerID     *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_user_billing_stripe_customer_id"`
	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id;index"`

	// none|trialing|active|past_due|canceled
	SubscriptionStatus   string     `gorm:"column:subscription_status;type:varchar(16);not null;default:'none'"`
	SubscriptionInterval *string    `gorm:"column:subscription_interval;type:varchar(8)"`
	CurrentPeriodEnd     *time.Time `gorm:"column:current_period_end"`
}

func (UserBilling) TableName() string {
	return "user_billing"
}

// SubscriptionState is the subscription-owned slice of UserBilling.
type SubscriptionState struct {
	Plan                 string
	StripeSubscriptionID string
	Status               string
	Interval             string
	CurrentPeriodEnd     *time.Time
}
