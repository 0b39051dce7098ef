package billing

import "time"

// Entitlement is a materialized view of UserBilling plus the quota table. It is rebuilt
// on every subscription-affecting write and never outranks UserBilling.
type Entitlement struct {
	ID                   uint       `gorm:"primaryKey"`
	UserID               uint       `gorm:"column:user_id;not null;uniqueIndex:idx_entitlements_user_id"`
	Plan                 string     `gorm:"column:plan;type:varchar(16);not null"`
	StripeSubscriptionID *string    `gorm:"column:stripe_subscription_id"`
	Status               string     `gorm:"column:status;type:varchar(16);not null"`
	CurrentPeriodEnd     *time.Time `gorm:"column:current_period_end"`

	RemainingScans  int  `gorm:"column:remaining_scans;not null"`
	MaxPagesPerScan int  `gorm:"column:max_pages_per_scan;not null"`
	PDFExport       bool `gorm:"column:pdf_export;not null"`
}
