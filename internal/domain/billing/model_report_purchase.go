package billing

import "time"

// ReportPurchase unlocks a single report for a user. One row per (user, report).
type ReportPurchase struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          uint      `gorm:"column:user_id;not null;uniqueIndex:idx_report_purchases_user_report"`
	ReportID        string    `gorm:"column:report_id;not null;uniqueIndex:idx_report_purchases_user_report"`
	StripeSessionID string    `gorm:"column:stripe_session_id;not null"`
	PurchasedAt     time.Time `gorm:"column:purchased_at;not null"`
	SiteURL         *string   `gorm:"column:site_url"`
	AnalyzerType    *string   `gorm:"column:analyzer_type;type:varchar(32)"`
}
