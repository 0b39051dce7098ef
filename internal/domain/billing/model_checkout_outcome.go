package billing

import "time"

const (
	PurchaseSingleReport = "single_report"
	PurchaseCreditPack   = "credit_pack"
)

const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// CheckoutOutcome records a one-off checkout keyed by the processor session id.
// Concurrent writers merge into one row; see repository.UpsertCheckoutOutcome.
type CheckoutOutcome struct {
	ID              uint   `gorm:"primaryKey"`
	StripeSessionID string `gorm:"column:stripe_session_id;not null;uniqueIndex:idx_checkout_outcomes_session"`

	PurchaseType   string     `gorm:"column:purchase_type;type:varchar(24);not null"`
	ReportID       *string    `gorm:"column:report_id"`
	PackID         *string    `gorm:"column:pack_id"`
	CreditsGranted int        `gorm:"column:credits_granted;not null;default:0"`
	PaymentStatus  string     `gorm:"column:payment_status;type:varchar(16);not null;default:'unpaid'"`
	Mode           string     `gorm:"column:mode;type:varchar(16)"`
	AmountTotal    *int64     `gorm:"column:amount_total"`
	Currency       *string    `gorm:"column:currency;type:varchar(8)"`
	CustomerID     *string    `gorm:"column:stripe_customer_id"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
}
