package billing

import "time"

type PurchaseType string

const (
	PurchaseSubscription PurchaseType = "subscription"
	PurchaseSingleReport PurchaseType = "single_report"
	PurchaseCreditPack   PurchaseType = "credit_pack"
)

// Checkout modes as the processor names them.
const (
	ModeSubscription = "subscription"
	ModePayment      = "payment"
)

// SessionIDPlaceholder is substituted by the processor in redirect URLs.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

type CheckoutSessionParams struct {
	Mode              string
	PriceID           string
	CustomerID        string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
}

type CreatedSession struct {
	ID  string
	URL string
}

// Session is the processor's view of a checkout session.
type Session struct {
	ID             string
	Mode           string
	Status         string
	PaymentStatus  string
	CustomerID     string
	SubscriptionID string
	AmountTotal    int64
	Currency       string
	Created        time.Time
	Meta           PurchaseMeta
}

// Paid reports whether the session completed with funds captured.
func (s Session) Paid() bool {
	switch s.PaymentStatus {
	case "paid":
		return true
	case "no_payment_required":
		return s.Status == "complete"
	}
	return false
}

// Subscription is the processor's view of a subscription. Status is already normalized
// to none|trialing|active|past_due|canceled.
type Subscription struct {
	ID                string
	CustomerID        string
	Status            string
	Interval          string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	UserID            uint
}
