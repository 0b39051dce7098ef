package billing

import (
	"context"
	"errors"

	"siteaudit-api/internal/domain/billing"
)

// ErrInvalidSignature is wrapped by Processor.ParseEvent when a payload fails authentication.
var ErrInvalidSignature = errors.New("invalid notification signature")

// Processor is the payment processor port.
type Processor interface {
	CreateCustomer(ctx context.Context, userID uint) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CreatedSession, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
	ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)
	// ParseEvent verifies the signature and decodes the payload into a typed Event.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// Store is the Billing State Store. Every write is an upsert keyed by a natural key.
// Getters return a not_found AppError when the row does not exist.
type Store interface {
	GetUserBilling(ctx context.Context, userID uint) (*billing.UserBilling, error)
	FindUserBillingBySubscription(ctx context.Context, subscriptionID string) (*billing.UserBilling, error)
	FindUserBillingByCustomer(ctx context.Context, customerID string) (*billing.UserBilling, error)
	EnsureUserBilling(ctx context.Context, userID uint) error
	// AttachCustomer stores customerID unless one is already set and returns the stored value.
	AttachCustomer(ctx context.Context, userID uint, customerID string) (string, error)
	UpsertSubscriptionState(ctx context.Context, userID uint, state billing.SubscriptionState) error

	GetEntitlement(ctx context.Context, userID uint) (*billing.Entitlement, error)
	UpsertEntitlement(ctx context.Context, e *billing.Entitlement) error

	GetCheckoutOutcome(ctx context.Context, sessionID string) (*billing.CheckoutOutcome, error)
	UpsertCheckoutOutcome(ctx context.Context, o *billing.CheckoutOutcome) error

	UpsertReportPurchase(ctx context.Context, p *billing.ReportPurchase) error
	ListReportPurchases(ctx context.Context, userID uint) ([]billing.ReportPurchase, error)
}

// Ledger is the Processed-Notification Ledger. It deduplicates; it does not lock.
type Ledger interface {
	// Lookup returns nil, nil for unknown event ids.
	Lookup(ctx context.Context, eventID string) (*billing.ProcessedNotification, error)
	Record(ctx context.Context, eventID, eventType string) error
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}
