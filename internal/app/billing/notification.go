package billing

// Event is a verified processor notification. Notification holds exactly one variant.
type Event struct {
	ID           string
	Type         string
	Notification Notification
}

// Notification is a closed set of variants; see the types below.
type Notification interface {
	notification()
}

// CheckoutCompleted covers checkout.session.completed and async_payment_succeeded.
type CheckoutCompleted struct {
	Session Session
}

// SubscriptionChanged covers customer.subscription.created and .updated.
type SubscriptionChanged struct {
	Subscription Subscription
	Created      bool
}

type SubscriptionDeleted struct {
	Subscription Subscription
}

type InvoicePaid struct {
	InvoiceID      string
	SubscriptionID string
	CustomerID     string
}

type InvoicePaymentFailed struct {
	InvoiceID      string
	SubscriptionID string
	CustomerID     string
	AttemptCount   int64
}

// Malformed is a signed notification whose body could not be decoded.
type Malformed struct {
	Err error
}

type Unrecognized struct{}

func (CheckoutCompleted) notification()    {}
func (SubscriptionChanged) notification()  {}
func (SubscriptionDeleted) notification()  {}
func (InvoicePaid) notification()          {}
func (InvoicePaymentFailed) notification() {}
func (Malformed) notification()            {}
func (Unrecognized) notification()         {}
