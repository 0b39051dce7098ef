package billing

// Internal subscription statuses.
const (
	StatusNone     = "none"
	StatusTrialing = "trialing"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

func IsLiveStatus(status string) bool {
	return status == StatusActive || status == StatusTrialing
}
