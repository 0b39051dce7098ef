package stripe

import (
	"strings"

	"siteaudit-api/internal/domain/billing"
)

// NormalizeStatus folds processor subscription statuses into
// none|trialing|active|past_due|canceled.
func NormalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return billing.StatusActive
	case "trialing":
		return billing.StatusTrialing
	case "past_due", "unpaid", "paused":
		return billing.StatusPastDue
	case "canceled", "incomplete_expired":
		return billing.StatusCanceled
	default:
		// "", incomplete and anything new
		return billing.StatusNone
	}
}
