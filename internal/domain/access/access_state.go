package access

import (
	"time"

	"siteaudit-api/internal/domain/billing"
	"siteaudit-api/internal/domain/plans"
)

// ComputeEffectiveAccessState applies the resolution order, first match wins:
// live subscription, canceled within paid period, legacy pro flag, free.
func ComputeEffectiveAccessState(now time.Time, u *billing.UserBilling) AccessState {
	if u == nil {
		return AccessFree
	}

	switch u.SubscriptionStatus {
	case billing.StatusActive, billing.StatusTrialing:
		return AccessFull
	case billing.StatusCanceled:
		if u.CurrentPeriodEnd != nil && now.Before(*u.CurrentPeriodEnd) {
			return AccessGrace
		}
	}

	// Records written before status tracking only carry the plan flag.
	if (u.SubscriptionStatus == "" || u.SubscriptionStatus == billing.StatusNone) &&
		plans.NormalizePlan(u.Plan) == plans.PlanPro {
		return AccessLegacy
	}

	return AccessFree
}

func EntitlementTypeFor(state AccessState, u *billing.UserBilling) EntitlementType {
	if state == AccessFree || u == nil {
		return EntitlementFree
	}
	if u.SubscriptionInterval != nil && *u.SubscriptionInterval == plans.IntervalDay {
		return EntitlementDayPass
	}
	return EntitlementMonthlySub
}

func PlanFromState(state AccessState) string {
	if state == AccessFree {
		return plans.PlanFree
	}
	return plans.PlanPro
}
