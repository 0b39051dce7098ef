package access

import (
	"sort"
	"time"

	"siteaudit-api/internal/domain/billing"
)

// Snapshot is the persisted state the resolver reads.
type Snapshot struct {
	UserID    uint
	Billing   *billing.UserBilling
	Purchases []billing.ReportPurchase
	Cached    *billing.Entitlement
}

// Resolve is a pure function of the snapshot and the clock. It never mutates its input.
func Resolve(now time.Time, s Snapshot) EntitlementView {
	state := ComputeEffectiveAccessState(now, s.Billing)
	plan := PlanFromState(state)

	view := EntitlementView{
		UserID:             s.UserID,
		Plan:               plan,
		State:              state,
		EntitlementType:    EntitlementTypeFor(state, s.Billing),
		PurchasedReportIDs: purchasedReportIDs(s.Purchases),
		Permissions:        PermissionsFor(plan, s.Cached),
	}

	if b := s.Billing; b != nil {
		snap := &SubscriptionSnapshot{
			Status:        b.SubscriptionStatus,
			InGracePeriod: state == AccessGrace,
		}
		if snap.Status == "" {
			snap.Status = billing.StatusNone
		}
		if b.StripeSubscriptionID != nil {
			snap.ID = *b.StripeSubscriptionID
		}
		if b.SubscriptionInterval != nil {
			snap.Interval = *b.SubscriptionInterval
		}
		if b.CurrentPeriodEnd != nil {
			end := *b.CurrentPeriodEnd
			snap.CurrentPeriodEnd = &end
		}
		view.Subscription = snap
	}

	return view
}

// CanExport reports whether the view allows exporting reportID. A purchased report is
// exportable regardless of subscription state.
func CanExport(view EntitlementView, reportID string) bool {
	if view.Permissions.CanExport {
		return true
	}
	if reportID == "" {
		return false
	}
	for _, id := range view.PurchasedReportIDs {
		if id == reportID {
			return true
		}
	}
	return false
}

func purchasedReportIDs(purchases []billing.ReportPurchase) []string {
	ids := make([]string, 0, len(purchases))
	seen := make(map[string]struct{}, len(purchases))
	for _, p := range purchases {
		if _, ok := seen[p.ReportID]; ok {
			continue
		}
		seen[p.ReportID] = struct{}{}
		ids = append(ids, p.ReportID)
	}
	sort.Strings(ids)
	return ids
}
