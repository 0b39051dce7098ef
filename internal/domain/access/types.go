package access

import "time"

type AccessState string

const (
	AccessFull   AccessState = "full"
	AccessGrace  AccessState = "grace"
	AccessLegacy AccessState = "legacy"
	AccessFree   AccessState = "free"
)

type EntitlementType string

const (
	EntitlementFree       EntitlementType = "free"
	EntitlementDayPass    EntitlementType = "day_pass"
	EntitlementMonthlySub EntitlementType = "monthly_sub"
)

type SubscriptionSnapshot struct {
	ID               string     `json:"id,omitempty"`
	Status           string     `json:"status"`
	Interval         string     `json:"interval,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	InGracePeriod    bool       `json:"in_grace_period"`
}

type Permissions struct {
	CanExport       bool `json:"can_export"`
	RemainingScans  int  `json:"remaining_scans"`
	MaxPagesPerScan int  `json:"max_pages_per_scan"`
	UnlimitedScans  bool `json:"unlimited_scans"`
}

type EntitlementView struct {
	UserID             uint                  `json:"user_id"`
	Plan               string                `json:"plan"`
	State              AccessState           `json:"state"`
	EntitlementType    EntitlementType       `json:"entitlement_type"`
	Subscription       *SubscriptionSnapshot `json:"subscription,omitempty"`
	PurchasedReportIDs []string              `json:"purchased_report_ids"`
	Permissions        Permissions           `json:"permissions"`
}
