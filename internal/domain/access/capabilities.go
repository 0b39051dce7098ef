package access

import (
	"siteaudit-api/internal/domain/billing"
	"siteaudit-api/internal/domain/plans"
)

// PermissionsFor derives quotas for the effective plan. The cached entitlement row is only
// consulted when it agrees with the plan derived from the billing record.
func PermissionsFor(plan string, cached *billing.Entitlement) Permissions {
	q := plans.QuotasFor(plan)
	if cached != nil && plans.NormalizePlan(cached.Plan) == plan {
		q = plans.Quotas{
			RemainingScans:  cached.RemainingScans,
			MaxPagesPerScan: cached.MaxPagesPerScan,
			PDFExport:       cached.PDFExport,
		}
	}

	return Permissions{
		CanExport:       q.PDFExport,
		RemainingScans:  q.RemainingScans,
		MaxPagesPerScan: q.MaxPagesPerScan,
		UnlimitedScans:  q.RemainingScans == plans.UnlimitedScans,
	}
}
