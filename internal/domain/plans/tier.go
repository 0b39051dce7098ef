package plans

import "strings"

// Plan constants (single source of truth)
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

const (
	IntervalDay   = "day"
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// UnlimitedScans is the RemainingScans sentinel for plans without a scan cap.
const UnlimitedScans = -1

type Quotas struct {
	RemainingScans  int
	MaxPagesPerScan int
	PDFExport       bool
}

var quotaTable = map[string]Quotas{
	PlanPro:  {RemainingScans: UnlimitedScans, MaxPagesPerScan: 250, PDFExport: true},
	PlanFree: {RemainingScans: 3, MaxPagesPerScan: 10, PDFExport: false},
}

// QuotasFor returns the quota row for a plan; unknown plans get the free row.
func QuotasFor(plan string) Quotas {
	if q, ok := quotaTable[NormalizePlan(plan)]; ok {
		return q
	}
	return quotaTable[PlanFree]
}

func NormalizePlan(plan string) string {
	if strings.ToLower(strings.TrimSpace(plan)) == PlanPro {
		return PlanPro
	}
	return PlanFree
}

func ValidInterval(interval string) bool {
	switch interval {
	case IntervalDay, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// NormalizeInterval folds processor intervals into day|month|year.
// Weekly prices are not sold; they are treated as monthly.
func NormalizeInterval(interval string) string {
	switch strings.ToLower(strings.TrimSpace(interval)) {
	case IntervalDay:
		return IntervalDay
	case IntervalYear:
		return IntervalYear
	default:
		return IntervalMonth
	}
}
