package billing

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	metaUserID       = "user_id"
	metaPurchaseType = "purchase_type"
	metaReportID     = "report_id"
	metaPackID       = "pack_id"
	metaInterval     = "interval"
	metaSiteURL      = "site_url"
	metaAnalyzerType = "analyzer_type"
)

// PurchaseMeta is the typed form of the metadata attached to a checkout session.
// UserID 0 means an anonymous purchase.
type PurchaseMeta struct {
	UserID       uint
	PurchaseType PurchaseType
	ReportID     string
	PackID       string
	Interval     string
	SiteURL      string
	AnalyzerType string
}

func (m PurchaseMeta) Metadata() map[string]string {
	md := map[string]string{metaPurchaseType: string(m.PurchaseType)}
	if m.UserID != 0 {
		md[metaUserID] = strconv.FormatUint(uint64(m.UserID), 10)
	}
	set := func(k, v string) {
		if v != "" {
			md[k] = v
		}
	}
	set(metaReportID, m.ReportID)
	set(metaPackID, m.PackID)
	set(metaInterval, m.Interval)
	set(metaSiteURL, m.SiteURL)
	set(metaAnalyzerType, m.AnalyzerType)
	return md
}

// ParsePurchaseMeta validates session metadata. clientRef is the session's
// client_reference_id, used when metadata carries no user id.
func ParsePurchaseMeta(md map[string]string, clientRef string) (PurchaseMeta, error) {
	var m PurchaseMeta

	uid, err := ParseUserID(md[metaUserID])
	if err != nil {
		return m, err
	}
	if uid == 0 {
		if uid, err = ParseUserID(clientRef); err != nil {
			return m, err
		}
	}
	m.UserID = uid

	switch pt := PurchaseType(strings.TrimSpace(md[metaPurchaseType])); pt {
	case PurchaseSubscription, PurchaseSingleReport, PurchaseCreditPack, "":
		m.PurchaseType = pt
	default:
		return m, fmt.Errorf("unknown purchase_type %q", pt)
	}

	m.ReportID = md[metaReportID]
	m.PackID = md[metaPackID]
	m.Interval = md[metaInterval]
	m.SiteURL = md[metaSiteURL]
	m.AnalyzerType = md[metaAnalyzerType]

	if m.PurchaseType == PurchaseSingleReport && m.ReportID == "" {
		return m, fmt.Errorf("single_report purchase without report_id")
	}
	if m.PurchaseType == PurchaseCreditPack && m.PackID == "" {
		return m, fmt.Errorf("credit_pack purchase without pack_id")
	}
	return m, nil
}

// ParseUserID parses a decimal user id; empty input is the anonymous id 0.
func ParseUserID(s string) (uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	uid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q: %w", s, err)
	}
	return uint(uid), nil
}
