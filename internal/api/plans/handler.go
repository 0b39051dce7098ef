package plans

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appbilling "siteaudit-api/internal/app/billing"
	"siteaudit-api/internal/domain/plans"
)

type Offering struct {
	PurchaseType string `json:"purchase_type"`
	Interval     string `json:"interval,omitempty"`
	PackID       string `json:"pack_id,omitempty"`
	Name         string `json:"name"`
	Credits      int    `json:"credits,omitempty"`
}

type Tier struct {
	Plan            string `json:"plan"`
	RemainingScans  int    `json:"remaining_scans"`
	MaxPagesPerScan int    `json:"max_pages_per_scan"`
	PDFExport       bool   `json:"pdf_export"`
}

type Handler struct {
	catalog appbilling.Catalog
}

func NewHandler(catalog appbilling.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// ListPlans returns the tiers and the purchasable offerings that have a price configured.
func (h *Handler) ListPlans(c *gin.Context) {
	var offerings []Offering
	for _, interval := range []string{plans.IntervalDay, plans.IntervalMonth, plans.IntervalYear} {
		if h.catalog.SubscriptionPrices[interval] == "" {
			continue
		}
		offerings = append(offerings, Offering{
			PurchaseType: string(appbilling.PurchaseSubscription),
			Interval:     interval,
			Name:         "Pro (" + interval + ")",
		})
	}
	if h.catalog.SingleReportPrice != "" {
		offerings = append(offerings, Offering{PurchaseType: string(appbilling.PurchaseSingleReport), Name: "Single report"})
	}
	for _, p := range plans.CreditPacks() {
		if h.catalog.PackPrices[p.ID] == "" {
			continue
		}
		offerings = append(offerings, Offering{
			PurchaseType: string(appbilling.PurchaseCreditPack),
			PackID:       p.ID,
			Name:         p.Name,
			Credits:      p.Credits,
		})
	}

	tiers := make([]Tier, 0, 2)
	for _, name := range []string{plans.PlanFree, plans.PlanPro} {
		q := plans.QuotasFor(name)
		tiers = append(tiers, Tier{Plan: name, RemainingScans: q.RemainingScans, MaxPagesPerScan: q.MaxPagesPerScan, PDFExport: q.PDFExport})
	}

	c.JSON(http.StatusOK, gin.H{"tiers": tiers, "offerings": offerings})
}
