package routes

import (
	"net/http"

	billingapi "siteaudit-api/internal/api/billing"
	plansapi "siteaudit-api/internal/api/plans"
	stripewebhooks "siteaudit-api/internal/api/stripewebhook"
	"siteaudit-api/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Billing   *billingapi.Handler
	Plans     *plansapi.Handler
	Webhook   *stripewebhooks.Handler
	Export    middleware.ExportChecker
	JWTSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Raw body is needed for signature verification; no sanitizer here.
	r.POST("/webhook", d.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/plans", d.Plans.ListPlans)

	// Anonymous or signed-in
	open := r.Group("/billing")
	open.Use(middleware.OptionalAuth(d.JWTSecret))
	open.POST("/checkout", middleware.SanitizeAndCleanInputMiddleware("return_url", "site_url"), d.Billing.CreateCheckoutSession)
	open.GET("/verify", d.Billing.VerifyCheckout)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.JWTSecret))
	auth.GET("/billing/entitlements", d.Billing.GetEntitlements)
	auth.POST("/billing/sync", d.Billing.SyncSubscription)

	exports := auth.Group("/reports")
	exports.Use(middleware.RequireExport(d.Export))
	exports.GET("/:id/export-access", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"report_id": c.Param("id"), "allowed": true})
	})
}
