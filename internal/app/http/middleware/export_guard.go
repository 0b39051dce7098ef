package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ExportChecker interface {
	CanExport(ctx context.Context, userID uint, reportID string) (bool, error)
}

// RequireExport lets the request through only when the caller may export the report
// named by the :id path parameter.
func RequireExport(checker ExportChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := checker.CanExport(c.Request.Context(), c.GetUint("user_id"), c.Param("id"))
		if err != nil {
			slog.Error("export check failed", "request_id", c.GetString("request_id"), "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not check export access"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "Export requires a Pro plan or a purchase of this report",
			})
			return
		}
		c.Next()
	}
}
