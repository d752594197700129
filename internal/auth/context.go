package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	merchantIDKey contextKey = "merchant_id"
	userIDKey     contextKey = "user_id"
)

// Middleware copies the tenant identity headers (populated by the gateway after
// authentication) into the request context. Requests without a merchant are
// rejected before any engine code runs.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID := c.GetHeader("x-merchant-id")
		if merchantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "UNAUTHORIZED", "message": "missing x-merchant-id"},
			})
			return
		}

		ctx := context.WithValue(c.Request.Context(), merchantIDKey, merchantID)
		if userID := c.GetHeader("x-user-id"); userID != "" {
			ctx = context.WithValue(ctx, userIDKey, userID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func GetMerchantID(ctx context.Context) string {
	if val, ok := ctx.Value(merchantIDKey).(string); ok {
		return val
	}
	return ""
}

func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok {
		return val
	}
	return ""
}
