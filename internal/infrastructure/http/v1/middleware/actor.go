package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "clinstock/internal/core/context"
)

const HeaderUserID = "X-User-ID"

// Actor middleware propagates the acting user's id into the request
// context. Authentication happens upstream; this layer only records who
// the gateway says is acting.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader(HeaderUserID); userID != "" {
			ctx := appctx.WithActorID(c.Request.Context(), userID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
