package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "storeroom/internal/core/context"
)

const (
	HeaderActor = "X-Actor"
	HeaderStore = "X-Store-ID"
)

// Actor middleware records who performs the request. Identity comes from
// the gateway in front of this service; movements and workflow transitions
// carry the name for audit.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(HeaderActor)
		if actor == "" {
			c.Next()
			return
		}

		ctx := appctx.WithActor(c.Request.Context(), &appctx.ActorContext{
			Actor:   actor,
			StoreID: c.GetHeader(HeaderStore),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("actor", actor)

		c.Next()
	}
}
