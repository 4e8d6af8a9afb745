package admin

import (
	"excelytics/internal/auth"
	"excelytics/internal/errors"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// requireActor copies the authenticated admin from the request context into
// the gin context. Requests that reach the engine without one are refused.
func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := auth.ActorFromContext(c.Request.Context())
		if !ok {
			respondError(c, errors.Unauthorized("authentication required"))
			return
		}
		if !a.IsAdmin() {
			respondError(c, errors.Forbidden("admin role required"))
			return
		}
		c.Set(actorKey, a)
		c.Next()
	}
}
