package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	headerTenant = "X-Tenant-ID"
	headerActor  = "X-Actor-ID"

	ctxTenant = "tenant_id"
	ctxActor  = "actor_id"
)

// identityMiddleware requires a tenant header and stores tenant and actor on the context
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := c.GetHeader(headerTenant)
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing " + headerTenant + " header",
			})
			return
		}
		actor := c.GetHeader(headerActor)
		if actor == "" {
			actor = "anonymous"
		}
		c.Set(ctxTenant, tenant)
		c.Set(ctxActor, actor)
		c.Next()
	}
}

func tenantOf(c *gin.Context) string { return c.GetString(ctxTenant) }

func actorOf(c *gin.Context) string { return c.GetString(ctxActor) }
