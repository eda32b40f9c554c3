package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gbi46/photo-share/internal/authz"
	resp "github.com/gbi46/photo-share/internal/transport/http/response"
)

// RequireRole 粗粒度路由闸：决策交给访问引擎，角色来自库而非 token
func RequireRole(engine *authz.Engine, roleName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := Principal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return
		}
		if err := engine.RequireRole(c.Request.Context(), u, roleName); err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, err.Error()))
			return
		}
		c.Next()
	}
}

// RequirePermission 无归属资源的动作用的权限闸
func RequirePermission(engine *authz.Engine, permName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := Principal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return
		}
		if err := engine.RequirePermission(c.Request.Context(), u, permName); err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, err.Error()))
			return
		}
		c.Next()
	}
}
