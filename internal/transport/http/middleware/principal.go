package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	coreauth "github.com/gbi46/photo-share/internal/core/auth"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
	resp "github.com/gbi46/photo-share/internal/transport/http/response"
)

const KeyPrincipal = "principal"

// AuthPrincipal 解 Bearer token 并从库里装配主体（带角色）。
// token 有效但用户已不存在时同样按 401 处理：身份问题，不是权限问题
func AuthPrincipal(j *coreauth.JWTer, users *repo.UserRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.ParseAccess(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		u, err := users.FindByIDWithRoles(c.Request.Context(), claims.UID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, "internal error"))
			return
		}
		if u == nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "user not found"))
			return
		}
		c.Set(KeyPrincipal, u)
		c.Set("userId", u.ID)
		c.Next()
	}
}

// Principal 取当前主体；只在 AuthPrincipal 之后的链路里有值
func Principal(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(KeyPrincipal)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok
}
