package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gbi46/photo-share/internal/authz"
	coreauth "github.com/gbi46/photo-share/internal/core/auth"
	"github.com/gbi46/photo-share/internal/repo"
	"github.com/gbi46/photo-share/internal/service"
	"github.com/gbi46/photo-share/internal/transport/http/handler"
	mdw "github.com/gbi46/photo-share/internal/transport/http/middleware"
)

// Deps API 引擎的依赖集合
type Deps struct {
	Log      *zap.Logger
	JWTer    *coreauth.JWTer
	Users    *repo.UserRepo
	Engine   *authz.Engine
	Auth     *service.AuthService
	Accounts *service.UserService
	Posts    *service.PostService
	Comments *service.CommentService
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		cors.Default(),
	)

	// 健康检查 + 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 前缀
	public := r.Group("/api/v1")

	// 鉴权分组：解析 Bearer 并预载主体（含角色）
	authed := public.Group("")
	authed.Use(mdw.AuthPrincipal(d.JWTer, d.Users))

	// 统一注册器
	Reset()
	Register(handler.NewAuthHandler(d.Auth))
	Register(handler.NewUserHandler(d.Accounts, d.Engine))
	Register(handler.NewPostHandler(d.Posts, d.Engine))
	Register(handler.NewCommentHandler(d.Comments, d.Engine))
	MountAllAPI(public, authed)

	return r
}
