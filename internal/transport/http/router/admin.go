package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/core/server"
	"github.com/gbi46/photo-share/internal/domain"
	httpez "github.com/gbi46/photo-share/internal/transport/http/ez"
	mdw "github.com/gbi46/photo-share/internal/transport/http/middleware"
)

// NewAdminEngine 管理端引擎：统一要求 admin 角色
func NewAdminEngine(d Deps, db *gorm.DB) *gin.Engine {
	r := server.NewRouter(d.Log)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	admin := r.Group("/admin/v1")
	admin.Use(
		mdw.AuthPrincipal(d.JWTer, d.Users),
		mdw.RequireRole(d.Engine, authz.RoleAdmin),
	)

	Reset()
	Register(&adminUsers{db: db})
	MountAllAdmin(admin)

	return r
}

// adminUsers 管理端用户接口，走 Action 方式挂载
type adminUsers struct{ db *gorm.DB }

func (m *adminUsers) MountAdmin(admin *gin.RouterGroup) {
	ezAdmin := httpez.New(admin)

	// --- 用户列表 ---
	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // 可选：按 email/username 模糊搜
	}
	type row struct {
		ID       string   `json:"id"`
		Username string   `json:"username"`
		Email    string   `json:"email"`
		Status   string   `json:"status"`
		Roles    []string `json:"roles"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}

	httpez.RegisterAction[listQ, listOut](ezAdmin, m.db, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			q := tx.Model(&domain.User{})
			if s := strings.TrimSpace(in.Q); s != "" {
				like := "%" + s + "%"
				q = q.Where("email LIKE ? OR username LIKE ?", like, like)
			}

			var total int64
			if err := q.Count(&total).Error; err != nil {
				return listOut{}, httpez.Internal("count users failed", err)
			}

			var us []domain.User
			if err := q.Preload("Roles").Order("created_at DESC").
				Limit(in.Limit).Offset(in.Offset).Find(&us).Error; err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}

			out := listOut{Total: total, Items: make([]row, 0, len(us))}
			for i := range us {
				u := &us[i]
				out.Items = append(out.Items, row{
					ID: u.ID, Username: u.Username, Email: u.Email,
					Status: string(u.Status), Roles: u.RoleNames(),
				})
			}
			return out, nil
		},
	})

	// --- 封禁/解封（状态位，不做物理删除） ---
	type statusIn struct {
		Status string `json:"status" binding:"required,oneof=active ban"`
	}
	httpez.RegisterAction[statusIn, gin.H](ezAdmin, m.db, httpez.Action[statusIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/users/:id/status",
		Binder: httpez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *statusIn) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			res := tx.Model(&domain.User{}).Where("id = ?", id).
				Update("status", domain.UserStatus(in.Status))
			if res.Error != nil {
				return nil, httpez.Internal("update status failed", res.Error)
			}
			if res.RowsAffected == 0 {
				return nil, httpez.NotFound("user not found")
			}
			return gin.H{"id": id, "status": in.Status}, nil
		},
	})
}
