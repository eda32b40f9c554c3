package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
	"github.com/gbi46/photo-share/internal/service"
	mdw "github.com/gbi46/photo-share/internal/transport/http/middleware"
)

type UserHandler struct {
	users  *service.UserService
	engine *authz.Engine
}

func NewUserHandler(users *service.UserService, engine *authz.Engine) *UserHandler {
	return &UserHandler{users: users, engine: engine}
}

// Mount 挂在鉴权分组
func (h *UserHandler) Mount(g *gin.RouterGroup) {
	g.GET("/me", h.me)
	g.GET("/users/profile/:username", h.profile)
	g.GET("/users/account/:id", h.account)
	g.PUT("/users/account/:id", h.updateAccount)
	g.PUT("/users/account/:id/status", mdw.RequireRole(h.engine, authz.RoleAdmin), h.updateStatus)
}

func (h *UserHandler) MountAPI(_, authed *gin.RouterGroup) { h.Mount(authed) }

func (h *UserHandler) me(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	OK(c, userView(p))
}

func (h *UserHandler) profile(c *gin.Context) {
	prof, err := h.users.ProfileByUsername(c, c.Param("username"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, prof)
}

func (h *UserHandler) account(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	u, err := h.engine.AuthorizeAccountView(c, p, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, userView(u))
}

type accountIn struct {
	Username  string `json:"username"   binding:"required,min=3,max=64"`
	Email     string `json:"email"      binding:"required,email"`
	FirstName string `json:"first_name" binding:"omitempty,max=64"`
	LastName  string `json:"last_name"  binding:"omitempty,max=64"`
	ImgLink   string `json:"img_link"   binding:"omitempty,max=512"`
	Phone     string `json:"phone"      binding:"omitempty,max=32"`
}

func (h *UserHandler) updateAccount(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	var in accountIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if _, err := h.engine.AuthorizeAccountUpdate(c, p, c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	u, err := h.users.UpdateAccount(c, c.Param("id"), repo.ProfileUpdate{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		ImgLink:   in.ImgLink,
		Phone:     in.Phone,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, userView(u))
}

type statusIn struct {
	Status string `json:"status" binding:"required,oneof=active ban"`
}

// updateStatus 封禁/解封，admin 守卫在路由层
func (h *UserHandler) updateStatus(c *gin.Context) {
	var in statusIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	u, err := h.users.UpdateStatus(c, c.Param("id"), domain.UserStatus(in.Status))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, userView(u))
}
