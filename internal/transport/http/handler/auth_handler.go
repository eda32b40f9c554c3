package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Mount 挂在公共分组（无需登录）
func (h *AuthHandler) Mount(g *gin.RouterGroup) {
	g.POST("/auth/signup", h.signup)
	g.POST("/auth/login", h.login)
	g.POST("/auth/refresh", h.refresh)
}

func (h *AuthHandler) MountAPI(public, _ *gin.RouterGroup) { h.Mount(public) }

// Priority 认证路由先挂
func (h *AuthHandler) Priority() int { return 10 }

type signupIn struct {
	Username  string `json:"username"   binding:"required,min=3,max=64"`
	Email     string `json:"email"      binding:"required,email"`
	Password  string `json:"password"   binding:"required,min=6,max=72"`
	FirstName string `json:"first_name" binding:"omitempty,max=64"`
	LastName  string `json:"last_name"  binding:"omitempty,max=64"`
	Role      string `json:"role"       binding:"omitempty,oneof=user moderator admin"`
}

func (h *AuthHandler) signup(c *gin.Context) {
	var in signupIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	u, err := h.auth.Signup(c, service.SignupInput{
		Username:  in.Username,
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, userView(u))
}

type loginIn struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var in loginIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	pair, err := h.auth.Login(c, in.Username, in.Password)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, pair)
}

type refreshIn struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var in refreshIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	pair, err := h.auth.Refresh(c, in.RefreshToken)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, pair)
}

// userView 对外用户视图（密码散列由 json:"-" 兜底，这里再收敛一层字段）
func userView(u *domain.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"img_link":   u.ImgLink,
		"status":     u.Status,
		"roles":      u.RoleNames(),
	}
}
