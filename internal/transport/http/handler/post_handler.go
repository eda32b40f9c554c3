package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/service"
	mdw "github.com/gbi46/photo-share/internal/transport/http/middleware"
)

type PostHandler struct {
	posts  *service.PostService
	engine *authz.Engine
}

func NewPostHandler(posts *service.PostService, engine *authz.Engine) *PostHandler {
	return &PostHandler{posts: posts, engine: engine}
}

// MountPublic 只读接口，不需要登录
func (h *PostHandler) MountPublic(g *gin.RouterGroup) {
	g.GET("/posts", h.list)
	g.GET("/posts/:id", h.get)
	g.GET("/posts/:id/qr", h.shareQR)
}

// MountAuthed 写接口，挂在鉴权分组
func (h *PostHandler) MountAuthed(g *gin.RouterGroup) {
	g.POST("/posts", mdw.RequireRole(h.engine, authz.RoleUser), h.create)
	g.PUT("/posts/:id", h.update)
	g.DELETE("/posts/:id", h.delete)
	g.POST("/posts/:id/rating", h.rate)
}

func (h *PostHandler) MountAPI(public, authed *gin.RouterGroup) {
	h.MountPublic(public)
	h.MountAuthed(authed)
}

type postCreateIn struct {
	Title       string   `json:"title"       binding:"required,max=160"`
	Description string   `json:"description" binding:"omitempty,max=2000"`
	ImageURL    string   `json:"image_url"   binding:"omitempty,max=512"`
	Tags        []string `json:"tags"        binding:"omitempty,max=16,dive,max=32"`
}

func (h *PostHandler) create(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	var in postCreateIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	view, err := h.posts.Create(c, p, service.PostCreateInput{
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Tags:        in.Tags,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, view)
}

type pageQ struct {
	Offset int `form:"offset,default=0"  binding:"omitempty,min=0"`
	Limit  int `form:"limit,default=20"  binding:"omitempty,min=1,max=100"`
}

func (h *PostHandler) list(c *gin.Context) {
	var q pageQ
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, err.Error())
		return
	}
	views, total, err := h.posts.List(c, q.Offset, q.Limit)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"total": total, "items": views})
}

func (h *PostHandler) get(c *gin.Context) {
	view, err := h.posts.Get(c, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, view)
}

type postUpdateIn struct {
	Description string `json:"description" binding:"required,max=2000"`
}

func (h *PostHandler) update(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	var in postUpdateIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	// 决策顺序：存在性 → 属主 → 角色捷径 → 权限并集
	if _, err := h.engine.AuthorizePost(c, p, c.Param("id"), authz.VerbUpdate); err != nil {
		Fail(c, err)
		return
	}
	view, err := h.posts.UpdateDescription(c, c.Param("id"), in.Description)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, view)
}

func (h *PostHandler) delete(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	if _, err := h.engine.AuthorizePost(c, p, c.Param("id"), authz.VerbDelete); err != nil {
		Fail(c, err)
		return
	}
	if err := h.posts.Delete(c, c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"id": c.Param("id")})
}

type rateIn struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

func (h *PostHandler) rate(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	var in rateIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	view, err := h.posts.Rate(c, c.Param("id"), p.ID, in.Rating)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, view)
}

func (h *PostHandler) shareQR(c *gin.Context) {
	share, err := h.posts.ShareLink(c, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, share)
}
