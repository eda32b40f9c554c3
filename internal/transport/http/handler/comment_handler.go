package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/service"
	mdw "github.com/gbi46/photo-share/internal/transport/http/middleware"
)

type CommentHandler struct {
	comments *service.CommentService
	engine   *authz.Engine
}

func NewCommentHandler(comments *service.CommentService, engine *authz.Engine) *CommentHandler {
	return &CommentHandler{comments: comments, engine: engine}
}

func (h *CommentHandler) MountPublic(g *gin.RouterGroup) {
	g.GET("/posts/:id/comments", h.listByPost)
	g.GET("/comments/:id", h.get)
}

func (h *CommentHandler) MountAuthed(g *gin.RouterGroup) {
	g.POST("/posts/:id/comments", mdw.RequireRole(h.engine, authz.RoleUser), h.add)
	g.PUT("/comments/:id", h.update)
	g.DELETE("/comments/:id", h.delete)
}

func (h *CommentHandler) MountAPI(public, authed *gin.RouterGroup) {
	h.MountPublic(public)
	h.MountAuthed(authed)
}

// Priority 评论路由后挂，避开 /posts/:id 段的歧义
func (h *CommentHandler) Priority() int { return 110 }

type commentIn struct {
	Message string `json:"message" binding:"required,max=1000"`
}

func (h *CommentHandler) add(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	var in commentIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	cm, err := h.comments.Add(c, c.Param("id"), p.ID, in.Message)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, cm)
}

func (h *CommentHandler) listByPost(c *gin.Context) {
	items, err := h.comments.ListByPost(c, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"items": items})
}

func (h *CommentHandler) get(c *gin.Context) {
	cm, err := h.comments.Get(c, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, cm)
}

// update 评论没有角色捷径，非属主必须持 update_all_comments
func (h *CommentHandler) update(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	var in commentIn
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if _, err := h.engine.AuthorizeComment(c, p, c.Param("id"), authz.VerbUpdate); err != nil {
		Fail(c, err)
		return
	}
	cm, err := h.comments.Update(c, c.Param("id"), in.Message)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, cm)
}

func (h *CommentHandler) delete(c *gin.Context) {
	p, ok := mdw.Principal(c)
	if !ok {
		Fail(c, authz.ErrUnauthorized)
		return
	}
	if _, err := h.engine.AuthorizeComment(c, p, c.Param("id"), authz.VerbDelete); err != nil {
		Fail(c, err)
		return
	}
	if err := h.comments.Delete(c, c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"id": c.Param("id")})
}
