package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/service"
	resp "github.com/gbi46/photo-share/internal/transport/http/response"
)

// Fail 统一错误出口：业务错误 → code，其余 → 500
func Fail(c *gin.Context, err error) {
	c.JSON(http.StatusOK, resp.Error(codeOf(err), err.Error()))
}

func codeOf(err error) int {
	var nf *authz.NotFoundError
	if errors.As(err, &nf) {
		return resp.CodeNotFound
	}
	var fb *authz.ForbiddenError
	if errors.As(err, &fb) {
		return resp.CodeForbidden
	}
	switch {
	case errors.Is(err, authz.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return resp.CodeUnauthorized
	case errors.Is(err, service.ErrUserInactive):
		return resp.CodeForbidden
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken):
		return resp.CodeConflict
	case errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrTooManyTags):
		return resp.CodeBadRequest
	}
	return resp.CodeServerError
}

// OK 成功出口
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, resp.OK(data))
}

// BadRequest 参数错误（绑定失败等）
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, msg))
}
