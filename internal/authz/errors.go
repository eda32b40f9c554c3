package authz

import (
	"errors"
	"fmt"
)

// 错误分三类：NotFound（目标不存在，先于权限判定）、
// Forbidden（已认证但无权）、Unauthorized（身份无效）

type NotFoundError struct {
	Kind string // "post" / "comment" / "account" ...
}

func (e *NotFoundError) Error() string { return e.Kind + " not found" }

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

var ErrUnauthorized = errors.New("unauthorized")

func notFound(kind string) error { return &NotFoundError{Kind: kind} }

func forbiddenVerb(verb Verb, kind string) error {
	return &ForbiddenError{Reason: fmt.Sprintf("you cannot %s this %s", verb, kind)}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsForbidden(err error) bool {
	var fb *ForbiddenError
	return errors.As(err, &fb)
}
