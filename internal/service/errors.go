package service

import "errors"

var (
	ErrUsernameTaken       = errors.New("username already exists")
	ErrEmailTaken          = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserInactive        = errors.New("user is not active")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrTooManyTags         = errors.New("too many tags")
)
