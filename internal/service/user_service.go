package service

import (
	"context"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
)

type UserService struct {
	users *repo.UserRepo
}

func NewUserService(users *repo.UserRepo) *UserService { return &UserService{users: users} }

type Profile struct {
	User          *domain.User `json:"user"`
	PostsCount    int64        `json:"postsCount"`
	CommentsCount int64        `json:"commentsCount"`
}

func (s *UserService) ProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &authz.NotFoundError{Kind: "user"}
	}
	posts, comments, err := s.users.ProfileCounts(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, PostsCount: posts, CommentsCount: comments}, nil
}

func (s *UserService) Account(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &authz.NotFoundError{Kind: "account"}
	}
	return u, nil
}

func (s *UserService) UpdateAccount(ctx context.Context, id string, in repo.ProfileUpdate) (*domain.User, error) {
	u, err := s.users.UpdateProfile(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &authz.NotFoundError{Kind: "account"}
	}
	return u, nil
}

// UpdateStatus 封禁/解封走状态位，账号不做物理删除
func (s *UserService) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error) {
	u, err := s.users.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &authz.NotFoundError{Kind: "account"}
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int, q string) ([]domain.User, int64, error) {
	return s.users.List(ctx, offset, limit, q)
}
