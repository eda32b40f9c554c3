package service

import (
	"context"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
)

type CommentService struct {
	comments *repo.CommentRepo
	posts    *repo.PostRepo
}

func NewCommentService(comments *repo.CommentRepo, posts *repo.PostRepo) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

func (s *CommentService) Add(ctx context.Context, postID, userID, message string) (*domain.Comment, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &authz.NotFoundError{Kind: "post"}
	}
	return s.comments.Add(ctx, postID, userID, message)
}

func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}

func (s *CommentService) Get(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &authz.NotFoundError{Kind: "comment"}
	}
	return c, nil
}

// Update 调用方需先过访问决策
func (s *CommentService) Update(ctx context.Context, id, message string) (*domain.Comment, error) {
	return s.comments.UpdateMessage(ctx, id, message)
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	ok, err := s.comments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &authz.NotFoundError{Kind: "comment"}
	}
	return nil
}
