package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/pkg/utils"
)

type CommentRepo struct{ db *gorm.DB }

func NewCommentRepo(db *gorm.DB) *CommentRepo { return &CommentRepo{db: db} }

func (r *CommentRepo) Add(ctx context.Context, postID, userID, message string) (*domain.Comment, error) {
	c := &domain.Comment{
		ID:      utils.NewID(),
		PostID:  postID,
		UserID:  userID,
		Message: message,
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepo) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) UpdateMessage(ctx context.Context, id, message string) (*domain.Comment, error) {
	if err := r.db.WithContext(ctx).Model(&domain.Comment{}).Where("id = ?", id).
		Update("message", message).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *CommentRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Comment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
