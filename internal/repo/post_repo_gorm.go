package repo

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/pkg/utils"
)

type PostRepo struct{ db *gorm.DB }

func NewPostRepo(db *gorm.DB) *PostRepo { return &PostRepo{db: db} }

// Create 帖子与标签同事务落库；标签行按名懒建，
// 重复的 post_tags 关联跳过
func (r *PostRepo) Create(ctx context.Context, post *domain.Post, tagNames []string) error {
	if post.ID == "" {
		post.ID = utils.NewID()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Create(post).Error; err != nil {
			return err
		}
		for _, name := range tagNames {
			var tag domain.Tag
			err := tx.Where("name = ?", name).First(&tag).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				tag = domain.Tag{Name: name}
				if err := tx.Create(&tag).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			if err := tx.Model(post).Omit("Tags.*").Association("Tags").Append(&tag); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostRepo) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).
		Preload("Tags").Preload("Ratings").
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) List(ctx context.Context, offset, limit int) ([]domain.Post, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Post{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []domain.Post
	if err := tx.Preload("Tags").Preload("Ratings").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepo) UpdateDescription(ctx context.Context, id, description string) (*domain.Post, error) {
	if err := r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).
		Update("description", description).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *PostRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Rate 每 (post, user) 至多一条评分，重复提交按更新处理
func (r *PostRepo) Rate(ctx context.Context, postID, userID string, rating int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.PostRating
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&domain.PostRating{
				ID:     utils.NewID(),
				PostID: postID,
				UserID: userID,
				Rating: rating,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Update("rating", rating).Error
	})
}

// AvgRating 均分保留两位，无评分时返回 0 与 count 0
func AvgRating(ratings []domain.PostRating) (avg float64, count int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	avg = float64(sum) / float64(len(ratings))
	return math.Round(avg*100) / 100, len(ratings)
}
