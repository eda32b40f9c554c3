package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/pkg/utils"
)

type TokenRepo struct{ db *gorm.DB }

func NewTokenRepo(db *gorm.DB) *TokenRepo { return &TokenRepo{db: db} }

func (r *TokenRepo) Store(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Create(&domain.RefreshToken{
		ID:        utils.NewID(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}).Error
}

func (r *TokenRepo) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).First(&t, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Revoke 轮换时旧 token 标记吊销，不删行
func (r *TokenRepo) Revoke(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("id = ?", id).Update("revoked_at", &now).Error
}

func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", &now).Error
}
