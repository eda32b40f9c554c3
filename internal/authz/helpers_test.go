package authz

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gbi46/photo-share/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// 每个用例独立的共享内存库，连接池内复用同一份数据
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Role{}, &domain.Permission{},
		&domain.User{}, &domain.RefreshToken{},
		&domain.Post{}, &domain.Tag{}, &domain.Comment{}, &domain.PostRating{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, boot *Bootstrap, username string, roleNames ...string) *domain.User {
	t.Helper()
	ctx := context.Background()
	roles := make([]domain.Role, 0, len(roleNames))
	for _, name := range roleNames {
		r, err := boot.EnsureRole(ctx, name)
		require.NoError(t, err)
		roles = append(roles, *r)
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Status:       domain.StatusActive,
		Roles:        roles,
	}
	require.NoError(t, db.Omit("Roles.*").Create(u).Error)
	return u
}

func seedPost(t *testing.T, db *gorm.DB, owner *domain.User) *domain.Post {
	t.Helper()
	p := &domain.Post{
		ID:          uuid.NewString(),
		UserID:      owner.ID,
		Title:       "t",
		Description: "d",
		ImageURL:    "http://img.example.com/a.png",
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedComment(t *testing.T, db *gorm.DB, post *domain.Post, author *domain.User) *domain.Comment {
	t.Helper()
	c := &domain.Comment{
		ID:      uuid.NewString(),
		PostID:  post.ID,
		UserID:  author.ID,
		Message: "m",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}
