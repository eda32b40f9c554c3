package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	coreauth "github.com/gbi46/photo-share/internal/core/auth"
	"github.com/gbi46/photo-share/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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

func newTestJWTer() *coreauth.JWTer {
	return &coreauth.JWTer{
		Secret:        []byte("test-access"),
		RefreshSecret: []byte("test-refresh"),
		Issuer:        "photo-share-test",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}
