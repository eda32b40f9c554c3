package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
)

func newAuthService(t *testing.T, db *gorm.DB, opts AuthOptions) *AuthService {
	t.Helper()
	return NewAuthService(
		db,
		repo.NewUserRepo(db),
		repo.NewTokenRepo(db),
		authz.NewBootstrap(db, nil, nil),
		newTestJWTer(),
		opts,
		nil,
	)
}

func TestSignupFirstUserForcedAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{})
	ctx := context.Background()

	// 明确要 user 也不行，空库第一人就是 admin
	u, err := svc.Signup(ctx, SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "secret1", Role: authz.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{authz.RoleAdmin}, u.RoleNames())
}

func TestSignupSecondUserGetsRequestedRole(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	bob, err := svc.Signup(ctx, SignupInput{
		Username: "bob", Email: "bob@example.com", Password: "secret1", Role: authz.RoleModerator,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{authz.RoleModerator}, bob.RoleNames())

	// 不带角色走配置默认
	carol, err := svc.Signup(ctx, SignupInput{Username: "carol", Email: "carol@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, []string{authz.RoleUser}, carol.RoleNames())
}

func TestSignupGrantBaselineRole(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{GrantBaselineRole: true})
	ctx := context.Background()

	alice, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	// 首人强制 admin，兼容开关再补挂 user
	assert.ElementsMatch(t, []string{authz.RoleAdmin, authz.RoleUser}, alice.RoleNames())
}

func TestSignupRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupInput{Username: "alice", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Signup(ctx, SignupInput{Username: "alice2", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginIssuesPairAndStoresRefresh(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{})
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	var count int64
	require.NoError(t, db.Model(&domain.RefreshToken{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLoginRejectsBadCredentialsAndBanned(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{})
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", u.ID).
		Update("status", domain.StatusBan).Error)
	_, err = svc.Login(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshRotatesToken(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)

	// 旧 refresh 已吊销，重放失败
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// 新 refresh 可继续轮换
	_, err = svc.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{})

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(t, db, AuthOptions{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	// 双密钥互不通用
	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
