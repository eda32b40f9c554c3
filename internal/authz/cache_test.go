package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbi46/photo-share/internal/core/cache"
)

func newTestPermCache(t *testing.T) (*PermCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewPermCache(c, time.Minute), mr
}

func TestPermCacheReadThrough(t *testing.T) {
	pc, _ := newTestPermCache(t)
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"update_all_posts"}, nil
	}

	got, err := pc.Get(ctx, RoleModerator, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"update_all_posts"}, got)
	assert.Equal(t, 1, calls)

	// 第二次命中缓存，不再回源
	got, err = pc.Get(ctx, RoleModerator, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"update_all_posts"}, got)
	assert.Equal(t, 1, calls)
}

func TestPermCacheInvalidateForcesReload(t *testing.T) {
	pc, mr := newTestPermCache(t)
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"delete_all_comments"}, nil
	}

	_, err := pc.Get(ctx, RoleModerator, load)
	require.NoError(t, err)
	require.True(t, mr.Exists("authz:perms:moderator"))

	require.NoError(t, pc.Invalidate(ctx, RoleModerator))
	assert.False(t, mr.Exists("authz:perms:moderator"))

	_, err = pc.Get(ctx, RoleModerator, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBootstrapInvalidatesPermCache(t *testing.T) {
	db := newTestDB(t)
	pc, mr := newTestPermCache(t)
	boot := NewBootstrap(db, nil, pc)
	ctx := context.Background()

	// 先塞一份过期内容，引导完成后应被清掉
	require.NoError(t, mr.Set("authz:perms:moderator", `["stale"]`))

	_, err := boot.EnsureRole(ctx, RoleModerator)
	require.NoError(t, err)
	assert.False(t, mr.Exists("authz:perms:moderator"))

	// 带缓存的引擎此后读到的是库里的真实权限集
	engine := NewEngine(db, pc)
	mod := seedUser(t, db, boot, "mod", RoleModerator)
	perms, err := engine.PermissionNames(ctx, mod)
	require.NoError(t, err)
	assert.Contains(t, perms, "update_all_posts")
	assert.NotContains(t, perms, "stale")
}

func TestEngineDecisionsWithCacheBackend(t *testing.T) {
	db := newTestDB(t)
	pc, _ := newTestPermCache(t)
	boot := NewBootstrap(db, nil, pc)
	engine := NewEngine(db, pc)
	ctx := context.Background()

	owner := seedUser(t, db, boot, "owner", RoleUser)
	mod := seedUser(t, db, boot, "mod", RoleModerator)
	post := seedPost(t, db, owner)
	comment := seedComment(t, db, post, owner)

	_, err := engine.AuthorizeComment(ctx, mod, comment.ID, VerbDelete)
	require.NoError(t, err)

	_, err = engine.AuthorizeComment(ctx, mod, comment.ID, VerbUpdate)
	assert.True(t, IsForbidden(err))
}
