package authz

import (
	"context"
	"time"

	"github.com/gbi46/photo-share/internal/core/cache"
)

// PermCache 角色名 → 权限名列表的读穿缓存。
// 决策路径每次命中都要展开权限并集，不缓存会打出查询风暴；
// 挂接写入后按角色失效，幂等性仍由数据库唯一索引兜底
type PermCache struct {
	c   *cache.Cache
	ttl time.Duration
}

func NewPermCache(c *cache.Cache, ttl time.Duration) *PermCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PermCache{c: c, ttl: ttl}
}

func permKey(roleName string) string { return "authz:perms:" + roleName }

func (pc *PermCache) Get(ctx context.Context, roleName string, load func(ctx context.Context) ([]string, error)) ([]string, error) {
	out, err := cache.GetOrLoadJSON[[]string](pc.c, ctx, permKey(roleName), pc.ttl, func(ctx context.Context) (*[]string, error) {
		names, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return &names, nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return *out, nil
}

func (pc *PermCache) Invalidate(ctx context.Context, roleName string) error {
	return pc.c.Invalidate(ctx, permKey(roleName))
}
