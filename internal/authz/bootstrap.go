package authz

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/domain"
)

// Bootstrap 负责内置角色/权限的懒创建：
// 幂等、可并发重入，唯一索引是最终裁判
type Bootstrap struct {
	db    *gorm.DB
	log   *zap.Logger
	cache *PermCache // 可为 nil
}

func NewBootstrap(db *gorm.DB, log *zap.Logger, cache *PermCache) *Bootstrap {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bootstrap{db: db, log: log, cache: cache}
}

// EnsureRole 按名取角色：已存在则原样返回（不动权限）；
// 不存在则建行、提交，再挂默认权限集
func (b *Bootstrap) EnsureRole(ctx context.Context, name string) (*domain.Role, error) {
	role, err := b.findRole(ctx, b.db, name)
	if err != nil {
		return nil, err
	}
	if role != nil {
		return role, nil
	}

	role = &domain.Role{Name: name}
	if err := b.db.WithContext(ctx).Create(role).Error; err != nil {
		// 并发兜底：唯一冲突 → 当作已存在，再查一次
		if !isDupKey(err) {
			return nil, err
		}
		if role, err = b.findRole(ctx, b.db, name); err != nil {
			return nil, err
		}
		if role == nil {
			return nil, gorm.ErrRecordNotFound
		}
	}

	if err := b.EnsurePermissions(ctx, name); err != nil {
		return nil, err
	}
	return role, nil
}

// EnsurePermissions 给角色挂默认权限集：缺的权限行补建，
// 缺的关联补插，已有的跳过；整批一次提交
func (b *Bootstrap) EnsurePermissions(ctx context.Context, roleName string) error {
	perms := DefaultRolePerms(roleName)
	if len(perms) == 0 {
		return nil
	}

	role, err := b.findRole(ctx, b.db, roleName)
	if err != nil {
		return err
	}
	if role == nil {
		// 防御：先于 EnsureRole 被调到时就地补建
		r := &domain.Role{Name: roleName}
		if err := b.db.WithContext(ctx).Create(r).Error; err != nil && !isDupKey(err) {
			return err
		}
		if role, err = b.findRole(ctx, b.db, roleName); err != nil {
			return err
		}
	}
	if role == nil {
		// 建完还取不到属于存储不一致，记日志放行，不让引导拖垮请求
		b.log.Warn("bootstrap: role unresolvable after create", zap.String("role", roleName))
		return nil
	}

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range perms {
			perm, err := b.ensurePermissionRow(ctx, tx, p.Name())
			if err != nil {
				return err
			}
			if err := b.linkRolePermission(ctx, tx, role.ID, perm.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if b.cache != nil {
		_ = b.cache.Invalidate(ctx, roleName)
	}
	return nil
}

func (b *Bootstrap) findRole(ctx context.Context, tx *gorm.DB, name string) (*domain.Role, error) {
	var role domain.Role
	err := tx.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (b *Bootstrap) ensurePermissionRow(ctx context.Context, tx *gorm.DB, name string) (*domain.Permission, error) {
	var perm domain.Permission
	err := tx.WithContext(ctx).Where("name = ?", name).First(&perm).Error
	if err == nil {
		return &perm, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	perm = domain.Permission{Name: name}
	if err := tx.WithContext(ctx).Create(&perm).Error; err != nil {
		if !isDupKey(err) {
			return nil, err
		}
		if err := tx.WithContext(ctx).Where("name = ?", name).First(&perm).Error; err != nil {
			return nil, err
		}
	}
	return &perm, nil
}

// 关联唯一 per (role, permission)，重复挂接是 no-op
func (b *Bootstrap) linkRolePermission(ctx context.Context, tx *gorm.DB, roleID, permID uint) error {
	var n int64
	if err := tx.WithContext(ctx).Model(&domain.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Create(&domain.RolePermission{RoleID: roleID, PermissionID: permID}).Error; err != nil {
		if isDupKey(err) {
			return nil
		}
		return err
	}
	return nil
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
