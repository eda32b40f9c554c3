package authz

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/domain"
)

// Engine 按请求做访问决策。所有判定只读，顺序固定：
// 存在性 → 归属 → 角色捷径（仅 post）→ 权限并集 → 拒绝
type Engine struct {
	db    *gorm.DB
	cache *PermCache // 可为 nil，nil 时直查数据库
}

func NewEngine(db *gorm.DB, cache *PermCache) *Engine {
	return &Engine{db: db, cache: cache}
}

// AuthorizePost post 规则较粗：作者放行，admin/moderator 直接放行，
// 否则查 "{verb}_all_posts" 权限
func (e *Engine) AuthorizePost(ctx context.Context, principal *domain.User, postID string, verb Verb) (*domain.Post, error) {
	var post domain.Post
	err := e.db.WithContext(ctx).Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(post.ResourceKind())
	}
	if err != nil {
		return nil, err
	}

	if post.OwnerID() == principal.ID {
		return &post, nil
	}

	roles, err := e.roleNames(ctx, principal)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if IsElevated(r) {
			return &post, nil
		}
	}

	perms, err := e.permissionSet(ctx, roles)
	if err != nil {
		return nil, err
	}
	if _, ok := perms[Perm{verb, post.PermSuffix()}.Name()]; ok {
		return &post, nil
	}

	return nil, forbiddenVerb(verb, post.ResourceKind())
}

// AuthorizeComment comment 规则更严：没有角色捷径，
// 非作者必须持有 "{verb}_all_comments" 权限。
// post/comment 的这对不对称是刻意的策略差异，不能合并
func (e *Engine) AuthorizeComment(ctx context.Context, principal *domain.User, commentID string, verb Verb) (*domain.Comment, error) {
	var comment domain.Comment
	err := e.db.WithContext(ctx).Where("id = ?", commentID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(comment.ResourceKind())
	}
	if err != nil {
		return nil, err
	}

	if comment.OwnerID() == principal.ID {
		return &comment, nil
	}

	roles, err := e.roleNames(ctx, principal)
	if err != nil {
		return nil, err
	}
	perms, err := e.permissionSet(ctx, roles)
	if err != nil {
		return nil, err
	}
	if _, ok := perms[Perm{verb, comment.PermSuffix()}.Name()]; ok {
		return &comment, nil
	}

	return nil, forbiddenVerb(verb, comment.ResourceKind())
}

// AuthorizeAccountView 本人或 admin 可看
func (e *Engine) AuthorizeAccountView(ctx context.Context, principal *domain.User, accountID string) (*domain.User, error) {
	account, err := e.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.ID == principal.ID {
		return account, nil
	}

	roles, err := e.roleNames(ctx, principal)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r == RoleAdmin {
			return account, nil
		}
	}

	return nil, &ForbiddenError{Reason: "you cannot view this account"}
}

// AuthorizeAccountUpdate 与查看同形，存在性仍先判
func (e *Engine) AuthorizeAccountUpdate(ctx context.Context, principal *domain.User, accountID string) (*domain.User, error) {
	account, err := e.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.ID == principal.ID {
		return account, nil
	}

	roles, err := e.roleNames(ctx, principal)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r == RoleAdmin {
			return account, nil
		}
	}

	return nil, &ForbiddenError{Reason: "you cannot update this account"}
}

// RequireRole 粗粒度路由闸：字面持有该角色名才放行
func (e *Engine) RequireRole(ctx context.Context, principal *domain.User, roleName string) error {
	roles, err := e.roleNames(ctx, principal)
	if err != nil {
		return err
	}
	for _, r := range roles {
		if r == roleName {
			return nil
		}
	}
	return &ForbiddenError{Reason: "insufficient role"}
}

// RequirePermission 无单一归属资源的动作用它单独做权限闸
func (e *Engine) RequirePermission(ctx context.Context, principal *domain.User, permName string) error {
	roles, err := e.roleNames(ctx, principal)
	if err != nil {
		return err
	}
	perms, err := e.permissionSet(ctx, roles)
	if err != nil {
		return err
	}
	if _, ok := perms[permName]; !ok {
		return &ForbiddenError{Reason: "missing permission: " + permName}
	}
	return nil
}

// PermissionNames 主体全部角色的权限名并集
func (e *Engine) PermissionNames(ctx context.Context, principal *domain.User) (map[string]struct{}, error) {
	roles, err := e.roleNames(ctx, principal)
	if err != nil {
		return nil, err
	}
	return e.permissionSet(ctx, roles)
}

func (e *Engine) findAccount(ctx context.Context, accountID string) (*domain.User, error) {
	var account domain.User
	err := e.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("account")
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (e *Engine) roleNames(ctx context.Context, u *domain.User) ([]string, error) {
	if len(u.Roles) > 0 {
		return u.RoleNames(), nil
	}
	var names []string
	err := e.db.WithContext(ctx).Model(&domain.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", u.ID).
		Pluck("roles.name", &names).Error
	return names, err
}

func (e *Engine) permissionSet(ctx context.Context, roleNames []string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, role := range roleNames {
		names, err := e.rolePermNames(ctx, role)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			set[n] = struct{}{}
		}
	}
	return set, nil
}

func (e *Engine) rolePermNames(ctx context.Context, roleName string) ([]string, error) {
	load := func(ctx context.Context) ([]string, error) {
		var names []string
		err := e.db.WithContext(ctx).Model(&domain.Permission{}).
			Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
			Joins("JOIN roles ON roles.id = role_permissions.role_id").
			Where("roles.name = ?", roleName).
			Pluck("permissions.name", &names).Error
		return names, err
	}
	if e.cache == nil {
		return load(ctx)
	}
	return e.cache.Get(ctx, roleName, load)
}
