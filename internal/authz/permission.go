package authz

import "fmt"

// 内置三档角色，层级只增不减：user ⊂ moderator ⊂ admin
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type Verb string

const (
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Perm 内部用 (动词, 资源) 二元组，入库时再序列化成
// "{verb}_all_{resource}" 的历史命名，避免手拼字符串写错
type Perm struct {
	Verb     Verb
	Resource string // 复数后缀，如 "posts" / "comments"
}

func (p Perm) Name() string { return fmt.Sprintf("%s_all_%s", p.Verb, p.Resource) }

var (
	PermUpdateAllPosts    = Perm{VerbUpdate, "posts"}
	PermDeleteAllPosts    = Perm{VerbDelete, "posts"}
	PermDeleteAllComments = Perm{VerbDelete, "comments"}
)

// DefaultRolePerms 各内置角色的默认权限集（固定表）
func DefaultRolePerms(roleName string) []Perm {
	userPerms := []Perm{}

	moderatorPerms := append(append([]Perm{}, userPerms...),
		PermUpdateAllPosts,
		PermDeleteAllComments,
	)

	adminPerms := append(append([]Perm{}, moderatorPerms...),
		PermDeleteAllPosts,
	)

	switch roleName {
	case RoleUser:
		return userPerms
	case RoleModerator:
		return moderatorPerms
	case RoleAdmin:
		return adminPerms
	default:
		return nil
	}
}

func IsElevated(roleName string) bool {
	return roleName == RoleAdmin || roleName == RoleModerator
}
