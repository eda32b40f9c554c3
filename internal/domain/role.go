package domain

// Role 与 Permission 都按 name 全局唯一，懒创建、核心层不删除
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:32;not null" json:"name"`

	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

func (Permission) TableName() string { return "permissions" }

// 关联表显式建模，便于存在性检查 + 幂等插入
type UserRole struct {
	UserID string `gorm:"primaryKey;size:36"`
	RoleID uint   `gorm:"primaryKey"`
}

func (UserRole) TableName() string { return "user_roles" }

type RolePermission struct {
	RoleID       uint `gorm:"primaryKey"`
	PermissionID uint `gorm:"primaryKey"`
}

func (RolePermission) TableName() string { return "role_permissions" }
