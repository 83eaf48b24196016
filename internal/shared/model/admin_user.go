package model

import "time"

// AdminType 后台账号分类
type AdminType string

const (
	AdminTypeSuperadmin AdminType = "superadmin"
	AdminTypeSubadmin   AdminType = "subadmin"
	AdminTypeTeacher    AdminType = "teacher"
)

// AdminStatus 后台账号状态
type AdminStatus string

const (
	AdminStatusActive    AdminStatus = "active"
	AdminStatusSuspended AdminStatus = "suspended"
)

// AdminUser 后台管理员
//
// 权限三层：superadmin 全量放行 > 自定义覆盖 > 角色基线，
// 合并逻辑见 EffectivePermissions。superadmin 不可删除、不可停用。
type AdminUser struct {
	ID           string    `json:"_id" bson:"_id"`
	FullName     string    `json:"fullName" bson:"full_name"`
	Email        string    `json:"email" bson:"email"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"` // never expose in JSON
	UserType     AdminType `json:"userType" bson:"user_type"`

	// RoleID 引用 Role 记录；空串表示未配置角色
	RoleID string `json:"roleId,omitempty" bson:"role_id,omitempty"`

	// CustomPermissions 按模块的自定义覆盖；nil 字段回落到角色层
	CustomPermissions PermissionMap `json:"customPermissions,omitempty" bson:"custom_permissions,omitempty"`

	Status    AdminStatus `json:"status" bson:"status"`
	LastLogin *time.Time  `json:"lastLogin,omitempty" bson:"last_login,omitempty"`
	CreatedBy string      `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time   `json:"updatedAt" bson:"updated_at"`
}

// CoarseRole 会话令牌中的粗粒度角色字符串
func (a *AdminUser) CoarseRole() string {
	if a.UserType == AdminTypeSuperadmin {
		return "admin"
	}
	return "subadmin"
}
