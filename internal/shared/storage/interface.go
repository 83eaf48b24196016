// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（生产）、memstore/（测试）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"lms-admin/internal/shared/model"
)

// UserStore 学员用户存储
//
// 按手机号/邮箱查询时，实体不存在返回 (nil, nil)，调用方据此区分
// "不存在"与查询错误；按 ID 的写操作找不到实体时返回 ErrNotFound。
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// OTPStore 验证码存储
type OTPStore interface {
	CreateOTP(ctx context.Context, otp *model.OTP) error
	// GetLatestOTPByUser 返回该用户按 created_at 最新的一条记录；不存在返回 (nil, nil)
	GetLatestOTPByUser(ctx context.Context, userID string) (*model.OTP, error)
	DeleteOTP(ctx context.Context, id string) error
	DeleteOTPsByUser(ctx context.Context, userID string) error
}

// AdminUserStore 后台管理员存储
type AdminUserStore interface {
	CreateAdminUser(ctx context.Context, admin *model.AdminUser) error
	GetAdminUserByID(ctx context.Context, id string) (*model.AdminUser, error)
	GetAdminUserByEmail(ctx context.Context, email string) (*model.AdminUser, error)
	UpdateAdminUser(ctx context.Context, admin *model.AdminUser) error
	DeleteAdminUser(ctx context.Context, id string) error
	// ListAdminUsers 按 userType / status 过滤，空串表示不过滤
	ListAdminUsers(ctx context.Context, userType model.AdminType, status model.AdminStatus) ([]*model.AdminUser, error)
}

// RoleStore 角色存储
type RoleStore interface {
	CreateRole(ctx context.Context, role *model.Role) error
	GetRoleByID(ctx context.Context, id string) (*model.Role, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	UpdateRole(ctx context.Context, role *model.Role) error
	DeleteRole(ctx context.Context, id string) error
	ListRoles(ctx context.Context) ([]*model.Role, error)
}

// Store 完整持久化存储接口
type Store interface {
	UserStore
	OTPStore
	AdminUserStore
	RoleStore

	Close() error
}
