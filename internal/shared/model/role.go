package model

import "time"

// Role 命名权限包
//
// 一个角色可被多个管理员引用，生命周期独立于任何单个账号。
// Permissions 为部分授权：未出现的模块/动作视为未授权。
type Role struct {
	ID          string        `json:"_id" bson:"_id"`
	Name        string        `json:"name" bson:"name"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
	Permissions PermissionMap `json:"permissions" bson:"permissions"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updated_at"`
}
