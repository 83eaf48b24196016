// Package cache 定义缓存层抽象接口
//
// 目前唯一的用途是验证码重发冷却：同一手机号在冷却窗口内
// 不允许再次签发验证码。生效权限刻意不做缓存（见权限模型说明）。
package cache

import (
	"context"
	"time"
)

// DefaultResendCooldown 验证码重发冷却窗口
const DefaultResendCooldown = 60 * time.Second

// Cache 缓存接口
type Cache interface {
	// SetOTPCooldown 为手机号设置重发冷却，窗口到期自动清除
	SetOTPCooldown(ctx context.Context, phone string, ttl time.Duration) error
	// InOTPCooldown 判断手机号是否处于冷却窗口内
	InOTPCooldown(ctx context.Context, phone string) (bool, error)

	Close() error
}
