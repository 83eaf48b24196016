package auth

import "errors"

// 认证流程领域错误
//
// Handler 层负责把这些错误映射为 HTTP 状态码，
// 客户端只收到简短可操作的 message，不暴露内部细节。
var (
	// ErrInvalidPhone 手机号不满足 ^[6-9]\d{9}$（400）
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInvalidCode 验证码不是 6 位数字（400）
	ErrInvalidCode = errors.New("invalid otp format")

	// ErrUserNotFound 手机号对应的用户不存在（404）
	ErrUserNotFound = errors.New("user not found")

	// ErrBanned 用户被封禁，任何登录方式均拒绝（403）
	ErrBanned = errors.New("account suspended")

	// ErrNoCode 没有未消费的验证码记录（404）
	ErrNoCode = errors.New("no otp found")

	// ErrCodeExpired 验证码超过 5 分钟有效期，记录已删除（400）
	ErrCodeExpired = errors.New("otp expired")

	// ErrCodeMismatch 验证码不匹配，记录保留可重试（400）
	ErrCodeMismatch = errors.New("otp mismatch")

	// ErrNotVerified 手机号尚未完成验证（403/404，按路由语义）
	ErrNotVerified = errors.New("phone not verified")

	// ErrNoPassword 用户未设置密码，不能走密码登录（400）
	ErrNoPassword = errors.New("password not set")

	// ErrPasswordTooShort 注册/重置密码长度不足 6 位（400）
	ErrPasswordTooShort = errors.New("password too short")

	// ErrPasswordMismatch 密码错误（401）
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrAccountExists 已验证且已设密码的手机号重复注册（400）
	ErrAccountExists = errors.New("account already exists")

	// ErrDeliveryFailed 短信网关投递失败（500）
	ErrDeliveryFailed = errors.New("otp delivery failed")

	// ErrResendCooldown 重发冷却窗口内再次请求（429）
	ErrResendCooldown = errors.New("otp resend cooldown")
)
