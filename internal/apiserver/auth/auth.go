// Package auth 用户认证：OTP 生命周期、JWT 令牌管理、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"lms-admin/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyAuthUser contextKey = "auth_user"

// AuthUser 从 JWT 解析出的主体信息
type AuthUser struct {
	ID       string
	Email    string
	Name     string
	Role     string // "student" | "admin" | "subadmin"
	UserType string // 管理员专有："superadmin" | "subadmin" | "teacher"
	RoleID   string
}

// IsAdmin 是否为后台主体
func (u *AuthUser) IsAdmin() bool {
	return u.UserType != ""
}

// Config 认证配置
type Config struct {
	JWTSecret     string        `yaml:"-"` // 只从 JWT_SECRET 环境变量读取
	UserTokenTTL  time.Duration `yaml:"user_token_ttl"`
	AdminTokenTTL time.Duration `yaml:"admin_token_ttl"`

	// DevMode 注册验证接受任意 6 位验证码（仅开发环境）
	DevMode bool `yaml:"-"`
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		UserTokenTTL:  30 * 24 * time.Hour,
		AdminTokenTTL: 7 * 24 * time.Hour,
	}
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
//
// 学员令牌只带 Subject；管理员令牌额外携带邮箱、姓名、
// 粗粒度角色、userType 与角色引用。服务端不持久化会话，
// 验证只看签名与过期时间。
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	UserType string `json:"userType,omitempty"`
	RoleID   string `json:"roleId,omitempty"`
}

// GenerateUserToken 生成学员会话令牌（30 天）
func GenerateUserToken(cfg Config, user *model.User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.UserTokenTTL)),
		},
		Role: string(user.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// GenerateAdminToken 生成管理员会话令牌（7 天）
func GenerateAdminToken(cfg Config, admin *model.AdminUser) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.AdminTokenTTL)),
		},
		Email:    admin.Email,
		Name:     admin.FullName,
		Role:     admin.CoarseRole(),
		UserType: string(admin.UserType),
		RoleID:   admin.RoleID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证 JWT
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithAuthUser 将认证主体注入 context
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetAuthUser 从 context 获取认证主体
func GetAuthUser(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(ctxKeyAuthUser).(*AuthUser)
	return user
}
