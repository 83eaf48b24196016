package auth

import (
	"log"
	"net/http"
	"strings"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/auth/phone/",
	"/health",
	"/metrics",
}

// 免认证路由精确匹配
var publicExact = map[string]bool{
	"POST /api/admin-users/login": true,
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return publicExact[method+" "+path]
}

// Middleware 创建 JWT 认证中间件
//
// 解析 Bearer 令牌并把认证主体注入 context；
// 公开路由直接放行。授权（模块/动作）由各 handler 的权限门控负责。
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeMessage(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeMessage(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			// 解析 JWT
			claims, err := ParseToken(cfg, parts[1])
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			user := &AuthUser{
				ID:       claims.Subject,
				Email:    claims.Email,
				Name:     claims.Name,
				Role:     claims.Role,
				UserType: claims.UserType,
				RoleID:   claims.RoleID,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// AdminOnly 后台主体专属路由中间件（不区分模块权限，只要求管理员身份）
//
// 非后台主体视同未认证，返回 401。
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil || !user.IsAdmin() {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"message": "admin access required",
			})
			return
		}
		next(w, r)
	}
}
