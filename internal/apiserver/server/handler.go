package server

import (
	"net/http"

	"lms-admin/internal/apiserver/adminuser"
	"lms-admin/internal/apiserver/auth"
	"lms-admin/internal/apiserver/role"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 学员认证 (Auth):
//   - POST /api/auth/phone/send-otp            - 发送验证码
//   - POST /api/auth/phone/mobileVerify-otp    - 核验验证码并登录
//   - POST /api/auth/phone/login-phone         - 已验证用户的验证码登录
//   - POST /api/auth/phone/register            - 注册并发送验证码
//   - POST /api/auth/phone/verify-registration - 核验注册验证码
//   - POST /api/auth/phone/login-password      - 密码登录
//
// 后台管理 (AdminUser):
//   - POST   /api/admin-users/login               - 管理员登录
//   - GET    /api/admin-users/me                  - 当前管理员与实时权限
//   - GET    /api/admin-users                     - 列出管理员
//   - POST   /api/admin-users                     - 创建管理员
//   - GET    /api/admin-users/{id}                - 获取管理员
//   - PUT    /api/admin-users/{id}                - 更新管理员
//   - PUT    /api/admin-users/{id}/assign-role    - 指派角色
//   - PUT    /api/admin-users/{id}/toggle-status  - 启用/停用
//   - PUT    /api/admin-users/{id}/reset-password - 重置密码
//   - DELETE /api/admin-users/{id}                - 删除管理员
//
// 角色管理 (Role):
//   - GET    /api/roles      - 列出角色
//   - POST   /api/roles      - 创建角色
//   - GET    /api/roles/{id} - 获取角色
//   - PUT    /api/roles/{id} - 更新角色
//   - DELETE /api/roles/{id} - 删除角色
//
// 学员管理 (Students):
//   - GET  /api/admin/students            - 列出学员
//   - POST /api/admin/students/{id}/ban   - 封禁学员
//   - POST /api/admin/students/{id}/unban - 解封学员
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// 学员手机号认证
	authSvc := auth.NewService(h.store, h.gateway, h.cooldown, h.authCfg)
	authSvc.SetRecorder(h.metrics)
	authHandler := auth.NewHandler(authSvc, h.authCfg)
	authHandler.RegisterRoutes(mux)

	// 后台管理（账号、学员管理，带权限门控）
	adminHandler := adminuser.NewHandler(h.store, h.authCfg)
	adminHandler.SetRecorder(h.metrics)
	adminHandler.RegisterRoutes(mux)

	// 角色管理，复用后台管理的权限门控
	roleHandler := role.NewHandler(h.store, h.authCfg)
	roleHandler.RegisterRoutes(mux, adminHandler.Require)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authCfg)(apiHandler)

	// 应用 CORS 中间件
	return corsMiddleware(authedHandler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
