// Package server 路由配置与核心基础设施
//
// 本包把各领域独立包（auth、adminuser、role）组装成一个 HTTP 服务：
//   - common.go: Handler 定义与通用工具
//   - handler.go: 路由装配
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"lms-admin/internal/apiserver/auth"
	"lms-admin/internal/shared/cache"
	"lms-admin/internal/shared/delivery"
	"lms-admin/internal/shared/storage"
)

// Handler API 处理器
//
// 依赖说明：
//   - store: MongoDB 存储层（用户、验证码、管理员、角色）
//   - gateway: 短信投递网关（生产为 Karix，测试为 Mock）
//   - cooldown: 验证码重发冷却缓存（Redis，可降级为 NoOp）
type Handler struct {
	store    storage.Store
	gateway  delivery.Gateway
	cooldown cache.Cache
	authCfg  auth.Config
	metrics  *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.Store, gateway delivery.Gateway, cooldown cache.Cache, authCfg auth.Config) *Handler {
	if cooldown == nil {
		cooldown = cache.NewNoOpCache()
	}
	return &Handler{
		store:    store,
		gateway:  gateway,
		cooldown: cooldown,
		authCfg:  authCfg,
		metrics:  NewMetrics("lms"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
