// 路由装配的端到端测试
//
// Prometheus 指标注册在默认 registry，Handler 全局只建一次。
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"lms-admin/internal/apiserver/adminuser"
	"lms-admin/internal/apiserver/auth"
	"lms-admin/internal/shared/cache"
	"lms-admin/internal/shared/delivery"
	"lms-admin/internal/shared/storage/memstore"
)

var (
	envOnce    sync.Once
	envRouter  http.Handler
	envStore   *memstore.Store
	envGateway *delivery.MockGateway
	envCfg     auth.Config
)

func testRouter(t *testing.T) (http.Handler, *memstore.Store, *delivery.MockGateway) {
	t.Helper()

	envOnce.Do(func() {
		envStore = memstore.NewStore()
		envGateway = delivery.NewMockGateway()
		envCfg = auth.DefaultConfig()
		envCfg.JWTSecret = "test-secret"

		if err := adminuser.EnsureSuperadmin(envStore, "root@example.com", "secret123"); err != nil {
			panic(err)
		}

		h := NewHandler(envStore, envGateway, cache.NewNoOpCache(), envCfg)
		envRouter = h.Router()
	})
	return envRouter, envStore, envGateway
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router, _, _ := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health: status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("metrics: status = %d", w.Code)
	}
}

func TestRouter_PublicAuthRoutes(t *testing.T) {
	router, _, gateway := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/phone/send-otp", "", map[string]string{
		"phoneNumber": "9876543210",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send-otp: status = %d (body: %s)", w.Code, w.Body.String())
	}
	if gateway.LastCode() == "" {
		t.Error("no SMS recorded")
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router, _, _ := testRouter(t)

	for _, rt := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/admin-users"},
		{http.MethodGet, "/api/admin-users/me"},
		{http.MethodGet, "/api/roles"},
		{http.MethodGet, "/api/admin/students"},
	} {
		w := doJSON(t, router, rt.method, rt.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", rt.method, rt.path, w.Code)
		}
	}
}

func TestRouter_AdminLoginFlow(t *testing.T) {
	router, store, _ := testRouter(t)

	// 超管登录（公开路由）
	w := doJSON(t, router, http.MethodPost, "/api/admin-users/login", "", map[string]string{
		"email":    "root@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d (body: %s)", w.Code, w.Body.String())
	}
	var loginResp struct {
		Token       string                            `json:"token"`
		Permissions map[string]map[string]interface{} `json:"permissions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if loginResp.Token == "" {
		t.Fatal("no token in login response")
	}
	if loginResp.Permissions["roleManagement"]["view"] != true {
		t.Error("superadmin permissions not full")
	}

	// 凭令牌访问受保护路由
	w = doJSON(t, router, http.MethodGet, "/api/admin-users/me", loginResp.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status = %d (body: %s)", w.Code, w.Body.String())
	}

	// 建角色、建子管理员、用子管理员访问
	w = doJSON(t, router, http.MethodPost, "/api/roles", loginResp.Token, map[string]interface{}{
		"name": "Router Test Role",
		"permissions": map[string]interface{}{
			"roleManagement": map[string]bool{"view": true},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create role: status = %d (body: %s)", w.Code, w.Body.String())
	}

	// 登录应刷新 lastLogin
	admin, _ := store.GetAdminUserByEmail(context.Background(), "root@example.com")
	if admin == nil {
		t.Fatal("superadmin missing")
	}
	if admin.LastLogin == nil {
		t.Error("lastLogin not set after login")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/health", "/health"},
		{"/api/admin-users/login", "/api/admin-users/login"},
		{"/api/admin-users/me", "/api/admin-users/me"},
		{"/api/admin-users", "/api/admin-users"},
		{"/api/admin-users/adm-123", "/api/admin-users/{id}"},
		{"/api/admin-users/adm-123/assign-role", "/api/admin-users/{id}/assign-role"},
		{"/api/roles/role-9", "/api/roles/{id}"},
		{"/api/admin/students/usr-7/ban", "/api/admin/students/{id}/ban"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
