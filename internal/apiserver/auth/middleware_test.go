package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lms-admin/internal/shared/model"
)

func TestIsPublicRoute(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{"POST", "/api/auth/phone/send-otp", true},
		{"POST", "/api/auth/phone/login-password", true},
		{"GET", "/health", true},
		{"GET", "/metrics", true},
		{"POST", "/api/admin-users/login", true},
		{"GET", "/api/admin-users/login", false},
		{"GET", "/api/admin-users", false},
		{"GET", "/api/admin-users/me", false},
		{"GET", "/api/roles", false},
		{"GET", "/api/admin/students", false},
	}
	for _, tt := range tests {
		if got := isPublicRoute(tt.method, tt.path); got != tt.want {
			t.Errorf("isPublicRoute(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestMiddleware_RejectsWithoutToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(cfg)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/admin-users", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestMiddleware_InjectsAuthUser(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"

	admin := &model.AdminUser{
		ID:       "adm-1",
		Email:    "ops@example.com",
		UserType: model.AdminTypeSubadmin,
		RoleID:   "role-7",
	}
	token, err := GenerateAdminToken(cfg, admin)
	if err != nil {
		t.Fatalf("GenerateAdminToken: %v", err)
	}

	var got *AuthUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetAuthUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(cfg)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/admin-users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got == nil || got.ID != "adm-1" || got.RoleID != "role-7" || !got.IsAdmin() {
		t.Errorf("auth user = %+v", got)
	}
}

func TestMiddleware_RejectsMalformedHeader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, header := range []string{"Token abc", "Bearer", "bogus"} {
		req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("header %q: Content-Type = %q, want application/json", header, ct)
		}
	}
}

func TestAdminOnly(t *testing.T) {
	handler := AdminOnly(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 学员会话不是后台主体，按未认证处理
	req := httptest.NewRequest(http.MethodGet, "/api/admin-users/me", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{ID: "usr-1"}))
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("student: status = %d, want 401", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("student: Content-Type = %q, want application/json", ct)
	}

	// 管理员放行
	req = httptest.NewRequest(http.MethodGet, "/api/admin-users/me", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{ID: "adm-1", UserType: "subadmin"}))
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", w.Code)
	}
}
