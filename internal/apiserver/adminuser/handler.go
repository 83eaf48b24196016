// Package adminuser 后台管理员账号：登录、当前用户、账号 CRUD、角色指派、学员管理
package adminuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"lms-admin/internal/apiserver/auth"
	"lms-admin/internal/shared/model"
	"lms-admin/internal/shared/storage"
)

// Store 后台管理所需的存储子集
type Store interface {
	CreateAdminUser(ctx context.Context, admin *model.AdminUser) error
	GetAdminUserByID(ctx context.Context, id string) (*model.AdminUser, error)
	GetAdminUserByEmail(ctx context.Context, email string) (*model.AdminUser, error)
	UpdateAdminUser(ctx context.Context, admin *model.AdminUser) error
	DeleteAdminUser(ctx context.Context, id string) error
	ListAdminUsers(ctx context.Context, userType model.AdminType, status model.AdminStatus) ([]*model.AdminUser, error)

	GetRoleByID(ctx context.Context, id string) (*model.Role, error)

	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// Recorder 登录指标回调，由 server 包的 Prometheus 指标实现
type Recorder interface {
	RecordAdminLogin(result string)
}

// Handler 后台管理 HTTP 处理器
type Handler struct {
	store Store
	cfg   auth.Config
	rec   Recorder // 可为 nil
}

// NewHandler 创建后台管理处理器
func NewHandler(store Store, cfg auth.Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// SetRecorder 注入指标回调
func (h *Handler) SetRecorder(rec Recorder) {
	h.rec = rec
}

func (h *Handler) recordLogin(result string) {
	if h.rec != nil {
		h.rec.RecordAdminLogin(result)
	}
}

// RegisterRoutes 注册后台管理路由
//
// 账号管理全部挂在 roleManagement 模块下；学员管理挂在 students 模块下。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin-users/login", h.Login)
	mux.HandleFunc("GET /api/admin-users/me", auth.AdminOnly(h.Me))

	mux.HandleFunc("GET /api/admin-users", h.Require(model.ModuleRoleManagement, model.ActionView, h.List))
	mux.HandleFunc("POST /api/admin-users", h.Require(model.ModuleRoleManagement, model.ActionCreate, h.Create))
	mux.HandleFunc("GET /api/admin-users/{id}", h.Require(model.ModuleRoleManagement, model.ActionView, h.Get))
	mux.HandleFunc("PUT /api/admin-users/{id}", h.Require(model.ModuleRoleManagement, model.ActionEdit, h.Update))
	mux.HandleFunc("PUT /api/admin-users/{id}/assign-role", h.Require(model.ModuleRoleManagement, model.ActionEdit, h.AssignRole))
	mux.HandleFunc("PUT /api/admin-users/{id}/toggle-status", h.Require(model.ModuleRoleManagement, model.ActionEdit, h.ToggleStatus))
	mux.HandleFunc("PUT /api/admin-users/{id}/reset-password", h.Require(model.ModuleRoleManagement, model.ActionEdit, h.ResetPassword))
	mux.HandleFunc("DELETE /api/admin-users/{id}", h.Require(model.ModuleRoleManagement, model.ActionDelete, h.Delete))

	mux.HandleFunc("GET /api/admin/students", h.Require(model.ModuleStudents, model.ActionView, h.ListStudents))
	mux.HandleFunc("POST /api/admin/students/{id}/ban", h.Require(model.ModuleStudents, model.ActionEdit, h.BanStudent))
	mux.HandleFunc("POST /api/admin/students/{id}/unban", h.Require(model.ModuleStudents, model.ActionEdit, h.UnbanStudent))
}

// ============================================================================
// 生效权限计算与门控
// ============================================================================

// effectivePermissions 加载角色并计算生效权限矩阵（每次请求重新计算，不缓存）
func (h *Handler) effectivePermissions(ctx context.Context, admin *model.AdminUser) (model.PermissionMatrix, error) {
	var role *model.Role
	if admin.RoleID != "" {
		var err error
		role, err = h.store.GetRoleByID(ctx, admin.RoleID)
		if err != nil {
			return nil, fmt.Errorf("load role: %w", err)
		}
		// 角色已被删除按未配置角色处理
	}
	return model.EffectivePermissions(admin, role), nil
}

// Require 权限门控：要求当前管理员对 (module, action) 显式授权
//
// 仅矩阵值恰为 true 时放行；模块缺失、动作缺失、显式 false 一律 403。
func (h *Handler) Require(mod model.Module, act model.Action, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authUser := auth.GetAuthUser(r.Context())
		if authUser == nil || !authUser.IsAdmin() {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		admin, err := h.store.GetAdminUserByID(r.Context(), authUser.ID)
		if err != nil {
			log.Printf("[adminuser] GetAdminUserByID error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if admin == nil {
			writeError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		if admin.Status == model.AdminStatusSuspended {
			writeError(w, http.StatusForbidden, "Your account has been suspended")
			return
		}

		perms, err := h.effectivePermissions(r.Context(), admin)
		if err != nil {
			log.Printf("[adminuser] effectivePermissions error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !perms.Allows(mod, act) {
			writeError(w, http.StatusForbidden, "You do not have permission to perform this action")
			return
		}

		next(w, r)
	}
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type upsertRequest struct {
	FullName          string              `json:"fullName"`
	Email             string              `json:"email"`
	Phone             string              `json:"phone"`
	Password          string              `json:"password"`
	UserType          model.AdminType     `json:"userType"`
	RoleID            string              `json:"roleId"`
	Status            model.AdminStatus   `json:"status"`
	CustomPermissions model.PermissionMap `json:"customPermissions"`
}

type assignRoleRequest struct {
	RoleID            string               `json:"roleId"`
	CustomPermissions *model.PermissionMap `json:"customPermissions"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type banRequest struct {
	Reason string `json:"reason"`
}

// ============================================================================
// 认证接口
// ============================================================================

// Login 管理员邮箱+密码登录，响应携带生效权限矩阵
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	admin, err := h.store.GetAdminUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		log.Printf("[adminuser.login] GetAdminUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if admin == nil {
		h.recordLogin("invalid")
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if admin.Status == model.AdminStatusSuspended {
		h.recordLogin("suspended")
		writeError(w, http.StatusForbidden, "Your account has been suspended")
		return
	}
	if !auth.CheckPassword(req.Password, admin.PasswordHash) {
		h.recordLogin("invalid")
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	now := time.Now()
	admin.LastLogin = &now
	admin.UpdatedAt = now
	if err := h.store.UpdateAdminUser(r.Context(), admin); err != nil {
		log.Printf("[adminuser.login] update lastLogin error: %v", err)
	}

	perms, err := h.effectivePermissions(r.Context(), admin)
	if err != nil {
		log.Printf("[adminuser.login] effectivePermissions error: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := auth.GenerateAdminToken(h.cfg, admin)
	if err != nil {
		log.Printf("[adminuser.login] GenerateAdminToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.recordLogin("success")
	log.Printf("[adminuser] Admin logged in: %s", admin.Email)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Login successful",
		"token":       token,
		"user":        admin,
		"permissions": perms,
	})
}

// Me 当前管理员与实时权限矩阵
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	admin, err := h.store.GetAdminUserByID(r.Context(), authUser.ID)
	if err != nil || admin == nil {
		writeError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}

	perms, err := h.effectivePermissions(r.Context(), admin)
	if err != nil {
		log.Printf("[adminuser.me] effectivePermissions error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"user":        admin,
		"permissions": perms,
	})
}

// ============================================================================
// 账号 CRUD
// ============================================================================

// List 列出管理员，支持 userType / status 过滤
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userType := model.AdminType(r.URL.Query().Get("userType"))
	status := model.AdminStatus(r.URL.Query().Get("status"))

	admins, err := h.store.ListAdminUsers(r.Context(), userType, status)
	if err != nil {
		log.Printf("[adminuser.list] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   admins,
	})
}

// Get 获取单个管理员
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	admin, err := h.store.GetAdminUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[adminuser.get] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    admin,
	})
}

// Create 创建管理员
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "fullName, email, password are required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("[adminuser.create] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	userType := req.UserType
	if userType == "" {
		userType = model.AdminTypeSubadmin
	}
	status := req.Status
	if status == "" {
		status = model.AdminStatusActive
	}

	var createdBy string
	if u := auth.GetAuthUser(r.Context()); u != nil {
		createdBy = u.ID
	}

	now := time.Now()
	admin := &model.AdminUser{
		ID:                generateID(),
		FullName:          req.FullName,
		Email:             strings.ToLower(req.Email),
		Phone:             req.Phone,
		PasswordHash:      hash,
		UserType:          userType,
		RoleID:            req.RoleID,
		CustomPermissions: req.CustomPermissions,
		Status:            status,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.store.CreateAdminUser(r.Context(), admin); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "User with this email already exists")
			return
		}
		log.Printf("[adminuser.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "User created successfully",
		"user":    admin,
	})
}

// Update 更新管理员资料、角色与自定义覆盖
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	admin, err := h.store.GetAdminUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[adminuser.update] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	if req.FullName != "" {
		admin.FullName = req.FullName
	}
	if req.Email != "" {
		if !isValidEmail(req.Email) {
			writeError(w, http.StatusBadRequest, "invalid email format")
			return
		}
		admin.Email = strings.ToLower(req.Email)
	}
	if req.Phone != "" {
		admin.Phone = req.Phone
	}
	if req.UserType != "" {
		admin.UserType = req.UserType
	}
	if req.Status != "" {
		admin.Status = req.Status
	}
	admin.RoleID = req.RoleID
	if req.CustomPermissions != nil {
		admin.CustomPermissions = req.CustomPermissions
	}
	admin.UpdatedAt = time.Now()

	if err := h.store.UpdateAdminUser(r.Context(), admin); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "User with this email already exists")
			return
		}
		log.Printf("[adminuser.update] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User updated successfully",
		"user":    admin,
	})
}

// AssignRole 指派角色（可同时替换自定义覆盖）
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	admin, err := h.store.GetAdminUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[adminuser.assign-role] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to assign role")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	admin.RoleID = req.RoleID
	if req.CustomPermissions != nil {
		admin.CustomPermissions = *req.CustomPermissions
	}
	admin.UpdatedAt = time.Now()

	if err := h.store.UpdateAdminUser(r.Context(), admin); err != nil {
		log.Printf("[adminuser.assign-role] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to assign role")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Role assigned successfully",
		"user":    admin,
	})
}

// ToggleStatus 启用/停用账号；superadmin 不可停用
func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	admin, err := h.store.GetAdminUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[adminuser.toggle-status] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update user status")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if admin.UserType == model.AdminTypeSuperadmin {
		writeError(w, http.StatusBadRequest, "Cannot suspend a superadmin")
		return
	}

	if admin.Status == model.AdminStatusActive {
		admin.Status = model.AdminStatusSuspended
	} else {
		admin.Status = model.AdminStatusActive
	}
	admin.UpdatedAt = time.Now()

	if err := h.store.UpdateAdminUser(r.Context(), admin); err != nil {
		log.Printf("[adminuser.toggle-status] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update user status")
		return
	}

	verb := "suspended"
	if admin.Status == model.AdminStatusActive {
		verb = "activated"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("User %s successfully", verb),
		"user":    map[string]interface{}{"_id": admin.ID, "status": admin.Status},
	})
}

// ResetPassword 重置管理员密码
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	admin, err := h.store.GetAdminUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[adminuser.reset-password] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("[adminuser.reset-password] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	admin.PasswordHash = hash
	admin.UpdatedAt = time.Now()

	if err := h.store.UpdateAdminUser(r.Context(), admin); err != nil {
		log.Printf("[adminuser.reset-password] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password reset successfully",
	})
}

// Delete 删除管理员；superadmin 不可删除
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	admin, err := h.store.GetAdminUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[adminuser.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if admin.UserType == model.AdminTypeSuperadmin {
		writeError(w, http.StatusBadRequest, "Cannot delete a superadmin")
		return
	}

	if err := h.store.DeleteAdminUser(r.Context(), admin.ID); err != nil {
		log.Printf("[adminuser.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User deleted successfully",
	})
}

// ============================================================================
// 学员管理
// ============================================================================

// ListStudents 列出学员
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[adminuser.students] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch students")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"students": users,
	})
}

// BanStudent 封禁学员（记录时间与原因），封禁后任何登录方式均拒绝
func (h *Handler) BanStudent(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	user, err := h.store.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[adminuser.ban] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to ban student")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}

	now := time.Now()
	user.IsBanned = true
	user.BannedAt = &now
	user.BannedReason = req.Reason
	user.UpdatedAt = now

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		log.Printf("[adminuser.ban] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to ban student")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Student banned successfully",
	})
}

// UnbanStudent 解封学员
func (h *Handler) UnbanStudent(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[adminuser.unban] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to unban student")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}

	user.IsBanned = false
	user.BannedAt = nil
	user.BannedReason = ""
	user.UpdatedAt = time.Now()

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		log.Printf("[adminuser.unban] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to unban student")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Student unbanned successfully",
	})
}

// ============================================================================
// 启动引导
// ============================================================================

// EnsureSuperadmin 确保超级管理员存在（启动时调用）
// 如果配置了 email 且数据库中不存在该账号，则自动创建
func EnsureSuperadmin(store Store, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetAdminUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("check superadmin: %w", err)
	}
	if existing != nil {
		log.Printf("[adminuser] Superadmin already exists: %s (%s)", email, existing.ID)
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash superadmin password: %w", err)
	}

	now := time.Now()
	admin := &model.AdminUser{
		ID:           generateID(),
		FullName:     "Super Admin",
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		UserType:     model.AdminTypeSuperadmin,
		Status:       model.AdminStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateAdminUser(ctx, admin); err != nil {
		return fmt.Errorf("create superadmin: %w", err)
	}
	log.Printf("[adminuser] Created superadmin: %s (%s)", email, admin.ID)
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func generateID() string {
	return fmt.Sprintf("adm-%d", time.Now().UnixNano())
}
