// Package role 权限角色的增删改查
package role

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"lms-admin/internal/apiserver/auth"
	"lms-admin/internal/shared/model"
	"lms-admin/internal/shared/storage"
)

// Store 角色管理所需的存储子集
type Store interface {
	CreateRole(ctx context.Context, role *model.Role) error
	GetRoleByID(ctx context.Context, id string) (*model.Role, error)
	UpdateRole(ctx context.Context, role *model.Role) error
	DeleteRole(ctx context.Context, id string) error
	ListRoles(ctx context.Context) ([]*model.Role, error)
}

// Gate 权限门控，由调用方注入（见 adminuser.Handler.Require）
type Gate func(mod model.Module, act model.Action, next http.HandlerFunc) http.HandlerFunc

// Handler 角色管理 HTTP 处理器
type Handler struct {
	store Store
	cfg   auth.Config
}

// NewHandler 创建角色管理处理器
func NewHandler(store Store, cfg auth.Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册角色管理路由，全部挂在 roleManagement 模块下
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate Gate) {
	mux.HandleFunc("GET /api/roles", gate(model.ModuleRoleManagement, model.ActionView, h.List))
	mux.HandleFunc("POST /api/roles", gate(model.ModuleRoleManagement, model.ActionCreate, h.Create))
	mux.HandleFunc("GET /api/roles/{id}", gate(model.ModuleRoleManagement, model.ActionView, h.Get))
	mux.HandleFunc("PUT /api/roles/{id}", gate(model.ModuleRoleManagement, model.ActionEdit, h.Update))
	mux.HandleFunc("DELETE /api/roles/{id}", gate(model.ModuleRoleManagement, model.ActionDelete, h.Delete))
}

type upsertRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Permissions model.PermissionMap `json:"permissions"`
}

// List 列出全部角色
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		log.Printf("[role.list] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch roles")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"roles":   roles,
	})
}

// Get 获取单个角色
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.store.GetRoleByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[role.get] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch role")
		return
	}
	if role == nil {
		writeError(w, http.StatusNotFound, "Role not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"role":    role,
	})
}

// Create 创建角色；name 唯一，permissions 中的未知模块拒绝
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if msg := validatePermissions(req.Permissions); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now()
	role := &model.Role{
		ID:          generateID(),
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateRole(r.Context(), role); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "Role with this name already exists")
			return
		}
		log.Printf("[role.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create role")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Role created successfully",
		"role":    role,
	})
}

// Update 更新角色；权限更新立即对持有该角色的管理员生效
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validatePermissions(req.Permissions); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	role, err := h.store.GetRoleByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[role.update] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update role")
		return
	}
	if role == nil {
		writeError(w, http.StatusNotFound, "Role not found")
		return
	}

	if req.Name != "" {
		role.Name = req.Name
	}
	if req.Description != "" {
		role.Description = req.Description
	}
	if req.Permissions != nil {
		role.Permissions = req.Permissions
	}
	role.UpdatedAt = time.Now()

	if err := h.store.UpdateRole(r.Context(), role); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "Role with this name already exists")
			return
		}
		log.Printf("[role.update] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update role")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Role updated successfully",
		"role":    role,
	})
}

// Delete 删除角色；持有该角色的管理员退化为无角色（空基础层）
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	role, err := h.store.GetRoleByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[role.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete role")
		return
	}
	if role == nil {
		writeError(w, http.StatusNotFound, "Role not found")
		return
	}

	if err := h.store.DeleteRole(r.Context(), role.ID); err != nil {
		log.Printf("[role.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete role")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Role deleted successfully",
	})
}

func validatePermissions(perms model.PermissionMap) string {
	for mod := range perms {
		if !model.IsValidModule(mod) {
			return fmt.Sprintf("unknown permission module: %s", mod)
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

func generateID() string {
	return fmt.Sprintf("role-%d", time.Now().UnixNano())
}
