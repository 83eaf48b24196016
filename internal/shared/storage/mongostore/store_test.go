package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"lms-admin/internal/shared/model"
	"lms-admin/internal/shared/storage"
)

// testStore 创建测试用 Store，使用独立数据库避免污染
func testStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	s, err := NewStore(uri, "lms_admin_test")
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	ctx := context.Background()
	if err := s.db.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop test database: %v", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close()
	})

	return s
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)

func TestUserCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	user := &model.User{
		ID:          "usr-001",
		PhoneNumber: "9876543210",
		Name:        "Asha",
		Role:        model.UserRoleStudent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByPhone(ctx, "9876543210")
	if err != nil {
		t.Fatalf("GetUserByPhone: %v", err)
	}
	if got == nil || got.ID != "usr-001" || got.Name != "Asha" {
		t.Errorf("got = %+v", got)
	}

	// 手机号唯一
	dup := &model.User{ID: "usr-002", PhoneNumber: "9876543210", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate phone: err = %v, want ErrDuplicate", err)
	}

	// 稀疏索引：无手机号/邮箱的文档不互相冲突
	if err := s.CreateUser(ctx, &model.User{ID: "usr-003", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Errorf("sparse create 1: %v", err)
	}
	if err := s.CreateUser(ctx, &model.User{ID: "usr-004", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Errorf("sparse create 2: %v", err)
	}

	// 更新
	got.IsPhoneVerified = true
	if err := s.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	updated, _ := s.GetUserByID(ctx, "usr-001")
	if !updated.IsPhoneVerified {
		t.Error("update not persisted")
	}

	// 不存在返回 (nil, nil)
	missing, err := s.GetUserByPhone(ctx, "8876543210")
	if err != nil || missing != nil {
		t.Errorf("missing = %v, %v; want nil, nil", missing, err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("users = %d, want 3", len(users))
	}
}

func TestOTPLatestAndDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, id := range []string{"otp-1", "otp-2", "otp-3"} {
		otp := &model.OTP{
			ID:        id,
			UserID:    "usr-1",
			Code:      "482913",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			ExpiresAt: base.Add(time.Duration(i)*time.Minute + model.OTPTTL),
		}
		if err := s.CreateOTP(ctx, otp); err != nil {
			t.Fatalf("CreateOTP %s: %v", id, err)
		}
	}

	latest, err := s.GetLatestOTPByUser(ctx, "usr-1")
	if err != nil {
		t.Fatalf("GetLatestOTPByUser: %v", err)
	}
	if latest == nil || latest.ID != "otp-3" {
		t.Errorf("latest = %+v, want otp-3", latest)
	}

	if err := s.DeleteOTP(ctx, "otp-3"); err != nil {
		t.Fatalf("DeleteOTP: %v", err)
	}
	latest, _ = s.GetLatestOTPByUser(ctx, "usr-1")
	if latest == nil || latest.ID != "otp-2" {
		t.Errorf("after delete latest = %+v, want otp-2", latest)
	}

	if err := s.DeleteOTPsByUser(ctx, "usr-1"); err != nil {
		t.Fatalf("DeleteOTPsByUser: %v", err)
	}
	none, err := s.GetLatestOTPByUser(ctx, "usr-1")
	if err != nil || none != nil {
		t.Errorf("after delete all = %v, %v; want nil, nil", none, err)
	}
}

func TestAdminUserCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	admin := &model.AdminUser{
		ID:       "adm-001",
		FullName: "Ops Admin",
		Email:    "ops@example.com",
		UserType: model.AdminTypeSubadmin,
		CustomPermissions: model.PermissionMap{
			model.ModulePayments: &model.ActionSet{View: model.BoolPtr(true)},
		},
		Status:    model.AdminStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateAdminUser(ctx, admin); err != nil {
		t.Fatalf("CreateAdminUser: %v", err)
	}

	// 邮箱唯一
	dup := &model.AdminUser{ID: "adm-002", Email: "ops@example.com", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateAdminUser(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate email: err = %v, want ErrDuplicate", err)
	}

	// 权限覆盖经 bson 往返后保持指针语义
	got, err := s.GetAdminUserByEmail(ctx, "ops@example.com")
	if err != nil || got == nil {
		t.Fatalf("GetAdminUserByEmail: %v, %v", got, err)
	}
	v, ok := got.CustomPermissions[model.ModulePayments].Get(model.ActionView)
	if !ok || !v {
		t.Errorf("payments.view = %v/%v, want explicit true", v, ok)
	}
	if _, ok := got.CustomPermissions[model.ModulePayments].Get(model.ActionEdit); ok {
		t.Error("payments.edit should be unset")
	}

	// 过滤列表
	teacher := &model.AdminUser{ID: "adm-003", Email: "t@example.com", UserType: model.AdminTypeTeacher, Status: model.AdminStatusActive, CreatedAt: now, UpdatedAt: now}
	if err := s.CreateAdminUser(ctx, teacher); err != nil {
		t.Fatalf("CreateAdminUser teacher: %v", err)
	}
	teachers, err := s.ListAdminUsers(ctx, model.AdminTypeTeacher, "")
	if err != nil {
		t.Fatalf("ListAdminUsers: %v", err)
	}
	if len(teachers) != 1 || teachers[0].ID != "adm-003" {
		t.Errorf("teachers = %+v", teachers)
	}

	if err := s.DeleteAdminUser(ctx, "adm-001"); err != nil {
		t.Fatalf("DeleteAdminUser: %v", err)
	}
	gone, _ := s.GetAdminUserByID(ctx, "adm-001")
	if gone != nil {
		t.Error("admin still present after delete")
	}
}

func TestRoleCRUDAndNameUnique(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	role := &model.Role{
		ID:   "role-001",
		Name: "Content Editor",
		Permissions: model.PermissionMap{
			model.ModuleCourses: &model.ActionSet{View: model.BoolPtr(true), Edit: model.BoolPtr(false)},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateRole(ctx, role); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	dup := &model.Role{ID: "role-002", Name: "Content Editor", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateRole(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate name: err = %v, want ErrDuplicate", err)
	}

	got, err := s.GetRoleByID(ctx, "role-001")
	if err != nil || got == nil {
		t.Fatalf("GetRoleByID: %v, %v", got, err)
	}
	// 显式 false 经往返后仍是显式 false，而非缺省
	v, ok := got.Permissions[model.ModuleCourses].Get(model.ActionEdit)
	if !ok || v {
		t.Errorf("courses.edit = %v/%v, want explicit false", v, ok)
	}

	got.Description = "updated"
	if err := s.UpdateRole(ctx, got); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}

	roles, err := s.ListRoles(ctx)
	if err != nil || len(roles) != 1 {
		t.Fatalf("ListRoles = %d, %v", len(roles), err)
	}

	if err := s.DeleteRole(ctx, "role-001"); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
	if err := s.DeleteRole(ctx, "role-001"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}
