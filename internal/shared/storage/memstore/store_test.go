package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"lms-admin/internal/shared/model"
	"lms-admin/internal/shared/storage"
)

func TestUserUniqueConstraints(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	base := &model.User{ID: "usr-1", PhoneNumber: "9876543210", Email: "a@example.com"}
	if err := s.CreateUser(ctx, base); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	tests := []struct {
		name string
		user *model.User
	}{
		{"duplicate id", &model.User{ID: "usr-1"}},
		{"duplicate phone", &model.User{ID: "usr-2", PhoneNumber: "9876543210"}},
		{"duplicate email", &model.User{ID: "usr-3", Email: "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.CreateUser(ctx, tt.user); !errors.Is(err, storage.ErrDuplicate) {
				t.Errorf("err = %v, want ErrDuplicate", err)
			}
		})
	}

	// 空手机号/邮箱不触发唯一约束（稀疏索引语义）
	if err := s.CreateUser(ctx, &model.User{ID: "usr-4"}); err != nil {
		t.Errorf("empty phone/email rejected: %v", err)
	}
	if err := s.CreateUser(ctx, &model.User{ID: "usr-5"}); err != nil {
		t.Errorf("second empty phone/email rejected: %v", err)
	}
}

func TestUserLookupMissingReturnsNilNil(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u, err := s.GetUserByPhone(ctx, "9876543210")
	if err != nil || u != nil {
		t.Errorf("GetUserByPhone = %v, %v; want nil, nil", u, err)
	}
	u, err = s.GetUserByID(ctx, "missing")
	if err != nil || u != nil {
		t.Errorf("GetUserByID = %v, %v; want nil, nil", u, err)
	}
}

func TestUserUpdateMissing(t *testing.T) {
	s := NewStore()

	err := s.UpdateUser(context.Background(), &model.User{ID: "ghost"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreCopiesOnReadAndWrite(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	user := &model.User{ID: "usr-1", Name: "Asha"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// 调用方改自己的副本不影响库内数据
	user.Name = "Mutated"
	got, _ := s.GetUserByID(ctx, "usr-1")
	if got.Name != "Asha" {
		t.Errorf("store affected by caller mutation: %q", got.Name)
	}

	// 读出的副本同样隔离
	got.Name = "Mutated Again"
	again, _ := s.GetUserByID(ctx, "usr-1")
	if again.Name != "Asha" {
		t.Errorf("store affected by read mutation: %q", again.Name)
	}
}

func TestGetLatestOTPByUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"otp-1", "otp-2", "otp-3"} {
		otp := &model.OTP{
			ID:        id,
			UserID:    "usr-1",
			Code:      "11111" + id[len(id)-1:],
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateOTP(ctx, otp); err != nil {
			t.Fatalf("CreateOTP: %v", err)
		}
	}

	latest, err := s.GetLatestOTPByUser(ctx, "usr-1")
	if err != nil {
		t.Fatalf("GetLatestOTPByUser: %v", err)
	}
	if latest.ID != "otp-3" {
		t.Errorf("latest = %s, want otp-3", latest.ID)
	}

	// 无记录返回 (nil, nil)
	none, err := s.GetLatestOTPByUser(ctx, "usr-2")
	if err != nil || none != nil {
		t.Errorf("no otp = %v, %v; want nil, nil", none, err)
	}
}

func TestDeleteOTPsByUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	s.CreateOTP(ctx, &model.OTP{ID: "otp-1", UserID: "usr-1"})
	s.CreateOTP(ctx, &model.OTP{ID: "otp-2", UserID: "usr-1"})
	s.CreateOTP(ctx, &model.OTP{ID: "otp-3", UserID: "usr-2"})

	if err := s.DeleteOTPsByUser(ctx, "usr-1"); err != nil {
		t.Fatalf("DeleteOTPsByUser: %v", err)
	}

	if o, _ := s.GetLatestOTPByUser(ctx, "usr-1"); o != nil {
		t.Errorf("usr-1 otp remains: %+v", o)
	}
	if o, _ := s.GetLatestOTPByUser(ctx, "usr-2"); o == nil || o.ID != "otp-3" {
		t.Errorf("usr-2 otp affected: %+v", o)
	}
}

func TestAdminUserEmailUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.CreateAdminUser(ctx, &model.AdminUser{ID: "adm-1", Email: "ops@example.com"}); err != nil {
		t.Fatalf("CreateAdminUser: %v", err)
	}
	err := s.CreateAdminUser(ctx, &model.AdminUser{ID: "adm-2", Email: "ops@example.com"})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestListAdminUsersFilters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	seed := []*model.AdminUser{
		{ID: "adm-1", Email: "a@x.com", UserType: model.AdminTypeSubadmin, Status: model.AdminStatusActive},
		{ID: "adm-2", Email: "b@x.com", UserType: model.AdminTypeSubadmin, Status: model.AdminStatusSuspended},
		{ID: "adm-3", Email: "c@x.com", UserType: model.AdminTypeTeacher, Status: model.AdminStatusActive},
	}
	for _, a := range seed {
		if err := s.CreateAdminUser(ctx, a); err != nil {
			t.Fatalf("CreateAdminUser %s: %v", a.ID, err)
		}
	}

	all, _ := s.ListAdminUsers(ctx, "", "")
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
	subadmins, _ := s.ListAdminUsers(ctx, model.AdminTypeSubadmin, "")
	if len(subadmins) != 2 {
		t.Errorf("subadmins = %d, want 2", len(subadmins))
	}
	activeTeachers, _ := s.ListAdminUsers(ctx, model.AdminTypeTeacher, model.AdminStatusActive)
	if len(activeTeachers) != 1 {
		t.Errorf("active teachers = %d, want 1", len(activeTeachers))
	}
	suspended, _ := s.ListAdminUsers(ctx, "", model.AdminStatusSuspended)
	if len(suspended) != 1 {
		t.Errorf("suspended = %d, want 1", len(suspended))
	}
}

func TestRoleNameUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.CreateRole(ctx, &model.Role{ID: "role-1", Name: "Editor"}); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	err := s.CreateRole(ctx, &model.Role{ID: "role-2", Name: "Editor"})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}

	if r, _ := s.GetRoleByName(ctx, "Editor"); r == nil || r.ID != "role-1" {
		t.Errorf("GetRoleByName = %+v", r)
	}
}
