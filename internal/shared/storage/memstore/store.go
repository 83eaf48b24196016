// Package memstore 实现基于内存的 storage.Store
//
// 仅用于单元测试：无需外部 MongoDB 即可覆盖业务逻辑。
// 唯一约束（手机号/邮箱/角色名）与 mongostore 的稀疏唯一索引行为保持一致。
package memstore

import (
	"context"
	"sync"

	"lms-admin/internal/shared/model"
	"lms-admin/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu sync.RWMutex

	users      map[string]*model.User
	otps       map[string]*model.OTP
	adminUsers map[string]*model.AdminUser
	roles      map[string]*model.Role
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		users:      make(map[string]*model.User),
		otps:       make(map[string]*model.OTP),
		adminUsers: make(map[string]*model.AdminUser),
		roles:      make(map[string]*model.Role),
	}
}

// Close 实现 storage.Store
func (s *Store) Close() error {
	return nil
}

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if user.PhoneNumber != "" && u.PhoneNumber == user.PhoneNumber {
			return storage.ErrDuplicate
		}
		if user.Email != "" && u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) GetUserByPhone(_ context.Context, phone string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.PhoneNumber == phone && phone != "" {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email && email != "" {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	return users, nil
}

// ============================================================================
// OTPStore
// ============================================================================

func (s *Store) CreateOTP(_ context.Context, otp *model.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.otps[otp.ID]; ok {
		return storage.ErrDuplicate
	}
	cp := *otp
	s.otps[otp.ID] = &cp
	return nil
}

func (s *Store) GetLatestOTPByUser(_ context.Context, userID string) (*model.OTP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *model.OTP
	for _, o := range s.otps {
		if o.UserID != userID {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) DeleteOTP(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.otps[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.otps, id)
	return nil
}

func (s *Store) DeleteOTPsByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, o := range s.otps {
		if o.UserID == userID {
			delete(s.otps, id)
		}
	}
	return nil
}

// ============================================================================
// AdminUserStore
// ============================================================================

func (s *Store) CreateAdminUser(_ context.Context, admin *model.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adminUsers[admin.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, a := range s.adminUsers {
		if a.Email == admin.Email {
			return storage.ErrDuplicate
		}
	}
	cp := *admin
	s.adminUsers[admin.ID] = &cp
	return nil
}

func (s *Store) GetAdminUserByID(_ context.Context, id string) (*model.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.adminUsers[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) GetAdminUserByEmail(_ context.Context, email string) (*model.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.adminUsers {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateAdminUser(_ context.Context, admin *model.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adminUsers[admin.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *admin
	s.adminUsers[admin.ID] = &cp
	return nil
}

func (s *Store) DeleteAdminUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adminUsers[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.adminUsers, id)
	return nil
}

func (s *Store) ListAdminUsers(_ context.Context, userType model.AdminType, status model.AdminStatus) ([]*model.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admins := make([]*model.AdminUser, 0, len(s.adminUsers))
	for _, a := range s.adminUsers {
		if userType != "" && a.UserType != userType {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		admins = append(admins, &cp)
	}
	return admins, nil
}

// ============================================================================
// RoleStore
// ============================================================================

func (s *Store) CreateRole(_ context.Context, role *model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, r := range s.roles {
		if r.Name == role.Name {
			return storage.ErrDuplicate
		}
	}
	cp := *role
	s.roles[role.ID] = &cp
	return nil
}

func (s *Store) GetRoleByID(_ context.Context, id string) (*model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.roles[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) GetRoleByName(_ context.Context, name string) (*model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateRole(_ context.Context, role *model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *role
	s.roles[role.ID] = &cp
	return nil
}

func (s *Store) DeleteRole(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.roles, id)
	return nil
}

func (s *Store) ListRoles(_ context.Context) ([]*model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]*model.Role, 0, len(s.roles))
	for _, r := range s.roles {
		cp := *r
		roles = append(roles, &cp)
	}
	return roles, nil
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)
