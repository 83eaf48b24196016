package model

import "time"

// UserRole 学员端用户角色
type UserRole string

const (
	UserRoleStudent  UserRole = "student"
	UserRoleAdmin    UserRole = "admin"
	UserRoleSubadmin UserRole = "subadmin"
)

// User 学员端用户
//
// phone_number / email 均为稀疏唯一键：两者都可为空，但一旦设置必须唯一。
// 没有密码的用户只能走 OTP 登录。
type User struct {
	ID           string   `json:"_id" bson:"_id"`
	PhoneNumber  string   `json:"phoneNumber,omitempty" bson:"phone_number,omitempty"`
	Email        string   `json:"email,omitempty" bson:"email,omitempty"`
	PasswordHash string   `json:"-" bson:"password_hash,omitempty"` // never expose in JSON
	Name         string   `json:"name,omitempty" bson:"name,omitempty"`
	Role         UserRole `json:"role" bson:"role"`

	IsPhoneVerified      bool `json:"isPhoneVerified" bson:"is_phone_verified"`
	IsEmailVerified      bool `json:"isEmailVerified" bson:"is_email_verified"`
	IsOnboardingComplete bool `json:"isOnboardingComplete" bson:"is_onboarding_complete"`

	// 封禁状态：封禁用户不可通过任何方式登录
	IsBanned     bool       `json:"isBanned" bson:"is_banned"`
	BannedAt     *time.Time `json:"bannedAt,omitempty" bson:"banned_at,omitempty"`
	BannedReason string     `json:"bannedReason,omitempty" bson:"banned_reason,omitempty"`

	// 学员画像（入驻引导采集）
	DOB          string `json:"dob,omitempty" bson:"dob,omitempty"`
	Gender       string `json:"gender,omitempty" bson:"gender,omitempty"`
	City         string `json:"city,omitempty" bson:"city,omitempty"`
	State        string `json:"state,omitempty" bson:"state,omitempty"`
	SelectedExam string `json:"selectedExam,omitempty" bson:"selected_exam,omitempty"`
	TargetYear   string `json:"targetYear,omitempty" bson:"target_year,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// ProfileComplete 学员资料是否完整（决定登录后跳转）
func (u *User) ProfileComplete() bool {
	return u.IsOnboardingComplete && u.Name != "" && u.Email != ""
}
