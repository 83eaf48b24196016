package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"time"

	"lms-admin/internal/shared/cache"
	"lms-admin/internal/shared/delivery"
	"lms-admin/internal/shared/model"
)

// Store OTP 认证所需的存储子集
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error

	CreateOTP(ctx context.Context, otp *model.OTP) error
	GetLatestOTPByUser(ctx context.Context, userID string) (*model.OTP, error)
	DeleteOTP(ctx context.Context, id string) error
	DeleteOTPsByUser(ctx context.Context, userID string) error
}

var (
	phoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
	codeRegex  = regexp.MustCompile(`^\d{6}$`)
)

// MaskPhone 保留前 5 位，其余打码（响应中不回传完整号码）
func MaskPhone(phone string) string {
	if len(phone) < 5 {
		return "XXXXX"
	}
	return phone[:5] + "XXXXX"
}

// Service OTP 认证状态机
//
// 状态：NONE → ISSUED → {VERIFIED | EXPIRED | INVALIDATED}，
// 终态一律删除记录，重试只能重新签发。
// Recorder 领域指标回调，由 server 包的 Prometheus 指标实现
type Recorder interface {
	RecordOTPIssued()
	RecordOTPVerification(result string)
}

type Service struct {
	store   Store
	gateway delivery.Gateway
	cache   cache.Cache // 重发冷却；NoOpCache 表示不限制
	cfg     Config
	rec     Recorder // 可为 nil

	// now 可注入时钟，过期测试用
	now func() time.Time
}

// NewService 创建 OTP 认证服务
func NewService(store Store, gateway delivery.Gateway, c cache.Cache, cfg Config) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Service{
		store:   store,
		gateway: gateway,
		cache:   c,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetRecorder 注入指标回调
func (s *Service) SetRecorder(rec Recorder) {
	s.rec = rec
}

func (s *Service) recordVerification(result string) {
	if s.rec != nil {
		s.rec.RecordOTPVerification(result)
	}
}

// SetClock 注入时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// generateCode 生成 [100000, 999999] 均匀分布的 6 位数字码
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func generateID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// issue 删除旧码、生成并持久化新码，然后下发
//
// 先删后插保证单一有效码：并发签发可能短暂留下孤儿记录，
// 但验证侧只读最新一条，孤儿到期自然清除。
// swallowDeliveryErr 控制投递失败是否吞掉（注册路径为 true）。
func (s *Service) issue(ctx context.Context, user *model.User, swallowDeliveryErr bool) error {
	inCooldown, err := s.cache.InOTPCooldown(ctx, user.PhoneNumber)
	if err != nil {
		// 冷却缓存不可用按未冷却处理，不阻塞签发
		log.Printf("[auth.otp] cooldown check error: %v", err)
	} else if inCooldown {
		return ErrResendCooldown
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.store.DeleteOTPsByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("delete previous otps: %w", err)
	}

	now := s.now()
	otp := &model.OTP{
		ID:        generateID("otp"),
		UserID:    user.ID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(model.OTPTTL),
	}
	if err := s.store.CreateOTP(ctx, otp); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.cache.SetOTPCooldown(ctx, user.PhoneNumber, cache.DefaultResendCooldown); err != nil {
		log.Printf("[auth.otp] cooldown set error: %v", err)
	}
	if s.rec != nil {
		s.rec.RecordOTPIssued()
	}

	if err := s.gateway.SendOTP(ctx, user.PhoneNumber, code); err != nil {
		if swallowDeliveryErr {
			// 注册路径：投递失败不阻塞请求，记录后继续
			log.Printf("[auth.otp] sms send failed (registration, ignored): %v", err)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// IssueCode 为手机号签发验证码（登录/首次使用路径）
//
// 不存在的手机号自动创建未验证用户。返回打码后的手机号。
func (s *Service) IssueCode(ctx context.Context, phone string) (string, error) {
	if !phoneRegex.MatchString(phone) {
		return "", ErrInvalidPhone
	}

	user, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		now := s.now()
		user = &model.User{
			ID:              generateID("usr"),
			PhoneNumber:     phone,
			Role:            model.UserRoleStudent,
			IsPhoneVerified: false,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}
	}

	if err := s.issue(ctx, user, false); err != nil {
		return "", err
	}

	log.Printf("[auth.otp] OTP sent to %s", MaskPhone(phone))
	return MaskPhone(phone), nil
}

// VerifyResult 验证成功后的登录结果
type VerifyResult struct {
	User       *model.User
	RedirectTo string
}

// consumeCode 核对并消费验证码
//
// 过期：删除记录并返回 ErrCodeExpired（即便码值匹配也不放行）；
// 不匹配：保留记录返回 ErrCodeMismatch，有效期内可重试；
// 匹配：删除记录（单次使用）。
func (s *Service) consumeCode(ctx context.Context, userID, submitted string) error {
	otp, err := s.store.GetLatestOTPByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup otp: %w", err)
	}
	if otp == nil {
		s.recordVerification("missing")
		return ErrNoCode
	}

	if otp.Expired(s.now()) {
		if err := s.store.DeleteOTP(ctx, otp.ID); err != nil {
			log.Printf("[auth.otp] delete expired otp: %v", err)
		}
		s.recordVerification("expired")
		return ErrCodeExpired
	}

	if otp.Code != submitted {
		s.recordVerification("mismatch")
		return ErrCodeMismatch
	}

	if err := s.store.DeleteOTP(ctx, otp.ID); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	s.recordVerification("success")
	return nil
}

// redirectFor 根据资料完整度决定登录后的跳转
func redirectFor(user *model.User) string {
	if !user.ProfileComplete() {
		return "/user-details"
	}
	return "/student/dashboard"
}

// VerifyCode 验证验证码并完成手机号验证（登录主路径）
func (s *Service) VerifyCode(ctx context.Context, phone, code string) (*VerifyResult, error) {
	if !codeRegex.MatchString(code) {
		return nil, ErrInvalidCode
	}

	user, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsBanned {
		return nil, ErrBanned
	}

	if err := s.consumeCode(ctx, user.ID, code); err != nil {
		return nil, err
	}

	user.IsPhoneVerified = true
	user.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	log.Printf("[auth.otp] OTP verified for %s", MaskPhone(phone))
	return &VerifyResult{User: user, RedirectTo: redirectFor(user)}, nil
}

// ConsumeForLogin 纯登录路径：要求手机号已验证，不改动验证状态
func (s *Service) ConsumeForLogin(ctx context.Context, phone, code string) (*model.User, error) {
	user, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !user.IsPhoneVerified {
		return nil, ErrUserNotFound
	}
	if user.IsBanned {
		return nil, ErrBanned
	}

	if err := s.consumeCode(ctx, user.ID, code); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterInput 注册请求
type RegisterInput struct {
	Name        string
	PhoneNumber string
	Password    string
	City        string
	Gender      string
	DOB         string
}

// Register 手机号注册：创建或原地更新未验证用户并签发验证码
//
// 封禁手机号直接拒绝（封禁主体不可通过任何途径登录）。
// 已验证且已设密码的手机号视为已有账号，返回 ErrAccountExists。
// 未验证手机号重复注册会原地更新姓名/密码等字段（唯一手机号不变）。
// 注册路径的短信投递失败被吞掉，不阻塞请求。
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	if !phoneRegex.MatchString(in.PhoneNumber) {
		return "", ErrInvalidPhone
	}
	if len(in.Password) < 6 {
		return "", ErrPasswordTooShort
	}

	existing, err := s.store.GetUserByPhone(ctx, in.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		if existing.IsBanned {
			return "", ErrBanned
		}
		if existing.IsPhoneVerified && existing.PasswordHash != "" {
			return "", ErrAccountExists
		}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	var user *model.User
	if existing != nil {
		existing.Name = in.Name
		existing.PasswordHash = hash
		if in.City != "" {
			existing.City = in.City
		}
		if in.Gender != "" {
			existing.Gender = in.Gender
		}
		if in.DOB != "" {
			existing.DOB = in.DOB
		}
		existing.IsPhoneVerified = false
		existing.UpdatedAt = now
		if err := s.store.UpdateUser(ctx, existing); err != nil {
			return "", fmt.Errorf("update user: %w", err)
		}
		user = existing
	} else {
		user = &model.User{
			ID:           generateID("usr"),
			Name:         in.Name,
			PhoneNumber:  in.PhoneNumber,
			PasswordHash: hash,
			City:         in.City,
			Gender:       in.Gender,
			DOB:          in.DOB,
			Role:         model.UserRoleStudent,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}
	}

	if err := s.issue(ctx, user, true); err != nil {
		return "", err
	}

	log.Printf("[auth.otp] Registration OTP issued for %s", MaskPhone(in.PhoneNumber))
	return MaskPhone(in.PhoneNumber), nil
}

// VerifyRegistration 注册验证：消费验证码并同时完成入驻标记
//
// DevMode 下任意 6 位数字直接通过（跳过真实短信的本地联调通道）。
func (s *Service) VerifyRegistration(ctx context.Context, phone, code string) (*VerifyResult, error) {
	user, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsBanned {
		return nil, ErrBanned
	}

	if !codeRegex.MatchString(code) {
		return nil, ErrInvalidCode
	}
	if !s.cfg.DevMode {
		if err := s.consumeCode(ctx, user.ID, code); err != nil {
			return nil, err
		}
	}

	user.IsPhoneVerified = true
	user.IsOnboardingComplete = true
	user.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	return &VerifyResult{User: user, RedirectTo: "/student/dashboard"}, nil
}

// LoginWithPassword 密码登录：要求已设密码且手机号已验证
func (s *Service) LoginWithPassword(ctx context.Context, phone, password string) (*VerifyResult, error) {
	if !phoneRegex.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	user, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.PasswordHash == "" {
		return nil, ErrNoPassword
	}
	if !user.IsPhoneVerified {
		return nil, ErrNotVerified
	}
	if user.IsBanned {
		return nil, ErrBanned
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrPasswordMismatch
	}

	return &VerifyResult{User: user, RedirectTo: "/student/dashboard"}, nil
}
