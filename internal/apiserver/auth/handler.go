package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"lms-admin/internal/shared/model"
)

// Handler 手机号认证 HTTP 处理器
type Handler struct {
	svc *Service
	cfg Config
}

// NewHandler 创建手机号认证处理器
func NewHandler(svc *Service, cfg Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// RegisterRoutes 注册手机号认证路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/phone/send-otp", h.SendOTP)
	mux.HandleFunc("POST /api/auth/phone/mobileVerify-otp", h.VerifyOTP)
	mux.HandleFunc("POST /api/auth/phone/login-phone", h.LoginWithPhone)
	mux.HandleFunc("POST /api/auth/phone/register", h.Register)
	mux.HandleFunc("POST /api/auth/phone/verify-registration", h.VerifyRegistration)
	mux.HandleFunc("POST /api/auth/phone/login-password", h.LoginWithPassword)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type sendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	OTPCode     string `json:"otpCode"`
}

type registerRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	City        string `json:"city"`
	Gender      string `json:"gender"`
	DOB         string `json:"dob"`
}

type passwordLoginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type loginResponse struct {
	Message    string      `json:"message"`
	Token      string      `json:"token"`
	User       *model.User `json:"user"`
	RedirectTo string      `json:"redirectTo,omitempty"`
}

// ============================================================================
// 错误映射
// ============================================================================

// flowStatus 把认证流程领域错误映射为 HTTP 状态码与对外 message
func flowStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidPhone):
		return http.StatusBadRequest, "Please enter a valid 10-digit phone number"
	case errors.Is(err, ErrInvalidCode):
		return http.StatusBadRequest, "Please enter a valid 6-digit OTP"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "User not found. Please request a new OTP."
	case errors.Is(err, ErrBanned):
		return http.StatusForbidden, "Your account has been suspended. Please contact support."
	case errors.Is(err, ErrNoCode):
		return http.StatusNotFound, "No OTP found. Please request a new OTP."
	case errors.Is(err, ErrCodeExpired):
		return http.StatusBadRequest, "OTP has expired. Please request a new OTP."
	case errors.Is(err, ErrCodeMismatch):
		return http.StatusBadRequest, "Invalid OTP. Please check and try again."
	case errors.Is(err, ErrNotVerified):
		return http.StatusForbidden, "Your phone number is not verified. Please complete registration with OTP verification first."
	case errors.Is(err, ErrNoPassword):
		return http.StatusBadRequest, "Please set a password by registering again, or use OTP login."
	case errors.Is(err, ErrPasswordTooShort):
		return http.StatusBadRequest, "Password must be at least 6 characters"
	case errors.Is(err, ErrPasswordMismatch):
		return http.StatusUnauthorized, "Invalid password. Please try again."
	case errors.Is(err, ErrAccountExists):
		return http.StatusBadRequest, "Account already exists. Please login."
	case errors.Is(err, ErrResendCooldown):
		return http.StatusTooManyRequests, "Please wait before requesting another OTP"
	case errors.Is(err, ErrDeliveryFailed):
		return http.StatusInternalServerError, "Failed to send OTP. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

func (h *Handler) writeFlowError(w http.ResponseWriter, op string, err error) {
	status, msg := flowStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[auth.%s] error: %v", op, err)
	}
	writeMessage(w, status, msg)
}

// ============================================================================
// Handlers
// ============================================================================

// SendOTP 签发验证码
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	masked, err := h.svc.IssueCode(r.Context(), req.PhoneNumber)
	if err != nil {
		h.writeFlowError(w, "send-otp", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "OTP sent successfully!",
		"phoneNumber": masked,
	})
}

// VerifyOTP 验证验证码并签发学员会话
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" || req.OTPCode == "" {
		writeMessage(w, http.StatusBadRequest, "Phone number and OTP are required")
		return
	}

	result, err := h.svc.VerifyCode(r.Context(), req.PhoneNumber, req.OTPCode)
	if err != nil {
		h.writeFlowError(w, "verify-otp", err)
		return
	}

	token, err := GenerateUserToken(h.cfg, result.User)
	if err != nil {
		log.Printf("[auth.verify-otp] GenerateUserToken error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Verification failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message:    "Login successful!",
		Token:      token,
		User:       result.User,
		RedirectTo: result.RedirectTo,
	})
}

// LoginWithPhone 纯登录路径：已验证用户凭验证码登录
func (h *Handler) LoginWithPhone(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" || req.OTPCode == "" {
		writeMessage(w, http.StatusBadRequest, "Phone number and OTP are required")
		return
	}

	user, err := h.svc.ConsumeForLogin(r.Context(), req.PhoneNumber, req.OTPCode)
	if err != nil {
		h.writeFlowError(w, "login-phone", err)
		return
	}

	token, err := GenerateUserToken(h.cfg, user)
	if err != nil {
		log.Printf("[auth.login-phone] GenerateUserToken error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful!",
		Token:   token,
		User:    user,
	})
}

// Register 手机号注册并签发验证码
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.PhoneNumber == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Name, phone number, and password are required")
		return
	}

	masked, err := h.svc.Register(r.Context(), RegisterInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		City:        req.City,
		Gender:      req.Gender,
		DOB:         req.DOB,
	})
	if err != nil {
		h.writeFlowError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "OTP sent to your phone number. Please verify.",
		"phoneNumber": masked,
	})
}

// VerifyRegistration 注册验证并签发学员会话
func (h *Handler) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" || req.OTPCode == "" {
		writeMessage(w, http.StatusBadRequest, "Phone number and OTP are required")
		return
	}

	result, err := h.svc.VerifyRegistration(r.Context(), req.PhoneNumber, req.OTPCode)
	if err != nil {
		h.writeFlowError(w, "verify-registration", err)
		return
	}

	token, err := GenerateUserToken(h.cfg, result.User)
	if err != nil {
		log.Printf("[auth.verify-registration] GenerateUserToken error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Verification failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message:    "Registration successful!",
		Token:      token,
		User:       result.User,
		RedirectTo: result.RedirectTo,
	})
}

// LoginWithPassword 密码登录
func (h *Handler) LoginWithPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Phone number and password are required")
		return
	}

	result, err := h.svc.LoginWithPassword(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		h.writeFlowError(w, "login-password", err)
		return
	}

	token, err := GenerateUserToken(h.cfg, result.User)
	if err != nil {
		log.Printf("[auth.login-password] GenerateUserToken error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message:    "Login successful!",
		Token:      token,
		User:       result.User,
		RedirectTo: result.RedirectTo,
	})
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
