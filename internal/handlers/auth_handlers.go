package handlers

import (
	"net/http"

	"github.com/compreg/compreg/internal/middleware"
	"github.com/compreg/compreg/internal/models"
	"github.com/compreg/compreg/internal/service"
	"github.com/sirupsen/logrus"
)

type AuthHandlers struct {
	authService *service.AuthService
	logger      *logrus.Logger
}

func NewAuthHandlers(authService *service.AuthService, logger *logrus.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
	MobileNo string `json:"mobile_no"`
}

type RegisterResponse struct {
	User                       *models.User `json:"user"`
	Token                      string       `json:"token"`
	RequiresMobileVerification bool         `json:"requires_mobile_verification"`
	EmailStatus                string       `json:"email_status"`
	SMSStatus                  string       `json:"sms_status"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User                       *models.User `json:"user"`
	Token                      string       `json:"token"`
	ExpiresIn                  int64        `json:"expires_in"`
	RequiresMobileVerification bool         `json:"requires_mobile_verification"`
}

type VerifyMobileRequest struct {
	OTP      string `json:"otp"`
	MobileNo string `json:"mobile_no"`
}

type VerifyMobileResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type VerifyResetTokenRequest struct {
	Token string `json:"token"`
}

type VerifyResetTokenResponse struct {
	Valid bool `json:"valid"`
}

func (h *AuthHandlers) fail(w http.ResponseWriter, err error, fallback string) {
	respondWithServiceError(w, h.logger, err, "User not found", fallback)
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Gender:   req.Gender,
		MobileNo: req.MobileNo,
	})
	if err != nil {
		h.fail(w, err, "Registration failed")
		return
	}

	resp := RegisterResponse{
		User:                       result.User,
		Token:                      result.Session.Token,
		RequiresMobileVerification: result.RequiresMobileVerification,
	}
	if result.Delivery != nil {
		resp.EmailStatus = result.Delivery.Email
		resp.SMSStatus = result.Delivery.SMS
	}

	respondWithData(w, http.StatusCreated, "User registered successfully", resp)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err, "Login failed")
		return
	}

	respondWithData(w, http.StatusOK, "Login successful", LoginResponse{
		User:                       result.User,
		Token:                      result.Session.Token,
		ExpiresIn:                  result.Session.ExpiresIn,
		RequiresMobileVerification: result.RequiresMobileVerification,
	})
}

func (h *AuthHandlers) VerifyMobile(w http.ResponseWriter, r *http.Request) {
	var req VerifyMobileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.VerifyMobile(r.Context(), middleware.UserIDFromContext(r.Context()), req.OTP, req.MobileNo)
	if err != nil {
		h.fail(w, err, "Mobile verification failed")
		return
	}

	respondWithData(w, http.StatusOK, "Mobile number verified successfully", VerifyMobileResponse{
		User:  result.User,
		Token: result.Session.Token,
	})
}

func (h *AuthHandlers) ResendOTP(w http.ResponseWriter, r *http.Request) {
	status, err := h.authService.ResendOTP(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, err, "Failed to resend verification code")
		return
	}

	respondWithData(w, http.StatusOK, "Verification code sent", status)
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.fail(w, err, "Failed to process password reset")
		return
	}

	respondWithData(w, http.StatusOK, "Password reset link sent to your email", nil)
}

func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.fail(w, err, "Failed to reset password")
		return
	}

	respondWithData(w, http.StatusOK, "Password has been reset successfully", nil)
}

func (h *AuthHandlers) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyResetTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	valid, err := h.authService.VerifyResetToken(r.Context(), req.Token)
	if err != nil {
		h.fail(w, err, "Failed to verify reset token")
		return
	}

	respondWithData(w, http.StatusOK, "", VerifyResetTokenResponse{Valid: valid})
}

func (h *AuthHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Profile(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, err, "Failed to get profile")
		return
	}

	respondWithData(w, http.StatusOK, "", map[string]*models.User{"user": user})
}
