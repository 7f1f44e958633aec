package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/compreg/compreg/internal/config"
	"github.com/compreg/compreg/internal/models"
	"github.com/compreg/compreg/internal/notification"
	"github.com/compreg/compreg/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)
)

// Notifier is the slice of the notification dispatcher the services use.
type Notifier interface {
	SendCode(ctx context.Context, channel notification.Channel, destination, code string) notification.Result
	SendLink(ctx context.Context, destination, link string) notification.Result
	SendCompanyConfirmation(ctx context.Context, destination, companyName string) notification.Result
}

// EventRecorder counts state machine transitions.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

type nopEvents struct{}

func (nopEvents) RecordAuthEvent(string, string) {}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Gender   string
	MobileNo string
}

type AuthResult struct {
	User                       *models.User
	Session                    *models.Session
	RequiresMobileVerification bool
	Delivery                   *DeliveryStatus
}

// DeliveryStatus reports how each channel fared for a best-effort dispatch.
type DeliveryStatus struct {
	Email string `json:"email_status"`
	SMS   string `json:"sms_status"`
}

type AuthService struct {
	users        repository.UserStore
	sessions     *JWTService
	notifier     Notifier
	limiter      AttemptLimiter
	events       EventRecorder
	otp          config.OTPConfig
	reset        config.ResetConfig
	logger       *logrus.Logger
	now          func() time.Time
	passwordCost int
}

func NewAuthService(
	users repository.UserStore,
	sessions *JWTService,
	notifier Notifier,
	limiter AttemptLimiter,
	events EventRecorder,
	otpCfg *config.OTPConfig,
	resetCfg *config.ResetConfig,
	logger *logrus.Logger,
) *AuthService {
	if limiter == nil {
		limiter = NoopAttemptLimiter{}
	}
	if events == nil {
		events = nopEvents{}
	}

	return &AuthService{
		users:        users,
		sessions:     sessions,
		notifier:     notifier,
		limiter:      limiter,
		events:       events,
		otp:          *otpCfg,
		reset:        *resetCfg,
		logger:       logger,
		now:          time.Now,
		passwordCost: bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(field, password string) error {
	if len(password) < minPasswordLength {
		return invalid(field, fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (in *RegisterInput) normalize() error {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Gender = strings.ToUpper(strings.TrimSpace(in.Gender))
	in.MobileNo = strings.TrimSpace(in.MobileNo)

	if !emailPattern.MatchString(in.Email) {
		return invalid("email", "must be a valid email address")
	}
	if err := validatePassword("password", in.Password); err != nil {
		return err
	}
	if in.FullName == "" {
		return invalid("full_name", "is required")
	}
	if in.Gender != models.GenderMale && in.Gender != models.GenderFemale {
		return invalid("gender", "must be M or F")
	}
	if !mobilePattern.MatchString(in.MobileNo) {
		return invalid("mobile_no", "must be a valid mobile number")
	}
	return nil
}

// Register creates an unverified user, attaches a fresh verification code
// and returns a verification-scoped session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmailOrMobile(ctx, in.Email, in.MobileNo)
	switch {
	case err == nil:
		s.events.RecordAuthEvent("register", "conflict")
		if existing.Email == in.Email {
			return nil, ErrEmailTaken
		}
		return nil, ErrMobileTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, codeHash, expiresAt, err := s.newCode()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		MobileNo:     in.MobileNo,
		PasswordHash: string(passwordHash),
		FullName:     in.FullName,
		Gender:       in.Gender,
		OTPHash:      &codeHash,
		OTPExpiresAt: &expiresAt,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.events.RecordAuthEvent("register", "conflict")
			return nil, fmt.Errorf("%w: email or mobile number already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.sessions.Issue(user.ID, user.Email, models.ScopeVerification)
	if err != nil {
		return nil, err
	}

	delivery := s.dispatchCode(ctx, user, code)

	s.events.RecordAuthEvent("register", "success")
	s.logger.WithField("user_id", user.ID).Info("User registered, mobile verification pending")

	return &AuthResult{
		User:                       user,
		Session:                    session,
		RequiresMobileVerification: true,
		Delivery:                   delivery,
	}, nil
}

// Login checks credentials. Unverified users receive a verification-scoped
// session so they can finish verification.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if password == "" {
		return nil, invalid("password", "is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.events.RecordAuthEvent("login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.events.RecordAuthEvent("login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	scope := models.ScopeAccess
	if !user.IsMobileVerified {
		scope = models.ScopeVerification
	}

	session, err := s.sessions.Issue(user.ID, user.Email, scope)
	if err != nil {
		return nil, err
	}

	s.events.RecordAuthEvent("login", "success")

	return &AuthResult{
		User:                       user,
		Session:                    session,
		RequiresMobileVerification: !user.IsMobileVerified,
	}, nil
}

// VerifyMobile checks code against the pending challenge. mobileNo is
// optional; when given it must match the registered number.
func (s *AuthService) VerifyMobile(ctx context.Context, userID, code, mobileNo string) (*AuthResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("otp", "is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if mobileNo = strings.TrimSpace(mobileNo); mobileNo != "" && mobileNo != user.MobileNo {
		return nil, invalid("mobile_no", "does not match the registered mobile number")
	}

	key := attemptsKey(user.ID)
	failures, err := s.limiter.Failures(ctx, key)
	if err != nil {
		s.logger.WithError(err).Warn("Attempt limiter unavailable")
	}
	if failures >= s.otp.MaxAttempts {
		s.events.RecordAuthEvent("verify_mobile", "too_many_attempts")
		return nil, ErrTooManyAttempts
	}

	if !user.HasPendingCode(s.now()) || !CompareCode(*user.OTPHash, code) {
		return nil, s.rejectCode(ctx, user.ID, key)
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.WithError(err).Warn("Failed to reset attempt counter")
	}

	user.IsMobileVerified = true
	user.OTPHash = nil
	user.OTPExpiresAt = nil

	session, err := s.sessions.Issue(user.ID, user.Email, models.ScopeAccess)
	if err != nil {
		return nil, err
	}

	s.events.RecordAuthEvent("verify_mobile", "success")
	s.logger.WithField("user_id", user.ID).Info("Mobile number verified")

	return &AuthResult{User: user, Session: session}, nil
}

func (s *AuthService) rejectCode(ctx context.Context, userID, key string) error {
	count, err := s.limiter.RegisterFailure(ctx, key, s.otp.Expiry)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count verification attempt")
	}

	if count >= s.otp.MaxAttempts {
		if err := s.users.ClearVerificationCode(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.WithError(err).Error("Failed to clear verification code")
		}
		s.events.RecordAuthEvent("verify_mobile", "too_many_attempts")
		return ErrTooManyAttempts
	}

	s.events.RecordAuthEvent("verify_mobile", "invalid_code")
	return ErrInvalidCode
}

// ResendOTP replaces the pending code, invalidating the previous one.
func (s *AuthService) ResendOTP(ctx context.Context, userID string) (*DeliveryStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.IsMobileVerified {
		return nil, ErrAlreadyVerified
	}

	allowed, err := s.limiter.Cooldown(ctx, resendKey(user.ID), s.otp.ResendCooldown)
	if err != nil {
		s.logger.WithError(err).Warn("Attempt limiter unavailable")
	}
	if !allowed {
		s.events.RecordAuthEvent("resend_otp", "cooldown")
		return nil, ErrTooManyAttempts
	}

	code, codeHash, expiresAt, err := s.newCode()
	if err != nil {
		return nil, err
	}

	if err := s.users.SetVerificationCode(ctx, user.ID, codeHash, expiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.limiter.Reset(ctx, attemptsKey(user.ID)); err != nil {
		s.logger.WithError(err).Warn("Failed to reset attempt counter")
	}

	s.events.RecordAuthEvent("resend_otp", "success")

	return s.dispatchCode(ctx, user, code), nil
}

// RequestPasswordReset stores a reset challenge and emails the raw token.
// Unlike code dispatch, a failed delivery is reported to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("email", "is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.events.RecordAuthEvent("forgot_password", "not_found")
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := GenerateOpaqueToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := s.now().Add(s.reset.Expiry)
	if err := s.users.SetResetChallenge(ctx, user.ID, HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("failed to store reset challenge: %w", err)
	}

	res := s.notifier.SendLink(ctx, user.Email, s.resetLink(token))
	if res.Failed() {
		if err := s.users.ClearResetChallenge(ctx, user.ID); err != nil {
			s.logger.WithError(err).Error("Failed to clear undelivered reset challenge")
		}
		s.events.RecordAuthEvent("forgot_password", "delivery_failed")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, res.Err)
	}

	s.events.RecordAuthEvent("forgot_password", "success")
	return nil
}

func (s *AuthService) resetLink(token string) string {
	return strings.TrimRight(s.reset.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// VerifyResetToken reports whether token matches an unexpired challenge.
// It never mutates state.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}

	_, err := s.users.FindByResetTokenHash(ctx, HashToken(token), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up reset token: %w", err)
	}

	return true, nil
}

// ResetPassword consumes the challenge for token and stores a new password
// hash in one write, so a failed store leaves the token usable.
// Verification status is left unchanged.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	if err := validatePassword("newPassword", newPassword); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.users.ConsumeResetChallenge(ctx, HashToken(token), string(passwordHash), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		s.events.RecordAuthEvent("reset_password", "invalid_token")
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.events.RecordAuthEvent("reset_password", "success")
	s.logger.WithField("user_id", userID).Info("Password reset")
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) newCode() (code, codeHash string, expiresAt time.Time, err error) {
	code, err = GenerateNumericCode(s.otp.Length)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate verification code: %w", err)
	}

	codeHash, err = HashCode(code, s.passwordCost)
	if err != nil {
		return "", "", time.Time{}, err
	}

	return code, codeHash, s.now().Add(s.otp.Expiry), nil
}

// dispatchCode sends code over email and SMS. Failures are logged and
// reported in the returned status only.
func (s *AuthService) dispatchCode(ctx context.Context, user *models.User, code string) *DeliveryStatus {
	email := s.notifier.SendCode(ctx, notification.ChannelEmail, user.Email, code)
	sms := s.notifier.SendCode(ctx, notification.ChannelSMS, user.MobileNo, code)

	if email.Failed() || sms.Failed() {
		s.logger.WithFields(logrus.Fields{
			"user_id":      user.ID,
			"email_status": email.Status,
			"sms_status":   sms.Status,
		}).Warn("Verification code was not delivered on every channel")
	}

	return &DeliveryStatus{Email: email.Status, SMS: sms.Status}
}
