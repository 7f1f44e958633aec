package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/compreg/compreg/internal/config"
	"github.com/compreg/compreg/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// JWTService issues and verifies stateless session credentials. There is
// no revocation list; rotating JWT_SECRET_KEY invalidates every session.
type JWTService struct {
	secretKey          []byte
	accessExpiry       time.Duration
	verificationExpiry time.Duration
	logger             *logrus.Logger
	now                func() time.Time
}

func NewJWTService(cfg *config.JWTConfig, logger *logrus.Logger) (*JWTService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &JWTService{
		secretKey:          secretKey,
		accessExpiry:       cfg.AccessExpiry,
		verificationExpiry: cfg.VerificationExpiry,
		logger:             logger,
		now:                time.Now,
	}, nil
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

func (s *JWTService) expiryFor(scope string) (time.Duration, error) {
	switch scope {
	case models.ScopeAccess:
		return s.accessExpiry, nil
	case models.ScopeVerification:
		return s.verificationExpiry, nil
	default:
		return 0, fmt.Errorf("unknown token scope %q", scope)
	}
}

// Issue signs a credential for userID limited to scope.
func (s *JWTService) Issue(userID, email, scope string) (*models.Session, error) {
	ttl, err := s.expiryFor(scope)
	if err != nil {
		return nil, err
	}

	now := s.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign session token")
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &models.Session{
		Token:     signed,
		TokenType: "Bearer",
		Scope:     scope,
		ExpiresIn: int64(ttl.Seconds()),
	}, nil
}

// Verify checks signature and expiry. The returned error wraps
// ErrTokenExpired or ErrTokenInvalid.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	if _, err := s.expiryFor(claims.Scope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return claims, nil
}
