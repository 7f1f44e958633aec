package repository

import (
	"context"
	"errors"
	"time"

	"github.com/compreg/compreg/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// UserStore owns the users table. Every write touches exactly one row keyed
// by id, except ConsumeResetChallenge which is keyed by the token digest.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByEmailOrMobile prefers the row matching email when both match
	// different users.
	FindByEmailOrMobile(ctx context.Context, email, mobile string) (*models.User, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetVerificationCode(ctx context.Context, userID, codeHash string, expiresAt time.Time) error
	ClearVerificationCode(ctx context.Context, userID string) error
	MarkVerified(ctx context.Context, userID string) error
	SetResetChallenge(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ClearResetChallenge(ctx context.Context, userID string) error
	// ConsumeResetChallenge clears a matching unexpired challenge and stores
	// passwordHash in the same write, returning the owning user id. At most
	// one caller wins for a given digest.
	ConsumeResetChallenge(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

type CompanyStore interface {
	FindByOwner(ctx context.Context, ownerID string) (*models.Company, error)
	Create(ctx context.Context, company *models.Company) error
	Update(ctx context.Context, ownerID string, update models.CompanyUpdate) (*models.Company, error)
	SetLogoURL(ctx context.Context, ownerID, url string) error
	SetBannerURL(ctx context.Context, ownerID, url string) error
}
