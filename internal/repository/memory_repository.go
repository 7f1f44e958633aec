package repository

import (
	"context"
	"sync"
	"time"

	"github.com/compreg/compreg/internal/models"
)

// MemoryUserRepository is a process-local UserStore used by the memory
// backend and by tests. It hands out copies so callers cannot mutate state.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
	now   func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*models.User),
		now:   time.Now,
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.OTPHash != nil {
		v := *u.OTPHash
		c.OTPHash = &v
	}
	if u.OTPExpiresAt != nil {
		v := *u.OTPExpiresAt
		c.OTPExpiresAt = &v
	}
	if u.ResetTokenHash != nil {
		v := *u.ResetTokenHash
		c.ResetTokenHash = &v
	}
	if u.ResetTokenExpiresAt != nil {
		v := *u.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &v
	}
	return &c
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindByEmailOrMobile(_ context.Context, email, mobile string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var byMobile *models.User
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
		if u.MobileNo == mobile && byMobile == nil {
			byMobile = u
		}
	}
	if byMobile != nil {
		return copyUser(byMobile), nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindByResetTokenHash(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash && u.HasResetChallenge(now) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == user.ID || u.Email == user.Email || u.MobileNo == user.MobileNo {
			return ErrDuplicate
		}
	}

	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *MemoryUserRepository) update(id string, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = r.now()
	return nil
}

func (r *MemoryUserRepository) SetVerificationCode(_ context.Context, userID, codeHash string, expiresAt time.Time) error {
	return r.update(userID, func(u *models.User) {
		u.OTPHash = &codeHash
		u.OTPExpiresAt = &expiresAt
	})
}

func (r *MemoryUserRepository) ClearVerificationCode(_ context.Context, userID string) error {
	return r.update(userID, func(u *models.User) {
		u.OTPHash = nil
		u.OTPExpiresAt = nil
	})
}

func (r *MemoryUserRepository) MarkVerified(_ context.Context, userID string) error {
	return r.update(userID, func(u *models.User) {
		u.IsMobileVerified = true
		u.OTPHash = nil
		u.OTPExpiresAt = nil
	})
}

func (r *MemoryUserRepository) SetResetChallenge(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return r.update(userID, func(u *models.User) {
		u.ResetTokenHash = &tokenHash
		u.ResetTokenExpiresAt = &expiresAt
	})
}

func (r *MemoryUserRepository) ClearResetChallenge(_ context.Context, userID string) error {
	return r.update(userID, func(u *models.User) {
		u.ResetTokenHash = nil
		u.ResetTokenExpiresAt = nil
	})
}

func (r *MemoryUserRepository) ConsumeResetChallenge(_ context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash && u.HasResetChallenge(now) {
			u.PasswordHash = passwordHash
			u.ResetTokenHash = nil
			u.ResetTokenExpiresAt = nil
			u.UpdatedAt = r.now()
			return u.ID, nil
		}
	}
	return "", ErrNotFound
}

func (r *MemoryUserRepository) UpdatePasswordHash(_ context.Context, userID, passwordHash string) error {
	return r.update(userID, func(u *models.User) {
		u.PasswordHash = passwordHash
	})
}

var _ UserStore = (*MemoryUserRepository)(nil)

type MemoryCompanyRepository struct {
	mu        sync.Mutex
	companies map[string]*models.Company
	now       func() time.Time
}

func NewMemoryCompanyRepository() *MemoryCompanyRepository {
	return &MemoryCompanyRepository{
		companies: make(map[string]*models.Company),
		now:       time.Now,
	}
}

func copyCompany(c *models.Company) *models.Company {
	out := *c
	out.SocialLinks = append([]string{}, c.SocialLinks...)
	return &out
}

func (r *MemoryCompanyRepository) FindByOwner(_ context.Context, ownerID string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.companies[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCompany(c), nil
}

func (r *MemoryCompanyRepository) Create(_ context.Context, company *models.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.companies[company.OwnerID]; ok {
		return ErrDuplicate
	}
	if company.SocialLinks == nil {
		company.SocialLinks = []string{}
	}
	now := r.now()
	company.CreatedAt = now
	company.UpdatedAt = now
	r.companies[company.OwnerID] = copyCompany(company)
	return nil
}

func (r *MemoryCompanyRepository) Update(_ context.Context, ownerID string, update models.CompanyUpdate) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.companies[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(c)
	c.UpdatedAt = r.now()
	return copyCompany(c), nil
}

func (r *MemoryCompanyRepository) setURL(ownerID string, fn func(c *models.Company)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.companies[ownerID]
	if !ok {
		return ErrNotFound
	}
	fn(c)
	c.UpdatedAt = r.now()
	return nil
}

func (r *MemoryCompanyRepository) SetLogoURL(_ context.Context, ownerID, url string) error {
	return r.setURL(ownerID, func(c *models.Company) { c.LogoURL = url })
}

func (r *MemoryCompanyRepository) SetBannerURL(_ context.Context, ownerID, url string) error {
	return r.setURL(ownerID, func(c *models.Company) { c.BannerURL = url })
}

var _ CompanyStore = (*MemoryCompanyRepository)(nil)
