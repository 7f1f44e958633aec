package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/compreg/compreg/internal/media"
	"github.com/compreg/compreg/internal/models"
	"github.com/compreg/compreg/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ImageLogo   = "logo"
	ImageBanner = "banner"
)

// ImageStore uploads an object and returns the URL it is served from.
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type CompanyService struct {
	companies repository.CompanyStore
	users     repository.UserStore
	images    ImageStore
	notifier  Notifier
	logger    *logrus.Logger
}

// NewCompanyService wires the company wizard. images may be nil, in which
// case uploads return ErrUploadsDisabled.
func NewCompanyService(
	companies repository.CompanyStore,
	users repository.UserStore,
	images ImageStore,
	notifier Notifier,
	logger *logrus.Logger,
) *CompanyService {
	return &CompanyService{
		companies: companies,
		users:     users,
		images:    images,
		notifier:  notifier,
		logger:    logger,
	}
}

func validateWebsite(website string) error {
	if website == "" {
		return nil
	}
	u, err := url.Parse(website)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("company_website", "must be an absolute http(s) URL")
	}
	return nil
}

func validateCompany(c *models.Company) error {
	if c.CompanyName == "" {
		return invalid("company_name", "is required")
	}
	if !emailPattern.MatchString(c.CompanyEmail) {
		return invalid("company_email", "must be a valid email address")
	}
	return validateWebsite(c.CompanyWebsite)
}

func validateUpdate(u models.CompanyUpdate) error {
	if u.CompanyName != nil && strings.TrimSpace(*u.CompanyName) == "" {
		return invalid("company_name", "cannot be empty")
	}
	if u.CompanyEmail != nil && !emailPattern.MatchString(strings.TrimSpace(*u.CompanyEmail)) {
		return invalid("company_email", "must be a valid email address")
	}
	if u.CompanyWebsite != nil {
		return validateWebsite(strings.TrimSpace(*u.CompanyWebsite))
	}
	return nil
}

// Create registers the owner's company. Each owner has at most one.
func (s *CompanyService) Create(ctx context.Context, ownerID string, in models.CompanyInput) (*models.Company, error) {
	company := models.NewCompany(uuid.New().String(), ownerID, in)
	if err := validateCompany(company); err != nil {
		return nil, err
	}

	_, err := s.companies.FindByOwner(ctx, ownerID)
	switch {
	case err == nil:
		return nil, ErrCompanyExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing company: %w", err)
	}

	if err := s.companies.Create(ctx, company); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCompanyExists
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"owner_id":   ownerID,
		"company_id": company.ID,
	}).Info("Company registered")

	s.sendConfirmation(ctx, ownerID, company.CompanyName)

	return company, nil
}

func (s *CompanyService) sendConfirmation(ctx context.Context, ownerID, companyName string) {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Skipping company confirmation email")
		return
	}
	s.notifier.SendCompanyConfirmation(ctx, owner.Email, companyName)
}

func (s *CompanyService) Get(ctx context.Context, ownerID string) (*models.Company, error) {
	company, err := s.companies.FindByOwner(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	return company, nil
}

// Update writes the non-nil fields of update.
func (s *CompanyService) Update(ctx context.Context, ownerID string, update models.CompanyUpdate) (*models.Company, error) {
	if len(update.Assignments()) == 0 {
		return nil, invalid("", "no fields to update")
	}
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	company, err := s.companies.Update(ctx, ownerID, update)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return company, nil
}

func (s *CompanyService) Completion(ctx context.Context, ownerID string) (int, error) {
	company, err := s.Get(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return company.CompletionPercentage(), nil
}

func (s *CompanyService) UploadLogo(ctx context.Context, ownerID string, body io.Reader, size int64, contentType string) (*models.Company, error) {
	return s.uploadImage(ctx, ownerID, ImageLogo, body, size, contentType)
}

func (s *CompanyService) UploadBanner(ctx context.Context, ownerID string, body io.Reader, size int64, contentType string) (*models.Company, error) {
	return s.uploadImage(ctx, ownerID, ImageBanner, body, size, contentType)
}

func (s *CompanyService) uploadImage(ctx context.Context, ownerID, kind string, body io.Reader, size int64, contentType string) (*models.Company, error) {
	if s.images == nil {
		return nil, ErrUploadsDisabled
	}

	ext, err := media.Validate(contentType, size)
	if err != nil {
		return nil, invalid(kind, err.Error())
	}

	company, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Upload(ctx, media.ObjectKey(ownerID, kind, ext), body, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", kind, err)
	}

	setURL := s.companies.SetLogoURL
	if kind == ImageBanner {
		setURL = s.companies.SetBannerURL
	}
	if err := setURL(ctx, ownerID, imageURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to save %s url: %w", kind, err)
	}

	if kind == ImageBanner {
		company.BannerURL = imageURL
	} else {
		company.LogoURL = imageURL
	}

	return company, nil
}
