package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/compreg/compreg/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

const companyColumns = `id, owner_id, company_name, description, industry, company_size, organization_type,
	year_established, company_website, vision, address, city, state, zip_code, country,
	company_email, company_phone, social_links::text, logo_url, banner_url, created_at, updated_at`

type CompanyRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewCompanyRepository(db *sql.DB, logger *logrus.Logger) *CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

func scanCompany(row rowScanner) (*models.Company, error) {
	c := &models.Company{}
	var links string
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.CompanyName, &c.Description, &c.Industry, &c.CompanySize, &c.OrganizationType,
		&c.YearEstablished, &c.CompanyWebsite, &c.Vision, &c.Address, &c.City, &c.State, &c.ZipCode, &c.Country,
		&c.CompanyEmail, &c.CompanyPhone, &links, &c.LogoURL, &c.BannerURL, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	c.SocialLinks = []string{}
	if links != "" {
		if err := json.Unmarshal([]byte(links), &c.SocialLinks); err != nil {
			return nil, fmt.Errorf("failed to decode social links: %w", err)
		}
	}

	return c, nil
}

func encodeLinks(links []string) (string, error) {
	if links == nil {
		links = []string{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("failed to encode social links: %w", err)
	}
	return string(b), nil
}

func (r *CompanyRepository) FindByOwner(ctx context.Context, ownerID string) (*models.Company, error) {
	company, err := scanCompany(r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE owner_id = $1`, ownerID))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to query company")
		return nil, fmt.Errorf("failed to query company: %w", err)
	}
	return company, nil
}

func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) error {
	links, err := encodeLinks(c.SocialLinks)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO companies (id, owner_id, company_name, description, industry, company_size, organization_type,
			year_established, company_website, vision, address, city, state, zip_code, country,
			company_email, company_phone, social_links)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18::text::jsonb)
		 RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.CompanyName, c.Description, c.Industry, c.CompanySize, c.OrganizationType,
		c.YearEstablished, c.CompanyWebsite, c.Vision, c.Address, c.City, c.State, c.ZipCode, c.Country,
		c.CompanyEmail, c.CompanyPhone, links,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("company already exists: %w", ErrDuplicate)
		}
		r.logger.WithError(err).Error("Failed to create company")
		return fmt.Errorf("failed to create company: %w", err)
	}

	return nil
}

// buildCompanyUpdate renders the allow-listed assignments of u into an
// UPDATE statement keyed by owner_id.
func buildCompanyUpdate(ownerID string, u models.CompanyUpdate) (string, []any, error) {
	assignments := u.Assignments()
	if len(assignments) == 0 {
		return "", nil, fmt.Errorf("no fields to update")
	}

	sets := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+1)
	for i, a := range assignments {
		placeholder := fmt.Sprintf("$%d", i+1)
		value := a.Value
		if links, ok := value.([]string); ok {
			encoded, err := encodeLinks(links)
			if err != nil {
				return "", nil, err
			}
			value = encoded
			placeholder += "::text::jsonb"
		}
		sets = append(sets, a.Column+" = "+placeholder)
		args = append(args, value)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, ownerID)

	query := fmt.Sprintf(`UPDATE companies SET %s WHERE owner_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), companyColumns)

	return query, args, nil
}

func (r *CompanyRepository) Update(ctx context.Context, ownerID string, update models.CompanyUpdate) (*models.Company, error) {
	query, args, err := buildCompanyUpdate(ownerID, update)
	if err != nil {
		return nil, err
	}

	company, err := scanCompany(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to update company")
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return company, nil
}

func (r *CompanyRepository) setColumn(ctx context.Context, column, ownerID, value string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE companies SET `+column+` = $1, updated_at = NOW() WHERE owner_id = $2`,
		value, ownerID,
	)
	if err != nil {
		r.logger.WithError(err).WithField("column", column).Error("Failed to update company")
		return fmt.Errorf("failed to set %s: %w", column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *CompanyRepository) SetLogoURL(ctx context.Context, ownerID, url string) error {
	return r.setColumn(ctx, "logo_url", ownerID, url)
}

func (r *CompanyRepository) SetBannerURL(ctx context.Context, ownerID, url string) error {
	return r.setColumn(ctx, "banner_url", ownerID, url)
}

var _ CompanyStore = (*CompanyRepository)(nil)
