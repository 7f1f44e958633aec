package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/compreg/compreg/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

const userColumns = `id, email, mobile_no, password_hash, full_name, gender, is_mobile_verified,
	otp_hash, otp_expires_at, reset_token_hash, reset_token_expires_at, created_at, updated_at`

const uniqueViolation = "23505"

type UserRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewUserRepository(db *sql.DB, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.MobileNo, &u.PasswordHash, &u.FullName, &u.Gender, &u.IsMobileVerified,
		&u.OTPHash, &u.OTPExpiresAt, &u.ResetTokenHash, &u.ResetTokenExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindByEmailOrMobile(ctx context.Context, email, mobile string) (*models.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email = $1 OR mobile_no = $2
		 ORDER BY (email = $1) DESC
		 LIMIT 1`,
		email, mobile,
	)
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`,
		tokenHash, now,
	)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, mobile_no, password_hash, full_name, gender, is_mobile_verified, otp_hash, otp_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		user.ID, user.Email, user.MobileNo, user.PasswordHash, user.FullName, user.Gender,
		user.IsMobileVerified, user.OTPHash, user.OTPExpiresAt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("user already exists: %w", ErrDuplicate)
		}
		r.logger.WithError(err).Error("Failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// exec runs a single-row update and maps zero affected rows to ErrNotFound.
func (r *UserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithError(err).WithField("op", op).Error("Failed to update user")
		return fmt.Errorf("failed to %s: %w", op, err)
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

func (r *UserRepository) SetVerificationCode(ctx context.Context, userID, codeHash string, expiresAt time.Time) error {
	return r.exec(ctx, "set verification code",
		`UPDATE users SET otp_hash = $1, otp_expires_at = $2, updated_at = NOW() WHERE id = $3`,
		codeHash, expiresAt, userID,
	)
}

func (r *UserRepository) ClearVerificationCode(ctx context.Context, userID string) error {
	return r.exec(ctx, "clear verification code",
		`UPDATE users SET otp_hash = NULL, otp_expires_at = NULL, updated_at = NOW() WHERE id = $1`,
		userID,
	)
}

func (r *UserRepository) MarkVerified(ctx context.Context, userID string) error {
	return r.exec(ctx, "mark verified",
		`UPDATE users SET is_mobile_verified = TRUE, otp_hash = NULL, otp_expires_at = NULL, updated_at = NOW() WHERE id = $1`,
		userID,
	)
}

func (r *UserRepository) SetResetChallenge(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return r.exec(ctx, "set reset challenge",
		`UPDATE users SET reset_token_hash = $1, reset_token_expires_at = $2, updated_at = NOW() WHERE id = $3`,
		tokenHash, expiresAt, userID,
	)
}

func (r *UserRepository) ClearResetChallenge(ctx context.Context, userID string) error {
	return r.exec(ctx, "clear reset challenge",
		`UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = NOW() WHERE id = $1`,
		userID,
	)
}

func (r *UserRepository) ConsumeResetChallenge(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET password_hash = $3, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		 WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
		 RETURNING id`,
		tokenHash, now, passwordHash,
	).Scan(&userID)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to consume reset challenge")
		return "", fmt.Errorf("failed to consume reset challenge: %w", err)
	}

	return userID, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, userID,
	)
}

var _ UserStore = (*UserRepository)(nil)
