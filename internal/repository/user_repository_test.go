package repository

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/compreg/compreg/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newUserRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db, testLogger()), mock
}

var userRowColumns = []string{
	"id", "email", "mobile_no", "password_hash", "full_name", "gender", "is_mobile_verified",
	"otp_hash", "otp_expires_at", "reset_token_hash", "reset_token_expires_at", "created_at", "updated_at",
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	expires := created.Add(10 * time.Minute)

	mock.ExpectQuery(`SELECT id, email, mobile_no, .* FROM users WHERE email = \$1`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			"u-1", "alice@x.com", "+10000000001", "hash", "Alice", "F", false,
			"otp-digest", expires, nil, nil, created, created,
		))

	u, err := repo.FindByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)

	assert.Equal(t, "u-1", u.ID)
	assert.False(t, u.IsMobileVerified)
	require.NotNil(t, u.OTPHash)
	assert.Equal(t, "otp-digest", *u.OTPHash)
	require.NotNil(t, u.OTPExpiresAt)
	assert.True(t, expires.Equal(*u.OTPExpiresAt))
	assert.Nil(t, u.ResetTokenHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_FindByEmailOrMobile_PrefersEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`WHERE email = \$1 OR mobile_no = \$2 ORDER BY \(email = \$1\) DESC LIMIT 1`).
		WithArgs("a@x.com", "+10000000001").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmailOrMobile(context.Background(), "a@x.com", "+10000000001")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_DBError(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("u-1").
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users .* RETURNING created_at, updated_at`).
		WithArgs("u-1", "a@x.com", "+10000000001", "hash", "Alice", "F", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	code := "digest"
	exp := now.Add(time.Minute)
	u := &models.User{
		ID: "u-1", Email: "a@x.com", MobileNo: "+10000000001", PasswordHash: "hash",
		FullName: "Alice", Gender: "F", OTPHash: &code, OTPExpiresAt: &exp,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_MarkVerified(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET is_mobile_verified = TRUE, otp_hash = NULL, otp_expires_at = NULL`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkVerified(context.Background(), "u-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_NoRows(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET otp_hash = \$1, otp_expires_at = \$2`).
		WithArgs("digest", sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetVerificationCode(context.Background(), "ghost", "digest", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_ConsumeResetChallenge(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE users SET password_hash = \$3, reset_token_hash = NULL, reset_token_expires_at = NULL, .* WHERE reset_token_hash = \$1 AND reset_token_expires_at > \$2 RETURNING id`).
		WithArgs("digest", now, "new-hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

	id, err := repo.ConsumeResetChallenge(context.Background(), "digest", "new-hash", now)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
}

func TestUserRepository_ConsumeResetChallenge_NoMatch(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`RETURNING id`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ConsumeResetChallenge(context.Background(), "digest", "new-hash", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_ConsumeResetChallenge_DBError(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`UPDATE users SET password_hash = \$3`).
		WillReturnError(errors.New("db down"))

	_, err := repo.ConsumeResetChallenge(context.Background(), "digest", "new-hash", time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "failed to consume reset challenge")
}

func TestUserRepository_UpdatePasswordHash_DBError(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET password_hash = \$1`).
		WithArgs("new-hash", "u-1").
		WillReturnError(errors.New("db down"))

	err := repo.UpdatePasswordHash(context.Background(), "u-1", "new-hash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update password")
}
