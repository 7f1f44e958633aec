package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/compreg/compreg/internal/models"
	"github.com/compreg/compreg/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageStore struct {
	keys []string
	err  error
}

func (f *fakeImageStore) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	io.Copy(io.Discard, body)
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type companyFixture struct {
	svc       *CompanyService
	companies *repository.MemoryCompanyRepository
	images    *fakeImageStore
	notifier  *fakeNotifier
}

func newCompanyFixture(t *testing.T, withImages bool) *companyFixture {
	t.Helper()

	users := repository.NewMemoryUserRepository()
	require.NoError(t, users.Create(context.Background(), &models.User{ID: "u-1", Email: "alice@x.com", MobileNo: "+10000000001"}))

	f := &companyFixture{
		companies: repository.NewMemoryCompanyRepository(),
		notifier:  &fakeNotifier{},
	}

	var images ImageStore
	if withImages {
		f.images = &fakeImageStore{}
		images = f.images
	}

	f.svc = NewCompanyService(f.companies, users, images, f.notifier, quietLogger())
	return f
}

func acmeInput() models.CompanyInput {
	return models.CompanyInput{
		CompanyName:    "Acme",
		CompanyEmail:   "hq@acme.io",
		CompanyWebsite: "https://acme.io",
		Industry:       "Software",
	}
}

func strPtr(s string) *string { return &s }

func TestCompanyService_Create(t *testing.T) {
	f := newCompanyFixture(t, false)

	c, err := f.svc.Create(context.Background(), "u-1", acmeInput())
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "u-1", c.OwnerID)
	assert.Equal(t, []string{"alice@x.com|Acme"}, f.notifier.confirmations)

	_, err = f.svc.Create(context.Background(), "u-1", acmeInput())
	assert.ErrorIs(t, err, ErrCompanyExists)
}

func TestCompanyService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(in *models.CompanyInput)
		field string
	}{
		{"missing name", func(in *models.CompanyInput) { in.CompanyName = " " }, "company_name"},
		{"bad email", func(in *models.CompanyInput) { in.CompanyEmail = "acme" }, "company_email"},
		{"relative website", func(in *models.CompanyInput) { in.CompanyWebsite = "acme.io" }, "company_website"},
		{"ftp website", func(in *models.CompanyInput) { in.CompanyWebsite = "ftp://acme.io" }, "company_website"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCompanyFixture(t, false)
			in := acmeInput()
			tt.edit(&in)

			_, err := f.svc.Create(context.Background(), "u-1", in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCompanyService_ConfirmationSkippedForUnknownOwner(t *testing.T) {
	f := newCompanyFixture(t, false)

	_, err := f.svc.Create(context.Background(), "u-unknown", acmeInput())
	require.NoError(t, err)
	assert.Empty(t, f.notifier.confirmations)
}

func TestCompanyService_GetAndCompletion(t *testing.T) {
	f := newCompanyFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "u-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Completion(ctx, "u-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Create(ctx, "u-1", acmeInput())
	require.NoError(t, err)

	pct, err := f.svc.Completion(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 30, pct)
}

func TestCompanyService_Update(t *testing.T) {
	f := newCompanyFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, "u-1", models.CompanyUpdate{City: strPtr("Pune")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Create(ctx, "u-1", acmeInput())
	require.NoError(t, err)

	c, err := f.svc.Update(ctx, "u-1", models.CompanyUpdate{City: strPtr(" Pune "), Country: strPtr("India")})
	require.NoError(t, err)
	assert.Equal(t, "Pune", c.City)
	assert.Equal(t, "India", c.Country)
	assert.Equal(t, "Acme", c.CompanyName)
}

func TestCompanyService_UpdateValidation(t *testing.T) {
	f := newCompanyFixture(t, false)
	ctx := context.Background()

	var verr *ValidationError
	_, err := f.svc.Update(ctx, "u-1", models.CompanyUpdate{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "no fields to update", verr.Message)

	_, err = f.svc.Update(ctx, "u-1", models.CompanyUpdate{CompanyName: strPtr("")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "company_name", verr.Field)

	_, err = f.svc.Update(ctx, "u-1", models.CompanyUpdate{CompanyWebsite: strPtr("not a url")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "company_website", verr.Field)
}

func TestCompanyService_UploadLogo(t *testing.T) {
	f := newCompanyFixture(t, true)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, "u-1", acmeInput())
	require.NoError(t, err)

	c, err := f.svc.UploadLogo(ctx, "u-1", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)

	require.Len(t, f.images.keys, 1)
	assert.True(t, strings.HasPrefix(f.images.keys[0], "companies/u-1/logo-"))
	assert.Equal(t, "https://cdn.example.com/"+f.images.keys[0], c.LogoURL)

	stored, err := f.svc.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, c.LogoURL, stored.LogoURL)
	assert.Empty(t, stored.BannerURL)
}

func TestCompanyService_UploadBanner(t *testing.T) {
	f := newCompanyFixture(t, true)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, "u-1", acmeInput())
	require.NoError(t, err)

	c, err := f.svc.UploadBanner(ctx, "u-1", strings.NewReader("gif"), 3, "image/gif")
	require.NoError(t, err)
	assert.Contains(t, c.BannerURL, "/banner-")
	assert.Empty(t, c.LogoURL)
}

func TestCompanyService_UploadRules(t *testing.T) {
	f := newCompanyFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.UploadLogo(ctx, "u-1", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Create(ctx, "u-1", acmeInput())
	require.NoError(t, err)

	var verr *ValidationError
	_, err = f.svc.UploadLogo(ctx, "u-1", strings.NewReader("x"), 1, "application/pdf")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "logo", verr.Field)

	_, err = f.svc.UploadBanner(ctx, "u-1", strings.NewReader("x"), 6<<20, "image/png")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "banner", verr.Field)

	assert.Empty(t, f.images.keys)
}

func TestCompanyService_UploadStoreError(t *testing.T) {
	f := newCompanyFixture(t, true)
	f.images.err = errors.New("bucket missing")
	ctx := context.Background()
	_, err := f.svc.Create(ctx, "u-1", acmeInput())
	require.NoError(t, err)

	_, err = f.svc.UploadLogo(ctx, "u-1", strings.NewReader("x"), 1, "image/png")
	assert.ErrorContains(t, err, "bucket missing")
}

func TestCompanyService_UploadsDisabled(t *testing.T) {
	f := newCompanyFixture(t, false)

	_, err := f.svc.UploadLogo(context.Background(), "u-1", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}
