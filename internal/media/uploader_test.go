package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/compreg/compreg/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantExt     string
		wantErr     error
	}{
		{"png", "image/png", 1024, ".png", nil},
		{"jpeg upper", "IMAGE/JPEG", 1024, ".jpg", nil},
		{"webp at limit", "image/webp", MaxImageSize, ".webp", nil},
		{"too large", "image/gif", MaxImageSize + 1, "", ErrTooLarge},
		{"pdf", "application/pdf", 10, "", ErrUnsupportedType},
		{"svg", "image/svg+xml", 10, "", ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := Validate(tt.contentType, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("u-1", "logo", ".png")
	assert.True(t, strings.HasPrefix(key, "companies/u-1/logo-"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ObjectKey("u-1", "logo", ".png"))
}

func TestS3Uploader_Upload(t *testing.T) {
	client := &fakeS3{}
	u := NewS3Uploader(client, &config.S3Config{Bucket: "assets", Region: "eu-west-1"}, quietLogger())

	url, err := u.Upload(context.Background(), "companies/u-1/logo.png", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://assets.s3.eu-west-1.amazonaws.com/companies/u-1/logo.png", url)
	assert.Equal(t, "assets", *client.input.Bucket)
	assert.Equal(t, "image/png", *client.input.ContentType)
	assert.Equal(t, int64(9), *client.input.ContentLength)
	assert.Equal(t, "png-bytes", client.body)
}

func TestS3Uploader_PublicBaseURL(t *testing.T) {
	u := NewS3Uploader(&fakeS3{}, &config.S3Config{Bucket: "assets", PublicBaseURL: "https://cdn.example.com/"}, quietLogger())

	url, err := u.Upload(context.Background(), "k.png", strings.NewReader(""), 0, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k.png", url)
}

func TestS3Uploader_Error(t *testing.T) {
	u := NewS3Uploader(&fakeS3{err: errors.New("access denied")}, &config.S3Config{Bucket: "assets"}, quietLogger())

	_, err := u.Upload(context.Background(), "k.png", strings.NewReader(""), 0, "image/png")
	assert.ErrorContains(t, err, "access denied")
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR", "image/png"},
		{"gif", "GIF89a\x01\x00\x01\x00", "image/gif"},
		{"jpeg", "\xff\xd8\xff\xe0\x00\x10JFIF", "image/jpeg"},
		{"webp", "RIFF\x24\x00\x00\x00WEBPVP8 ", "image/webp"},
		{"text labelled as image", "hello there", "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.NewReader(tt.body)
			got, err := Sniff(body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			rest, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(rest))
		})
	}
}

func TestSniff_RejectedByValidate(t *testing.T) {
	contentType, err := Sniff(strings.NewReader("<svg xmlns=\"http://www.w3.org/2000/svg\"/>"))
	require.NoError(t, err)

	_, err = Validate(contentType, 10)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
