package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 6, cfg.OTP.Length)
	assert.Equal(t, 10*time.Minute, cfg.OTP.Expiry)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Reset.Expiry)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessExpiry)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:5174", "http://localhost:5175"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Redis.Endpoint)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/compreg?sslmode=disable")
	t.Setenv("OTP_EXPIRY", "5m")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Database.Backend)
	assert.Equal(t, 5*time.Minute, cfg.OTP.Expiry)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"STORE_BACKEND": "memory"},
			want: "JWT_SECRET_KEY environment variable is required",
		},
		{
			name: "short secret",
			env:  map[string]string{"JWT_SECRET_KEY": "short", "STORE_BACKEND": "memory"},
			want: "at least 32 bytes",
		},
		{
			name: "postgres without url",
			env:  map[string]string{"JWT_SECRET_KEY": testSecret, "STORE_BACKEND": "postgres"},
			want: "DATABASE_URL",
		},
		{
			name: "unknown backend",
			env:  map[string]string{"JWT_SECRET_KEY": testSecret, "STORE_BACKEND": "mongo"},
			want: "unknown STORE_BACKEND",
		},
		{
			name: "otp too short",
			env:  map[string]string{"JWT_SECRET_KEY": testSecret, "STORE_BACKEND": "memory", "OTP_LENGTH": "2"},
			want: "OTP_LENGTH",
		},
		{
			name: "zero otp expiry",
			env:  map[string]string{"JWT_SECRET_KEY": testSecret, "STORE_BACKEND": "memory", "OTP_EXPIRY": "0s"},
			want: "OTP_EXPIRY must be positive",
		},
		{
			name: "zero resend cooldown",
			env:  map[string]string{"JWT_SECRET_KEY": testSecret, "STORE_BACKEND": "memory", "OTP_RESEND_COOLDOWN": "0s"},
			want: "OTP_RESEND_COOLDOWN must be positive",
		},
		{
			name: "negative reset expiry",
			env:  map[string]string{"JWT_SECRET_KEY": testSecret, "STORE_BACKEND": "memory", "RESET_TOKEN_EXPIRY": "-1m"},
			want: "RESET_TOKEN_EXPIRY must be positive",
		},
		{
			name: "zero cleanup interval",
			env:  map[string]string{"JWT_SECRET_KEY": testSecret, "STORE_BACKEND": "memory", "RATE_LIMIT_CLEANUP_INTERVAL": "0s"},
			want: "RATE_LIMIT_CLEANUP_INTERVAL must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "")
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
