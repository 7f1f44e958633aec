package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	DynamoDB  DynamoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	OTP       OTPConfig
	Reset     ResetConfig
	SMTP      SMTPConfig
	Twilio    TwilioConfig
	S3        S3Config
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

type DatabaseConfig struct {
	Backend        string `env:"STORE_BACKEND" envDefault:"postgres"`
	URL            string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"DATABASE_MIGRATE" envDefault:"true"`
	MaxOpenConns   int    `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
}

// DynamoDBConfig points at the delivery log table. An empty table name
// disables the log.
type DynamoDBConfig struct {
	Endpoint         string `env:"DYNAMODB_ENDPOINT"`
	Region           string `env:"DYNAMODB_REGION" envDefault:"us-east-1"`
	DeliveryLogTable string `env:"DYNAMODB_DELIVERY_LOG_TABLE"`
}

// RedisConfig configures the OTP attempt limiter. An empty endpoint
// disables limiting.
type RedisConfig struct {
	Endpoint string `env:"REDIS_ENDPOINT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type JWTConfig struct {
	SecretKey          string        `env:"JWT_SECRET_KEY"`
	AccessExpiry       time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"24h"`
	VerificationExpiry time.Duration `env:"JWT_VERIFICATION_EXPIRY" envDefault:"30m"`
}

type OTPConfig struct {
	Length         int           `env:"OTP_LENGTH" envDefault:"6"`
	Expiry         time.Duration `env:"OTP_EXPIRY" envDefault:"10m"`
	MaxAttempts    int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	ResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"30s"`
}

type ResetConfig struct {
	Expiry      time.Duration `env:"RESET_TOKEN_EXPIRY" envDefault:"15m"`
	FrontendURL string        `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM" envDefault:"Company Registration <noreply@company-registration.com>"`
}

type TwilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	From       string `env:"TWILIO_FROM"`
}

type S3Config struct {
	Bucket        string `env:"S3_BUCKET"`
	Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint      string `env:"S3_ENDPOINT"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
}

type RateLimitConfig struct {
	RequestsPerMinute int           `env:"RATE_LIMIT_AUTH_PER_MINUTE" envDefault:"30"`
	Burst             int           `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`
	CleanupInterval   time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:5174,http://localhost:5175"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	if len(c.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 bytes (256 bits)")
	}

	switch c.Database.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Database.Backend)
	}

	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10")
	}

	if c.OTP.MaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}

	if c.OTP.Expiry <= 0 {
		return fmt.Errorf("OTP_EXPIRY must be positive")
	}

	// A zero cooldown would set a resend key that never expires.
	if c.OTP.ResendCooldown <= 0 {
		return fmt.Errorf("OTP_RESEND_COOLDOWN must be positive")
	}

	if c.Reset.Expiry <= 0 {
		return fmt.Errorf("RESET_TOKEN_EXPIRY must be positive")
	}

	if c.RateLimit.CleanupInterval <= 0 {
		return fmt.Errorf("RATE_LIMIT_CLEANUP_INTERVAL must be positive")
	}

	return nil
}
