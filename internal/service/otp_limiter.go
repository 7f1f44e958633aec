package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AttemptLimiter counts failed verification attempts and enforces resend
// cooldowns. Implementations fail open: callers treat an error as "not
// limited" after logging it.
type AttemptLimiter interface {
	Failures(ctx context.Context, key string) (int, error)
	RegisterFailure(ctx context.Context, key string, ttl time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
	// Cooldown reports whether the action guarded by key may run now and,
	// if so, blocks it for ttl.
	Cooldown(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type RedisAttemptLimiter struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisAttemptLimiter(client *redis.Client, logger *logrus.Logger) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{
		client: client,
		logger: logger,
	}
}

func (l *RedisAttemptLimiter) Failures(ctx context.Context, key string) (int, error) {
	n, err := l.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read attempt counter: %w", err)
	}
	return n, nil
}

func (l *RedisAttemptLimiter) RegisterFailure(ctx context.Context, key string, ttl time.Duration) (int, error) {
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment attempt counter: %w", err)
	}

	if n == 1 {
		if err := l.client.Expire(ctx, key, ttl).Err(); err != nil {
			l.logger.WithError(err).WithField("key", key).Warn("Failed to set attempt counter expiry")
		}
	}

	return int(n), nil
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to reset attempt counter: %w", err)
	}
	return nil
}

func (l *RedisAttemptLimiter) Cooldown(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return true, fmt.Errorf("failed to set cooldown: %w", err)
	}
	return ok, nil
}

// NoopAttemptLimiter never limits. It is used when Redis is not configured.
type NoopAttemptLimiter struct{}

func (NoopAttemptLimiter) Failures(context.Context, string) (int, error) { return 0, nil }

func (NoopAttemptLimiter) RegisterFailure(context.Context, string, time.Duration) (int, error) {
	return 0, nil
}

func (NoopAttemptLimiter) Reset(context.Context, string) error { return nil }

func (NoopAttemptLimiter) Cooldown(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func attemptsKey(userID string) string {
	return fmt.Sprintf("otp:attempts:%s", userID)
}

func resendKey(userID string) string {
	return fmt.Sprintf("otp:resend:%s", userID)
}
