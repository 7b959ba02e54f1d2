// File: internal/auth/store.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	otpKeyPrefix  = "otp:"
	csrfKeyPrefix = "csrf:"
)

// Store holds the short-lived auth state: pending OTP codes keyed by email and
// CSRF tokens keyed by session ID. Entries expire via TTL, never by sweep.
type Store interface {
	SaveOTP(ctx context.Context, email string, otp PendingOTP, ttl time.Duration) error
	// GetOTP returns nil with no error when no code is pending for the email.
	GetOTP(ctx context.Context, email string) (*PendingOTP, error)
	// ConsumeOTP atomically removes and returns the pending code. Of two
	// concurrent consumers only one gets the code back; the other sees nil.
	ConsumeOTP(ctx context.Context, email string) (*PendingOTP, error)

	SaveCSRFToken(ctx context.Context, sessionID, token string, ttl time.Duration) error
	// GetCSRFToken returns an empty string when no token exists for the session.
	GetCSRFToken(ctx context.Context, sessionID string) (string, error)
	DeleteCSRFToken(ctx context.Context, sessionID string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates the redis-backed auth store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) SaveOTP(ctx context.Context, email string, otp PendingOTP, ttl time.Duration) error {
	payload, err := json.Marshal(otp)
	if err != nil {
		return fmt.Errorf("failed to marshal pending OTP: %w", err)
	}
	if err := s.client.Set(ctx, otpKeyPrefix+email, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return nil
}

func (s *redisStore) GetOTP(ctx context.Context, email string) (*PendingOTP, error) {
	payload, err := s.client.Get(ctx, otpKeyPrefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read OTP: %w", err)
	}
	var otp PendingOTP
	if err := json.Unmarshal(payload, &otp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending OTP: %w", err)
	}
	return &otp, nil
}

func (s *redisStore) ConsumeOTP(ctx context.Context, email string) (*PendingOTP, error) {
	payload, err := s.client.GetDel(ctx, otpKeyPrefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to consume OTP: %w", err)
	}
	var otp PendingOTP
	if err := json.Unmarshal(payload, &otp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending OTP: %w", err)
	}
	return &otp, nil
}

func (s *redisStore) SaveCSRFToken(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, csrfKeyPrefix+sessionID, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store CSRF token: %w", err)
	}
	return nil
}

func (s *redisStore) GetCSRFToken(ctx context.Context, sessionID string) (string, error) {
	token, err := s.client.Get(ctx, csrfKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read CSRF token: %w", err)
	}
	return token, nil
}

func (s *redisStore) DeleteCSRFToken(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, csrfKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete CSRF token: %w", err)
	}
	return nil
}
