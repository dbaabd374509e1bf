package http

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/divyesh007-delta/Placify-1/internal/crypto"
)

const (
	blacklistKeyPrefix = "jwt:blacklist:"
	resetKeyPrefix     = "reset:"
)

// blacklistToken marks an access token jti revoked until the token would
// have expired anyway.
func (s *Server) blacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err()
}

func (s *Server) isTokenBlacklisted(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	_, err := s.redis.Get(ctx, blacklistKeyPrefix+jti).Result()
	return err == nil
}

func (s *Server) storeResetToken(ctx context.Context, token, email string) error {
	return s.redis.Set(ctx, resetKeyPrefix+crypto.HashToken(token), email, s.cfg.ResetTokenTTL).Err()
}

var errResetTokenInvalid = errors.New("reset token invalid or expired")

// consumeResetToken returns the email the token was issued for and burns it.
func (s *Server) consumeResetToken(ctx context.Context, token string) (string, error) {
	key := resetKeyPrefix + crypto.HashToken(token)
	email, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errResetTokenInvalid
	}
	if err != nil {
		return "", err
	}
	_ = s.redis.Del(ctx, key).Err()
	return email, nil
}
