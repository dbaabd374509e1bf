package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound     = errors.New("otp not found")
	ErrTooManyTries = errors.New("too many attempts")
	ErrMismatch     = errors.New("otp mismatch")
)

// Service manages email verification codes in redis. Codes live for the
// configured TTL; the verified flag survives until registration consumes it.
type Service struct {
	redis       *redis.Client
	ttl         time.Duration
	maxAttempts int
}

func NewService(client *redis.Client, ttl time.Duration, maxAttempts int) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{redis: client, ttl: ttl, maxAttempts: maxAttempts}
}

type record struct {
	Code      string `json:"code"`
	Attempts  int    `json:"attempts"`
	Verified  bool   `json:"verified"`
	CreatedAt int64  `json:"created_at"`
}

func GenerateCode() (string, error) {
	max := big.NewInt(1000000)
	value, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", value.Int64()), nil
}

func (s *Service) Issue(ctx context.Context, email string) (string, error) {
	if s.redis == nil {
		return "", errors.New("redis_not_configured")
	}
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	rec := record{Code: code, CreatedAt: time.Now().Unix()}
	if err := s.store(ctx, email, rec, s.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes one attempt. On success the record is marked verified and
// kept around so registration can check it.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	rec, err := s.load(ctx, email)
	if err != nil {
		return err
	}
	if rec.Attempts >= s.maxAttempts {
		return ErrTooManyTries
	}
	if rec.Code != code {
		rec.Attempts++
		_ = s.store(ctx, email, rec, s.ttl)
		return ErrMismatch
	}
	rec.Verified = true
	return s.store(ctx, email, rec, s.ttl)
}

func (s *Service) IsVerified(ctx context.Context, email string) bool {
	rec, err := s.load(ctx, email)
	if err != nil {
		return false
	}
	return rec.Verified
}

func (s *Service) Clear(ctx context.Context, email string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, key(email)).Err()
}

func (s *Service) store(ctx context.Context, email string, rec record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key(email), data, ttl).Err()
}

func (s *Service) load(ctx context.Context, email string) (record, error) {
	if s.redis == nil {
		return record{}, errors.New("redis_not_configured")
	}
	value, err := s.redis.Get(ctx, key(email)).Result()
	if err == redis.Nil {
		return record{}, ErrNotFound
	}
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return record{}, err
	}
	return rec, nil
}

func key(email string) string {
	return fmt.Sprintf("otp:%s", email)
}
