package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string

	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CollegeEmailDomain string

	OTPTTL         time.Duration
	OTPMaxAttempts int

	ResetTokenTTL time.Duration

	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	InsightsRefreshEnabled  bool
	InsightsRefreshInterval time.Duration
	InsightsCacheTTL        time.Duration

	SuperAdminEmail    string
	SuperAdminPassword string
}

// Load reads the environment. DATABASE_URL and JWT_SECRET have no usable
// default; a process signing tokens with a baked-in secret is worse than one
// that refuses to start.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),

		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		JWTSecret:       getenv("JWT_SECRET", ""),
		JWTIssuer:       getenv("JWT_ISSUER", "placify-portal"),
		AccessTokenTTL:  getenvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getenvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		CollegeEmailDomain: getenv("COLLEGE_EMAIL_DOMAIN", "bvmengineering.ac.in"),

		OTPTTL:         getenvDuration("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts: getenvInt("OTP_MAX_ATTEMPTS", 5),

		ResetTokenTTL: getenvDuration("RESET_TOKEN_TTL", 30*time.Minute),

		SMTPAddr:     getenv("SMTP_ADDR", ""),
		SMTPFrom:     getenv("SMTP_FROM", "placements@bvmengineering.ac.in"),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),

		InsightsRefreshEnabled:  getenvBool("INSIGHTS_REFRESH_ENABLED", true),
		InsightsRefreshInterval: getenvDuration("INSIGHTS_REFRESH_INTERVAL", 15*time.Minute),
		InsightsCacheTTL:        getenvDuration("INSIGHTS_CACHE_TTL", time.Hour),

		SuperAdminEmail:    getenv("SUPER_ADMIN_EMAIL", "tpc@bvmengineering.ac.in"),
		SuperAdminPassword: getenv("SUPER_ADMIN_PASSWORD", "admin123"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
