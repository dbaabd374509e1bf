package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/divyesh007-delta/Placify-1/internal/analytics"
	"github.com/divyesh007-delta/Placify-1/internal/config"
	"github.com/divyesh007-delta/Placify-1/internal/db"
	internalhttp "github.com/divyesh007-delta/Placify-1/internal/http"
	"github.com/divyesh007-delta/Placify-1/internal/jobs"
	"github.com/divyesh007-delta/Placify-1/internal/mail"
	"github.com/divyesh007-delta/Placify-1/internal/otp"
	"github.com/divyesh007-delta/Placify-1/internal/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connection failed")
	}
	defer pool.Close()
	store := repository.NewStore(pool)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	cancel()
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close error")
		}
	}()

	var sender mail.Sender = mail.LogSender{}
	if cfg.SMTPAddr != "" {
		sender = &mail.SMTPSender{
			Addr:     cfg.SMTPAddr,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}
	}

	otpService := otp.NewService(redisClient, cfg.OTPTTL, cfg.OTPMaxAttempts)
	server := internalhttp.NewServer(cfg, store, redisClient, otpService, sender)
	if err := server.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("super admin bootstrap failed")
	}

	jobs.StartInsightsRefreshJob(ctx, cfg, store, analytics.NewCache(redisClient, cfg.InsightsCacheTTL))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("placement portal listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown error")
	}
}
