package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/trade-journal-api/internal/config"
	jwtinfra "github.com/trade-journal-api/internal/infrastructure/jwt"
	redisinfra "github.com/trade-journal-api/internal/infrastructure/redis"
	"github.com/trade-journal-api/internal/infrastructure/smtp"
	"github.com/trade-journal-api/internal/infrastructure/sns"
	"github.com/trade-journal-api/internal/pkg/logger"
	transporthttp "github.com/trade-journal-api/internal/transport/http"
	appmiddleware "github.com/trade-journal-api/internal/transport/http/middleware"
	"github.com/urfave/cli/v3"
)

// loadConfig reads and validates configuration and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, _ *cli.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	secret := cfg.JWTSecret
	if secret == "" {
		if secret, err = jwtinfra.RandomSecret(); err != nil {
			return err
		}
		slog.Warn("JWT_SECRET not set, using a random per-process secret; sessions end on restart")
	}
	jwtProvider, err := jwtinfra.NewProvider(secret, cfg.JWTExpiry)
	if err != nil {
		return err
	}

	var mailer smtp.Mailer
	if m, err := smtp.NewMailer(cfg); err == nil {
		mailer = m
	} else {
		slog.Warn("email delivery not available", "err", err)
	}

	var smsSender sns.SMSSender
	if cfg.SNSEnabled {
		if s, err := sns.NewSender(ctx, cfg); err == nil {
			smsSender = s
		} else {
			slog.Warn("SNS sender not available", "err", err)
		}
	}

	var limiter appmiddleware.Limiter
	if cfg.RedisURL != "" {
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		// Same budget as the in-process bucket, counted per minute.
		limiter = appmiddleware.NewRedisRateLimiter(client, int(cfg.RateLimitRPS*60)+cfg.RateLimitBurst, time.Minute)
	} else {
		rl := appmiddleware.NewRateLimiter(appmiddleware.PerSecond(cfg.RateLimitRPS), cfg.RateLimitBurst)
		defer rl.Stop()
		limiter = rl
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		UserRepo:    st.users,
		OTPRepo:     st.otps,
		Mailer:      mailer,
		SMSSender:   smsSender,
		JWTProvider: jwtProvider,
		Limiter:     limiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.AppEnv, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
