package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trade-journal-api/internal/config"
	"github.com/trade-journal-api/internal/domain"
	"github.com/trade-journal-api/internal/infrastructure/sqlstore"
	"github.com/trade-journal-api/internal/pkg/id"
	"github.com/trade-journal-api/internal/pkg/password"
	"github.com/trade-journal-api/internal/pkg/validate"
	"github.com/urfave/cli/v3"
)

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Bool("down") {
		if cfg.StoreDriver == config.StoreDynamo {
			return errors.New("--down is only supported for SQL stores")
		}
		db, err := sqlstore.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := sqlstore.Rollback(ctx, db); err != nil {
			return err
		}
		slog.Info("rolled back latest migration", "store", cfg.StoreDriver)
		return nil
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()
	slog.Info("store ready", "store", cfg.StoreDriver)
	return nil
}

func runCreateUser(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req := domain.CreateUserRequest{
		Email:    strings.ToLower(strings.TrimSpace(cmd.String("email"))),
		Name:     strings.TrimSpace(cmd.String("name")),
		Password: cmd.String("password"),
	}
	if p := strings.TrimSpace(cmd.String("phone")); p != "" {
		req.Phone = &p
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	if _, err := st.users.GetByEmail(ctx, req.Email); err == nil {
		return fmt.Errorf("email %s already registered: %w", req.Email, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        req.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.users.Create(ctx, u); err != nil {
		return err
	}
	slog.Info("user created", "user_id", u.UserID, "email", u.Email)
	return nil
}
