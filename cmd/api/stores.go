package main

import (
	"context"
	"fmt"

	"github.com/trade-journal-api/internal/config"
	"github.com/trade-journal-api/internal/domain"
	"github.com/trade-journal-api/internal/infrastructure/dynamo"
	"github.com/trade-journal-api/internal/infrastructure/sqlstore"
	transporthttp "github.com/trade-journal-api/internal/transport/http"
)

type userStore interface {
	transporthttp.UserRepository
	Create(ctx context.Context, u *domain.User) error
}

type stores struct {
	users userStore
	otps  transporthttp.OTPRepository
	close func() error
}

// openStores connects the backend named by STORE_DRIVER and prepares its
// schema. SQL stores are migrated, DynamoDB tables are created if missing.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return &stores{
			users: dynamo.NewUserRepo(client, cfg.DynamoTables.Users),
			otps:  dynamo.NewOTPRepo(client, cfg.DynamoTables.OTPCodes),
			close: func() error { return nil },
		}, nil
	case config.StorePostgres, config.StoreSQLite:
		db, err := sqlstore.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &stores{
			users: sqlstore.NewUserRepo(db),
			otps:  sqlstore.NewOTPRepo(db),
			close: db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
}
