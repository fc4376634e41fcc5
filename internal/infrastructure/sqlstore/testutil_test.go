package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal-api/internal/domain"
)

// newTestDB returns a migrated in-memory SQLite database.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(ctx, db))
	return db
}

func seedUser(t *testing.T, repo *UserRepo, id, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	u := &domain.User{
		UserID:       id,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Name:         "Test " + id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}
