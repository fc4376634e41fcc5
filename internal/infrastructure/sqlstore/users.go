package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/trade-journal-api/internal/domain"
)

const userColumns = `id, email, password_hash, name, phone, created_at, updated_at`

// UserRepo stores users in the users table.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(u.Email)
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :password_hash, :name, :phone, :created_at, :updated_at)`, u)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s already registered: %w", u.Email, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
}

// GetByEmail lower-cases the input before the lookup.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
