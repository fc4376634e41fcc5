package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/trade-journal-api/internal/domain"
)

const otpColumns = `id, user_id, code, type, expires_at, used, used_at, created_at`

// OTPRepo stores one-time codes in the otp_codes table.
type OTPRepo struct {
	db *sqlx.DB
}

func NewOTPRepo(db *sqlx.DB) *OTPRepo {
	return &OTPRepo{db: db}
}

func (r *OTPRepo) Create(ctx context.Context, c *domain.OTPCode) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO otp_codes (`+otpColumns+`)
		VALUES (:id, :user_id, :code, :type, :expires_at, :used, :used_at, :created_at)`, c)
	if err != nil {
		return fmt.Errorf("insert otp code: %w", err)
	}
	return nil
}

func (r *OTPRepo) DeleteUnused(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM otp_codes WHERE user_id = ? AND used = FALSE`), userID)
	if err != nil {
		return fmt.Errorf("delete unused otp codes: %w", err)
	}
	return nil
}

// FindUnused returns the newest unused code of userID equal to code.
func (r *OTPRepo) FindUnused(ctx context.Context, userID, code string) (*domain.OTPCode, error) {
	var c domain.OTPCode
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT `+otpColumns+` FROM otp_codes
		WHERE user_id = ? AND code = ? AND used = FALSE
		ORDER BY created_at DESC LIMIT 1`), userID, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("otp code not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select otp code: %w", err)
	}
	return &c, nil
}

// MarkUsed flips used from false to true. Zero affected rows means the code
// is gone or another request consumed it first.
func (r *OTPRepo) MarkUsed(ctx context.Context, userID, otpID string, usedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE otp_codes SET used = TRUE, used_at = ?
		WHERE id = ? AND user_id = ? AND used = FALSE`), usedAt.UTC(), otpID, userID)
	if err != nil {
		return fmt.Errorf("mark otp code used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark otp code used: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("otp code %s not redeemable: %w", otpID, domain.ErrNotFound)
	}
	return nil
}
