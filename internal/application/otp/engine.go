// Package otp issues and redeems six-digit login codes.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/trade-journal-api/internal/domain"
	"github.com/trade-journal-api/internal/pkg/id"
)

// DefaultTTL is how long an issued code stays redeemable.
const DefaultTTL = 5 * time.Minute

const (
	codeMin   = 100000
	codeRange = 900000 // codes are 100000..999999
)

// Client-facing redemption failures.
var (
	ErrInvalid = domain.NewError(domain.ErrUnauthorized, "Invalid OTP. Please check and try again.", nil)
	ErrExpired = domain.NewError(domain.ErrUnauthorized, "OTP has expired. Please request a new one.", nil)
)

// Store is the persistence the engine needs for codes.
type Store interface {
	DeleteUnused(ctx context.Context, userID string) error
	Create(ctx context.Context, c *domain.OTPCode) error
	FindUnused(ctx context.Context, userID, code string) (*domain.OTPCode, error)
	MarkUsed(ctx context.Context, userID, otpID string, usedAt time.Time) error
}

// UserStore loads the owner of a redeemed code.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type Engine struct {
	codes Store
	users UserStore
	ttl   time.Duration
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(codes Store, users UserStore, opts ...Option) *Engine {
	e := &Engine{codes: codes, users: users, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Issue replaces any unused codes of userID with a fresh one and returns it.
func (e *Engine) Issue(ctx context.Context, userID, channel string) (string, time.Time, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", time.Time{}, err
	}
	now := e.now().UTC()
	rec := &domain.OTPCode{
		OTPID:     id.New(),
		UserID:    userID,
		Code:      code,
		Type:      channel,
		ExpiresAt: now.Add(e.ttl),
		CreatedAt: now,
	}

	if err := e.codes.DeleteUnused(ctx, userID); err != nil {
		return "", time.Time{}, fmt.Errorf("delete unused codes: %w", err)
	}
	if err := e.codes.Create(ctx, rec); err != nil {
		return "", time.Time{}, fmt.Errorf("store otp code: %w", err)
	}
	return code, rec.ExpiresAt, nil
}

// Validate redeems code for userID and returns the owning user. An expired
// code is reported as ErrExpired and left in place; anything else that
// cannot be redeemed is ErrInvalid.
func (e *Engine) Validate(ctx context.Context, userID, code string) (*domain.User, error) {
	rec, err := e.codes.FindUnused(ctx, userID, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("find otp code: %w", err)
	}

	now := e.now()
	if rec.Expired(now) {
		return nil, ErrExpired
	}

	if err := e.codes.MarkUsed(ctx, rec.UserID, rec.OTPID, now.UTC()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalid
		}
		return nil, fmt.Errorf("mark otp code used: %w", err)
	}

	u, err := e.users.Get(ctx, rec.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "User not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// GenerateCode draws a six-digit code uniformly from 100000..999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
