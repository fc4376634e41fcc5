package http

import (
	"context"
	"time"

	"github.com/trade-journal-api/internal/domain"
	jwtinfra "github.com/trade-journal-api/internal/infrastructure/jwt"
	"github.com/trade-journal-api/internal/infrastructure/smtp"
	"github.com/trade-journal-api/internal/infrastructure/sns"
	appmiddleware "github.com/trade-journal-api/internal/transport/http/middleware"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OTPRepository is the minimal interface the router requires from an OTP store.
// MarkUsed must be a conditional write that fails with domain.ErrNotFound
// when the code is already used.
type OTPRepository interface {
	DeleteUnused(ctx context.Context, userID string) error
	Create(ctx context.Context, c *domain.OTPCode) error
	FindUnused(ctx context.Context, userID, code string) (*domain.OTPCode, error)
	MarkUsed(ctx context.Context, userID, otpID string, usedAt time.Time) error
}

// Deps holds all infrastructure dependencies for the router.
// Mailer, SMSSender and Limiter may be nil. The caller owns the Limiter's
// lifecycle; a nil Limiter leaves the auth routes unthrottled.
type Deps struct {
	UserRepo    UserRepository
	OTPRepo     OTPRepository
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
	Limiter     appmiddleware.Limiter
	Clock       func() time.Time
}
