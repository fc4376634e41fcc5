package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trade-journal-api/internal/domain"
	"github.com/trade-journal-api/internal/pkg/password"
)

type LoginRequest struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	OTPMethod string `json:"otpMethod" validate:"omitempty,oneof=email phone"`
}

type ResendOTPRequest struct {
	UserID    string `json:"userId" validate:"required"`
	OTPMethod string `json:"otpMethod" validate:"omitempty,oneof=email phone"`
}

type VerifyOTPRequest struct {
	UserID string `json:"userId" validate:"required"`
	OTP    string `json:"otp" validate:"required"`
}

// Dispatch describes where a freshly issued code was sent. DemoOTP is set
// only when no transport could deliver it and the demo fallback is on.
type Dispatch struct {
	UserID      string
	OTPMethod   string
	Destination string
	DemoOTP     string
}

func (d *Dispatch) DemoMode() bool { return d.DemoOTP != "" }

type VerifyResult struct {
	Token string
	User  *domain.User
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Dispatch, error)
	ResendOTP(ctx context.Context, req ResendOTPRequest) (*Dispatch, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyResult, error)
}

// UserStore is the minimal user lookup the service needs.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OTPEngine issues and redeems codes.
type OTPEngine interface {
	Issue(ctx context.Context, userID, channel string) (string, time.Time, error)
	Validate(ctx context.Context, userID, code string) (*domain.User, error)
}

// Notifier delivers codes.
type Notifier interface {
	CanSendEmail() bool
	CanSendSMS() bool
	SendOTPEmail(ctx context.Context, email, code, name string) error
	SendOTPSMS(ctx context.Context, phone, code string) error
}

// TokenSigner mints session tokens.
type TokenSigner interface {
	Sign(userID, email, name string) (string, error)
}

// ServiceDeps bundles the collaborators of NewService.
type ServiceDeps struct {
	UserRepo     UserStore
	OTPEngine    OTPEngine
	Notifier     Notifier
	JWTProvider  TokenSigner
	DemoFallback bool
}

var errInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "Invalid email or password", nil)

// Messages per flow; login and resend differ only in wording.
type flowMessages struct {
	failed   string
	delivery string
}

var (
	loginMessages  = flowMessages{failed: "Login failed", delivery: "Failed to send OTP. Please try again."}
	resendMessages = flowMessages{failed: "Failed to resend OTP", delivery: "Failed to resend OTP. Please try again."}
)

type service struct {
	userRepo     UserStore
	otp          OTPEngine
	notifier     Notifier
	jwtProvider  TokenSigner
	demoFallback bool
}

func NewService(d ServiceDeps) Service {
	return &service{
		userRepo:     d.UserRepo,
		otp:          d.OTPEngine,
		notifier:     d.Notifier,
		jwtProvider:  d.JWTProvider,
		demoFallback: d.DemoFallback,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Dispatch, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrInternal, loginMessages.failed, err)
		}
		password.Equalize(req.Password)
		return nil, errInvalidCredentials
	}
	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, errInvalidCredentials
	}
	return s.dispatch(ctx, u, req.OTPMethod, loginMessages)
}

func (s *service) ResendOTP(ctx context.Context, req ResendOTPRequest) (*Dispatch, error) {
	u, err := s.userRepo.Get(ctx, req.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "User not found", err)
	}
	if err != nil {
		return nil, domain.NewError(domain.ErrInternal, resendMessages.failed, err)
	}
	return s.dispatch(ctx, u, req.OTPMethod, resendMessages)
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyResult, error) {
	u, err := s.otp.Validate(ctx, req.UserID, req.OTP)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.NewError(domain.ErrInternal, "OTP verification failed", err)
	}
	token, err := s.jwtProvider.Sign(u.UserID, u.Email, u.Name)
	if err != nil {
		return nil, domain.NewError(domain.ErrInternal, "OTP verification failed", err)
	}
	return &VerifyResult{Token: token, User: u}, nil
}

// dispatch issues a code and delivers it. Phone is used only when asked for
// and the user has a number; the result reports the channel actually used.
func (s *service) dispatch(ctx context.Context, u *domain.User, method string, msgs flowMessages) (*Dispatch, error) {
	d := &Dispatch{UserID: u.UserID, OTPMethod: domain.OTPChannelEmail, Destination: u.Email}
	if method == domain.OTPChannelPhone && u.HasPhone() {
		d.OTPMethod = domain.OTPChannelPhone
		d.Destination = *u.Phone
	}

	code, _, err := s.otp.Issue(ctx, u.UserID, d.OTPMethod)
	if err != nil {
		return nil, domain.NewError(domain.ErrInternal, msgs.failed, err)
	}

	if !s.canSend(d.OTPMethod) {
		if !s.demoFallback {
			return nil, domain.NewError(domain.ErrDelivery, msgs.delivery, fmt.Errorf("no %s transport configured", d.OTPMethod))
		}
		slog.Warn("otp transport not configured, returning code in response",
			"user_id", u.UserID, "channel", d.OTPMethod, "code", code)
		d.DemoOTP = code
		return d, nil
	}

	if err := s.send(ctx, u, d.OTPMethod, code); err != nil {
		return nil, domain.NewError(domain.ErrDelivery, msgs.delivery, err)
	}
	return d, nil
}

func (s *service) canSend(channel string) bool {
	if s.notifier == nil {
		return false
	}
	if channel == domain.OTPChannelPhone {
		return s.notifier.CanSendSMS()
	}
	return s.notifier.CanSendEmail()
}

func (s *service) send(ctx context.Context, u *domain.User, channel, code string) error {
	if channel == domain.OTPChannelPhone {
		return s.notifier.SendOTPSMS(ctx, *u.Phone, code)
	}
	return s.notifier.SendOTPEmail(ctx, u.Email, code, u.Name)
}
