// Package notification delivers one-time codes over email or SMS.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoTransport is returned when the channel has no configured transport.
var ErrNoTransport = errors.New("no transport configured")

// Mailer is satisfied by infrastructure/smtp.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is satisfied by infrastructure/sns.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

const emailSubject = "Your Trading Journal login code"

// Service renders code messages and hands them to the configured transports.
// Either transport may be nil.
type Service struct {
	mailer  Mailer
	sms     SMSSender
	codeTTL time.Duration
}

func NewService(mailer Mailer, sms SMSSender, codeTTL time.Duration) *Service {
	return &Service{mailer: mailer, sms: sms, codeTTL: codeTTL}
}

func (s *Service) CanSendEmail() bool { return s.mailer != nil }

func (s *Service) CanSendSMS() bool { return s.sms != nil }

func (s *Service) SendOTPEmail(ctx context.Context, email, code, name string) error {
	if s.mailer == nil {
		return fmt.Errorf("email: %w", ErrNoTransport)
	}
	return s.mailer.SendEmail(ctx, email, emailSubject, s.emailBody(code, name))
}

func (s *Service) SendOTPSMS(ctx context.Context, phone, code string) error {
	if s.sms == nil {
		return fmt.Errorf("sms: %w", ErrNoTransport)
	}
	msg := fmt.Sprintf("Your Trading Journal code is %s. It expires in %d minutes.", code, s.minutes())
	return s.sms.SendSMS(ctx, phone, msg)
}

func (s *Service) emailBody(code, name string) string {
	greeting := "Hi,"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s,", name)
	}
	return fmt.Sprintf("%s\n\nYour login code is: %s\n\nIt expires in %d minutes. If you did not try to sign in, you can ignore this email.\n",
		greeting, code, s.minutes())
}

func (s *Service) minutes() int {
	return int(s.codeTTL.Round(time.Minute) / time.Minute)
}
