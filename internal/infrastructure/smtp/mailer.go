package smtp

import (
	"context"
	"errors"
	"fmt"

	"github.com/trade-journal-api/internal/config"
	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned by NewMailer when SMTP_HOST is empty.
var ErrNotConfigured = errors.New("smtp host not configured")

// Mailer sends plain-text emails.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type mailer struct {
	host     string
	port     int
	from     string
	fromName string
	username string
	password string
	tls      bool
}

func NewMailer(cfg *config.Config) (Mailer, error) {
	if cfg.SMTPHost == "" {
		return nil, ErrNotConfigured
	}
	if cfg.SMTPFrom == "" {
		return nil, errors.New("SMTP_FROM is required")
	}
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		tls:      cfg.SMTPTLS,
	}, nil
}

func (m *mailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg, err := m.message(to, subject, body)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(m.host, m.options()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (m *mailer) message(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if m.fromName != "" {
		if err := msg.FromFormat(m.fromName, m.from); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (m *mailer) options() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.port)}
	if m.tls {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS elsewhere.
		if m.port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if m.username != "" && m.password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	return opts
}
