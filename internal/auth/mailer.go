// File: internal/auth/mailer.go
package auth

import (
	"fmt"

	"kanoonwise_backend/internal/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers one-time codes out-of-band.
type Mailer interface {
	SendOTP(to, code string) error
}

// NewMailer returns an SMTP mailer when SMTP_HOST is configured, otherwise a
// logging mailer that only prints the code. Local setups run without SMTP.
func NewMailer(cfg *config.Config, logger *zap.Logger) Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not configured; one-time codes will be logged, not emailed.")
		return &logMailer{logger: logger.Named("LogMailer")}
	}
	return &smtpMailer{cfg: cfg, logger: logger.Named("SMTPMailer")}
}

type smtpMailer struct {
	cfg    *config.Config
	logger *zap.Logger
}

func (m *smtpMailer) SendOTP(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTPFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your Kanoonwise login code")
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Your one-time login code is <b>%s</b>.</p><p>It expires in %d minutes.</p>",
		code, int(m.cfg.OTPExpiry.Minutes()),
	))

	dialer := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPass)
	if err := dialer.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send OTP email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}

type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) SendOTP(to, code string) error {
	m.logger.Info("OTP issued", zap.String("to", to), zap.String("code", code))
	return nil
}
