package mailer

import (
	"fmt"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/storelane-dev/storelane/internal/config"
	"github.com/storelane-dev/storelane/internal/models"
)

// Sender delivers one-time passcodes to users
type Sender interface {
	SendOTP(to, code, purpose string) error
}

// New returns a Sender for the configured mail driver.
// Driver "smtp" sends real email; anything else logs the message, which is
// what local development and CI use.
func New(cfg config.MailConfig, log zerolog.Logger) Sender {
	if cfg.Driver == "smtp" {
		return &smtpSender{cfg: cfg}
	}
	return &logSender{log: log}
}

// smtpSender delivers mail through an SMTP relay via gomail
type smtpSender struct {
	cfg config.MailConfig
}

func (s *smtpSender) SendOTP(to, code, purpose string) error {
	subject, body := composeOTP(code, purpose)

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// logSender writes the message to the log instead of sending it
type logSender struct {
	log zerolog.Logger
}

func (s *logSender) SendOTP(to, code, purpose string) error {
	subject, body := composeOTP(code, purpose)
	s.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("OTP email (log driver)")
	return nil
}

func composeOTP(code, purpose string) (subject, body string) {
	switch purpose {
	case models.PurposeResetPassword:
		subject = "Your Storelane password reset code"
		body = fmt.Sprintf(
			"Use this code to reset your Storelane password: %s\n\n"+
				"The code expires shortly. If you did not request a reset, ignore this email.",
			code)
	default:
		subject = "Your Storelane verification code"
		body = fmt.Sprintf(
			"Use this code to finish creating your Storelane account: %s\n\n"+
				"The code expires shortly. If you did not sign up, ignore this email.",
			code)
	}
	return subject, body
}
