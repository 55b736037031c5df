package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"site-guardian/config"
	"site-guardian/model"

	"github.com/rs/zerolog/log"
)

// EmailNotifier delivers notifications (typically the daily digest) via
// SMTP. When disabled it logs the notification instead, which keeps
// development setups working without a mail server.
type EmailNotifier struct {
	cfg config.EmailConfig
}

// NewEmailNotifier creates an SMTP-backed notifier.
func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

// Notify implements alert.Notifier.
func (e *EmailNotifier) Notify(_ context.Context, n model.Notification) error {
	if !e.cfg.Enabled || e.cfg.DigestTo == "" {
		log.Info().
			Str("notification_id", n.ID).
			Str("message", n.Message).
			Msg("Email notifier disabled - notification logged only")
		return nil
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		e.cfg.FromName, e.cfg.FromEmail, e.cfg.DigestTo, n.Title, n.Message)

	var auth smtp.Auth
	if e.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", e.cfg.SMTPUsername, e.cfg.SMTPPassword, e.cfg.SMTPHost)
	}

	addr := e.cfg.SMTPHost + ":" + e.cfg.SMTPPort
	if err := smtp.SendMail(addr, auth, e.cfg.FromEmail, []string{e.cfg.DigestTo}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}

	log.Info().Str("notification_id", n.ID).Str("to", e.cfg.DigestTo).Msg("Notification email sent")
	return nil
}
