package mailer

import (
	"context"
	"fmt"

	"github.com/diagnosis/eventdesk/pkg/config"
	"github.com/diagnosis/eventdesk/pkg/logger"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the delivery backend: the dev mailer in dev mode, MailerSend
// when an API key is configured, SMTP otherwise.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		logger.Info("Using dev mailer")
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		logger.Info("Using MailerSend mailer")
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		logger.Info("Using SMTP mailer", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}

func displayName(first, last string) string {
	switch {
	case first == "" && last == "":
		return ""
	case last == "":
		return first
	case first == "":
		return last
	default:
		return fmt.Sprintf("%s %s", first, last)
	}
}
