package email

import (
	"errors"

	"translation_marketplace/internal/domain/notify"
	"translation_marketplace/internal/infra/config"
)

// NewSender returns the notification sender matching the configured
// provider.
func NewSender(cfg *config.AppConfig) (notify.Sender, error) {
	switch cfg.EmailProvider {
	case "smtp":
		c := &SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return &SMTPSender{Config: c}, nil
	case "mailgun":
		c := &MailgunConfig{
			Domain: cfg.MailgunDomain,
			APIKey: cfg.MailgunAPIKey,
			From:   cfg.EmailFrom,
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return NewMailgunSender(c), nil
	default:
		return nil, errors.New("unknown email provider: " + cfg.EmailProvider)
	}
}
