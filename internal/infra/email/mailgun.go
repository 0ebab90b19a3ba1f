package email

import (
	"context"
	"errors"
	"fmt"

	"translation_marketplace/internal/domain/notify"

	"github.com/mailgun/mailgun-go/v4"
)

// MailgunConfig holds the configuration for Mailgun delivery.
type MailgunConfig struct {
	Domain string
	APIKey string
	From   string
}

func (c *MailgunConfig) validate() error {
	if c.Domain == "" || c.APIKey == "" || c.From == "" {
		return errors.New("invalid Mailgun configuration")
	}
	return nil
}

// MailgunSender implements notify.Sender via the Mailgun API.
type MailgunSender struct {
	config *MailgunConfig
	mg     *mailgun.MailgunImpl
}

func NewMailgunSender(c *MailgunConfig) *MailgunSender {
	return &MailgunSender{
		config: c,
		mg:     mailgun.NewMailgun(c.Domain, c.APIKey),
	}
}

func (s *MailgunSender) Send(ctx context.Context, msg notify.Message) error {
	message := s.mg.NewMessage(s.config.From, msg.Subject, msg.Body, msg.To)
	for _, att := range msg.Attachments {
		message.AddBufferAttachment(att.Filename, att.Data)
	}

	_, _, err := s.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun delivery to %s failed: %w", msg.To, err)
	}
	return nil
}
