package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/smtp"

	"translation_marketplace/internal/domain/notify"
)

// SMTPConfig holds the configuration for plain SMTP delivery.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c *SMTPConfig) validate() error {
	if c.Host == "" || c.Port == "" || c.From == "" {
		return errors.New("invalid SMTP configuration")
	}
	return nil
}

// SMTPSender implements notify.Sender over net/smtp.
type SMTPSender struct {
	Config *SMTPConfig
}

func (s *SMTPSender) Send(ctx context.Context, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.Config.Username != "" {
		auth = smtp.PlainAuth("", s.Config.Username, s.Config.Password, s.Config.Host)
	}

	body := buildMIME(s.Config.From, msg)

	// net/smtp has no context support; run the dial+send in a goroutine so
	// the caller's deadline still bounds how long a dispatch can block.
	done := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%s", s.Config.Host, s.Config.Port)
		done <- smtp.SendMail(addr, auth, s.Config.From, []string{msg.To}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp delivery to %s failed: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp delivery to %s: %w", msg.To, ctx.Err())
	}
}

const mimeBoundary = "np-marketplace-boundary"

func buildMIME(from string, msg notify.Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.Body)
		return b.Bytes()
	}

	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mimeBoundary)

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	for _, att := range msg.Attachments {
		fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n\r\n", att.Filename)

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		for len(encoded) > 0 {
			n := 76
			if n > len(encoded) {
				n = len(encoded)
			}
			b.WriteString(encoded[:n])
			b.WriteString("\r\n")
			encoded = encoded[n:]
		}
	}
	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return b.Bytes()
}
