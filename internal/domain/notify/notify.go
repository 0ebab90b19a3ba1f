package notify

import "context"

// Attachment is a binary artifact included with an email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender defines an interface for delivering notification emails.
// Implementations must tolerate retries: delivery is at-least-once and
// duplicate emails are acceptable.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Alerter pushes short operational notices to the administrators'
// out-of-band channel (e.g. a Telegram chat). Alert failures are logged
// by callers, never propagated into lifecycle outcomes.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}
