package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"translation_marketplace/internal/domain/invoice"
	"translation_marketplace/internal/domain/notify"
	"translation_marketplace/internal/domain/request"
	"translation_marketplace/internal/domain/reminder"
	"translation_marketplace/internal/infra/calendar"

	"github.com/sirupsen/logrus"
)

// EventKind identifies a lifecycle event fanned out to interested parties.
type EventKind string

const (
	EventQuoteApproved      EventKind = "QUOTE_APPROVED"
	EventQuoteRejected      EventKind = "QUOTE_REJECTED"
	EventPaymentReceived    EventKind = "PAYMENT_RECEIVED"
	EventTranslatorAssigned EventKind = "TRANSLATOR_ASSIGNED"
	EventReminder           EventKind = "REMINDER"
	EventCompleted          EventKind = "COMPLETED"
	EventCancelled          EventKind = "CANCELLED"
)

// Event is one lifecycle occurrence to dispatch.
type Event struct {
	Kind    EventKind
	Request *request.Request

	// Set for EventReminder only.
	ReminderKind reminder.Kind
	OffsetHours  int
}

// NotificationService is the stateless fan-out: it maps a lifecycle event
// to the set of (recipient, message) pairs and delegates delivery to the
// email sender, isolating per-recipient failures.
type NotificationService struct {
	sender          notify.Sender
	alerter         notify.Alerter // optional; nil disables operational alerts
	invoices        invoice.Generator
	adminEmails     []string
	logger          *logrus.Logger
	dispatchTimeout time.Duration
	now             func() time.Time
}

func NewNotificationService(
	sender notify.Sender,
	alerter notify.Alerter,
	invoices invoice.Generator,
	adminEmails []string,
	logger *logrus.Logger,
	dispatchTimeout time.Duration,
) *NotificationService {
	return &NotificationService{
		sender:          sender,
		alerter:         alerter,
		invoices:        invoices,
		adminEmails:     adminEmails,
		logger:          logger,
		dispatchTimeout: dispatchTimeout,
		now:             time.Now,
	}
}

// Dispatch delivers the event to every interested recipient. One
// recipient's failure never blocks the others; all failures are aggregated
// into the returned error. Callers treat the result as operational,
// never as a reason to roll back the transition that produced the event.
func (s *NotificationService) Dispatch(ctx context.Context, ev Event) error {
	msgs := s.compose(ev)

	var errs []error
	for _, m := range msgs {
		sendCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
		err := s.sender.Send(sendCtx, m)
		cancel()
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"event":     ev.Kind,
				"recipient": m.To,
				"request":   ev.Request.ID,
			}).Errorf("notification delivery failed: %v", err)
			errs = append(errs, fmt.Errorf("send %s to %s: %w", ev.Kind, m.To, err))
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"event":     ev.Kind,
			"recipient": m.To,
			"request":   ev.Request.ID,
		}).Debug("notification delivered")
	}

	if ev.Kind == EventCompleted {
		s.AlertAdmins(ctx, fmt.Sprintf("Translation %q (%s) completed and ready for review.", ev.Request.Title, ev.Request.ID))
	}

	return errors.Join(errs...)
}

// AlertAdmins pushes a short operational notice to the admin alert channel
// if one is configured. Failures are logged only.
func (s *NotificationService) AlertAdmins(ctx context.Context, text string) {
	if s.alerter == nil {
		return
	}
	alertCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	if err := s.alerter.Alert(alertCtx, text); err != nil {
		s.logger.Errorf("admin alert failed: %v", err)
	}
}

func (s *NotificationService) compose(ev Event) []notify.Message {
	req := ev.Request
	switch ev.Kind {
	case EventQuoteApproved:
		return []notify.Message{{
			To:      req.Client.Email,
			Subject: fmt.Sprintf("Your quote is ready: %s", req.Title),
			Body: fmt.Sprintf("Dear %s,\n\nYour translation request %q has been reviewed and priced at $%.2f.\nPlease complete the payment to get it underway.\n",
				req.Client.Name, req.Title, float64(req.ClientPriceCents)/100),
		}}

	case EventQuoteRejected:
		return []notify.Message{{
			To:      req.Client.Email,
			Subject: fmt.Sprintf("Quote request declined: %s", req.Title),
			Body: fmt.Sprintf("Dear %s,\n\nUnfortunately we cannot take on your translation request %q at this time.\n",
				req.Client.Name, req.Title),
		}}

	case EventPaymentReceived:
		msgs := []notify.Message{{
			To:      req.Client.Email,
			Subject: fmt.Sprintf("Payment received: %s", req.Title),
			Body: fmt.Sprintf("Dear %s,\n\nWe received your payment of $%.2f for %q. A translator will be assigned shortly.\n",
				req.Client.Name, float64(req.ClientPriceCents)/100, req.Title),
		}}
		if req.Translator != nil {
			msgs = append(msgs, notify.Message{
				To:      req.Translator.Email,
				Subject: fmt.Sprintf("Payment confirmed: %s", req.Title),
				Body:    fmt.Sprintf("The client has paid for %q. The assignment is fully funded.\n", req.Title),
			})
		}
		return msgs

	case EventTranslatorAssigned:
		return s.composeAssigned(req)

	case EventReminder:
		return s.composeReminder(req, ev)

	case EventCompleted:
		return s.composeCompleted(req)

	case EventCancelled:
		msgs := []notify.Message{{
			To:      req.Client.Email,
			Subject: fmt.Sprintf("Request cancelled: %s", req.Title),
			Body:    fmt.Sprintf("Dear %s,\n\nYour translation request %q has been cancelled.\n", req.Client.Name, req.Title),
		}}
		if req.Translator != nil {
			msgs = append(msgs, notify.Message{
				To:      req.Translator.Email,
				Subject: fmt.Sprintf("Assignment cancelled: %s", req.Title),
				Body:    fmt.Sprintf("The translation request %q you were assigned to has been cancelled.\n", req.Title),
			})
		}
		return msgs
	}

	s.logger.Warnf("no notification rule for event kind %s", ev.Kind)
	return nil
}

// composeAssigned notifies admins, the translator, and the client. Live
// types carry an ICS invite so everyone can put the session on their
// calendar.
func (s *NotificationService) composeAssigned(req *request.Request) []notify.Message {
	var attachments []notify.Attachment
	if req.Type.IsLive() && req.StartDate != nil {
		if data, err := calendar.BuildMeetingInvite(req, s.now()); err != nil {
			s.logger.Warnf("could not build calendar invite for request %s: %v", req.ID, err)
		} else {
			attachments = append(attachments, notify.Attachment{
				Filename:    "session.ics",
				ContentType: "text/calendar",
				Data:        data,
			})
		}
	}

	translatorName := "a translator"
	if req.Translator != nil {
		translatorName = req.Translator.Name
	}

	var msgs []notify.Message
	for _, adminEmail := range s.adminEmails {
		msgs = append(msgs, notify.Message{
			To:      adminEmail,
			Subject: fmt.Sprintf("Translation request accepted: %s", req.Title),
			Body:    fmt.Sprintf("Translator %s accepted request %q for client %s.\n", translatorName, req.Title, req.Client.Name),
		})
	}
	if req.Translator != nil {
		msgs = append(msgs, notify.Message{
			To:      req.Translator.Email,
			Subject: fmt.Sprintf("Assignment confirmation: %s", req.Title),
			Body: fmt.Sprintf("You are now assigned to %q (%s → %s), due %s.\n",
				req.Title, req.SourceLanguage, req.TargetLanguage, req.Deadline.Format("2006-01-02 15:04")),
			Attachments: attachments,
		})
	}
	msgs = append(msgs, notify.Message{
		To:      req.Client.Email,
		Subject: fmt.Sprintf("Your translation request has been accepted: %s", req.Title),
		Body: fmt.Sprintf("Dear %s,\n\n%s has accepted your request %q and will be in touch.\n",
			req.Client.Name, translatorName, req.Title),
		Attachments: attachments,
	})
	return msgs
}

// composeReminder targets the translator only.
func (s *NotificationService) composeReminder(req *request.Request, ev Event) []notify.Message {
	if req.Translator == nil {
		s.logger.Warnf("reminder for request %s without a translator; dropping", req.ID)
		return nil
	}

	var subject, body string
	if ev.ReminderKind == reminder.KindDocumentDeadline {
		days := ev.OffsetHours / 24
		subject = fmt.Sprintf("Reminder: Translation due in %d days", days)
		if days == 1 {
			subject = "Reminder: Translation due in 1 day"
		}
		body = fmt.Sprintf("Hi %s,\n\nThe translation %q is due on %s. Please make sure the translated document is uploaded in time.\n",
			req.Translator.Name, req.Title, req.Deadline.Format("2006-01-02 15:04"))
	} else {
		switch ev.OffsetHours {
		case 24:
			subject = "Reminder: Interpretation Session in 24 Hours"
		case 3:
			subject = "3-Hour Alert: Upcoming Interpretation Session"
		default:
			subject = "Urgent: Interpretation Session Starting in 1 Hour"
		}
		when := ""
		if req.StartDate != nil {
			when = req.StartDate.Format("2006-01-02 15:04")
		}
		body = fmt.Sprintf("Hi %s,\n\nYour interpretation session for %q starts at %s.\n",
			req.Translator.Name, req.Title, when)
	}

	return []notify.Message{{To: req.Translator.Email, Subject: subject, Body: body}}
}

// composeCompleted notifies the client (invoice attached) and sends the
// admins a review notice.
func (s *NotificationService) composeCompleted(req *request.Request) []notify.Message {
	clientMsg := notify.Message{
		To:      req.Client.Email,
		Subject: fmt.Sprintf("Your translation is ready: %s", req.Title),
		Body: fmt.Sprintf("Dear %s,\n\nYour translation request %q has been completed. Please find the invoice attached.\n",
			req.Client.Name, req.Title),
	}
	if s.invoices != nil {
		if inv, err := s.invoices.Generate(req, s.now()); err != nil {
			s.logger.Warnf("could not generate invoice for request %s: %v", req.ID, err)
		} else {
			clientMsg.Attachments = append(clientMsg.Attachments, notify.Attachment{
				Filename:    inv.Filename,
				ContentType: inv.ContentType,
				Data:        inv.Data,
			})
		}
	}

	msgs := []notify.Message{clientMsg}
	for _, adminEmail := range s.adminEmails {
		msgs = append(msgs, notify.Message{
			To:      adminEmail,
			Subject: fmt.Sprintf("Ready for review: %s", req.Title),
			Body:    fmt.Sprintf("Request %q (%s) was completed and awaits review before payout.\n", req.Title, req.ID),
		})
	}
	return msgs
}
