package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"translation_marketplace/internal/app"
	"translation_marketplace/internal/domain/request"
	idb "translation_marketplace/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterAdminHandlers wires the operator's Telegram commands: inspecting
// the request pool and applying the admin-side lifecycle transitions.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, requestService *app.RequestService, requests request.Repository, adminTelegramID int64, baseLogger *logrus.Entry) {
	adminActor := request.Actor{ID: uuid.Nil, Role: request.RoleAdmin, Name: "operator"}

	authorized := func(c telebot.Context, logger *logrus.Entry) bool {
		if c.Sender().ID != adminTelegramID {
			logger.Warn("unauthorized access attempt")
			return false
		}
		return true
	}

	b.Handle("/pending", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/pending",
			"sender_id": c.Sender().ID,
		})
		if !authorized(c, handlerLogger) {
			return c.Send("You are not allowed to use this command.")
		}

		reqs, err := requests.ListByStatus(ctx, request.StatusQuote, request.StatusPaid)
		if err != nil {
			handlerLogger.WithError(err).Error("failed to list pending requests")
			return c.Send("Could not list pending requests: " + err.Error())
		}
		if len(reqs) == 0 {
			return c.Send("No requests waiting for pricing or assignment.")
		}

		var sb strings.Builder
		sb.WriteString("Requests waiting for action:\n")
		for _, r := range reqs {
			fmt.Fprintf(&sb, "%s  [%s/%s]  %s  deadline %s\n",
				r.ID, r.Status, r.Type, r.Title, r.Deadline.Format("2006-01-02"))
		}
		return c.Send(sb.String())
	})

	b.Handle("/active", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/active",
			"sender_id": c.Sender().ID,
		})
		if !authorized(c, handlerLogger) {
			return c.Send("You are not allowed to use this command.")
		}

		reqs, err := requests.ListByStatus(ctx, request.StatusAssigned, request.StatusInProgress)
		if err != nil {
			handlerLogger.WithError(err).Error("failed to list active requests")
			return c.Send("Could not list active requests: " + err.Error())
		}
		if len(reqs) == 0 {
			return c.Send("No requests in progress.")
		}

		var sb strings.Builder
		sb.WriteString("Active requests:\n")
		for _, r := range reqs {
			translatorName := "-"
			if r.Translator != nil {
				translatorName = r.Translator.Name
			}
			fmt.Fprintf(&sb, "%s  [%s]  %s  translator: %s\n", r.ID, r.Status, r.Title, translatorName)
		}
		return c.Send(sb.String())
	})

	b.Handle("/approve", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/approve",
			"sender_id": c.Sender().ID,
		})
		if !authorized(c, handlerLogger) {
			return c.Send("You are not allowed to use this command.")
		}

		args := c.Args()
		// Expected format: /approve <RequestID> <ClientCents> <TranslatorCents>
		if len(args) != 3 {
			return c.Send("Usage: /approve <request id> <client price cents> <translator price cents>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return c.Send("Invalid request id.")
		}
		var clientCents, translatorCents int64
		if _, err := fmt.Sscan(args[1], &clientCents); err != nil {
			return c.Send("Client price must be an integer number of cents.")
		}
		if _, err := fmt.Sscan(args[2], &translatorCents); err != nil {
			return c.Send("Translator price must be an integer number of cents.")
		}

		req, err := requestService.ApproveQuote(ctx, adminActor, id, clientCents, translatorCents)
		if err != nil {
			return c.Send(describeCommandError(handlerLogger, err))
		}
		handlerLogger.WithField("request", req.ID).Info("quote approved")
		return c.Send(fmt.Sprintf("Quote %s approved at %.2f for the client.", req.ID, float64(clientCents)/100))
	})

	b.Handle("/reject", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/reject",
			"sender_id": c.Sender().ID,
		})
		if !authorized(c, handlerLogger) {
			return c.Send("You are not allowed to use this command.")
		}

		args := c.Args()
		if len(args) < 1 {
			return c.Send("Usage: /reject <request id> [note]")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return c.Send("Invalid request id.")
		}
		note := strings.Join(args[1:], " ")
		if note == "" {
			note = "quote rejected"
		}

		req, err := requestService.RejectQuote(ctx, adminActor, id, note)
		if err != nil {
			return c.Send(describeCommandError(handlerLogger, err))
		}
		handlerLogger.WithField("request", req.ID).Info("quote rejected")
		return c.Send(fmt.Sprintf("Request %s rejected.", req.ID))
	})

	b.Handle("/cancel", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/cancel",
			"sender_id": c.Sender().ID,
		})
		if !authorized(c, handlerLogger) {
			return c.Send("You are not allowed to use this command.")
		}

		args := c.Args()
		if len(args) < 1 {
			return c.Send("Usage: /cancel <request id> [note]")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return c.Send("Invalid request id.")
		}
		note := strings.Join(args[1:], " ")
		if note == "" {
			note = "cancelled by operator"
		}

		req, err := requestService.Cancel(ctx, adminActor, id, note)
		if err != nil {
			return c.Send(describeCommandError(handlerLogger, err))
		}
		handlerLogger.WithField("request", req.ID).Info("request cancelled")
		return c.Send(fmt.Sprintf("Request %s cancelled. Pending reminders were removed.", req.ID))
	})

	b.Handle("/invoice", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/invoice",
			"sender_id": c.Sender().ID,
		})
		if !authorized(c, handlerLogger) {
			return c.Send("You are not allowed to use this command.")
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Usage: /invoice <request id>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return c.Send("Invalid request id.")
		}

		inv, err := requestService.GenerateInvoice(ctx, adminActor, id)
		if err != nil {
			return c.Send(describeCommandError(handlerLogger, err))
		}
		return c.Send(fmt.Sprintf("Invoice %s:\n%s", inv.Number, string(inv.Data)))
	})
}

// describeCommandError logs the failure and translates domain errors into
// operator-readable replies.
func describeCommandError(logger *logrus.Entry, err error) string {
	var conflict *request.ConflictingStateError
	var invalid *request.ValidationError
	switch {
	case errors.Is(err, idb.ErrRequestNotFound):
		logger.WithError(err).Warn("request not found")
		return "No request with that id."
	case errors.As(err, &conflict):
		logger.WithError(err).Warn("conflicting state")
		return "Not possible right now: " + conflict.Error()
	case errors.As(err, &invalid):
		logger.WithError(err).Warn("validation failed")
		return "Invalid command: " + invalid.Error()
	default:
		logger.WithError(err).Error("command failed")
		return "Something went wrong: " + err.Error()
	}
}
