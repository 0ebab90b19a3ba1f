package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// TelebotAlerter implements notify.Alerter using the gopkg.in/telebot.v3
// library: operational notices are pushed into the administrators' chat.
type TelebotAlerter struct {
	bot    *telebot.Bot
	chatID int64
}

func NewTelebotAlerter(b *telebot.Bot, adminChatID int64) *TelebotAlerter {
	return &TelebotAlerter{bot: b, chatID: adminChatID}
}

// Alert sends a text notice to the configured admin chat.
func (a *TelebotAlerter) Alert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipient := &telebot.User{ID: a.chatID}
	_, err := a.bot.Send(recipient, text, &telebot.SendOptions{})
	return err
}
