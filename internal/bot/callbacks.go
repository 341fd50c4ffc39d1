package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdLatest      = "latest"
	cmdUnsubscribe = "unsubscribe"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}
	action, arg := parts[0], parts[1]

	var userID int64
	if cb.From != nil {
		userID = cb.From.ID
	}
	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", userID,
	)

	switch action {
	case cmdLatest:
		b.handleLatest(ctx, chatID, arg)
	case cmdUnsubscribe:
		if _, err := strconv.ParseInt(arg, 10, 64); err != nil {
			return
		}
		b.handleUnsubscribe(ctx, chatID, arg)
	}
}
