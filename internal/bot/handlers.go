package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"headlines/internal/model"
	"headlines/internal/search"
	"headlines/internal/storage"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Headlines!

Top stories from many news feeds, merged and deduplicated.

Quick start:
1. /home — today's front page
2. /latest <category> — newest headlines of a section
3. /subscribe <category> [query] — get new headlines pushed here

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Reading:
/home — front page
/latest [category] — newest headlines (default: home)
/trending — what everyone is reading
/search <query> — search recent headlines
/categories — list categories

Push notifications:
/subscribe <category> [query] — push new headlines, optionally only those matching query
/subscriptions — show your subscriptions
/unsubscribe <id> — remove a subscription

Query words shorter than three letters are ignored.`)
}

func (b *Bot) handleHome(ctx context.Context, chatID int64) {
	data := b.news.HomePage(ctx)
	b.reply(chatID, FormatHomePage(data, b.now()))
}

func (b *Bot) handleLatest(ctx context.Context, chatID int64, args string) {
	cat, err := ParseCategoryArg(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	articles := b.news.ByCategory(ctx, cat)
	b.reply(chatID, FormatArticleList("Latest: "+cat.Label(), articles, b.now()))
}

func (b *Bot) handleTrending(ctx context.Context, chatID int64) {
	articles := b.news.Trending(ctx)
	b.reply(chatID, FormatArticleList("Trending", articles, b.now()))
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, args string) {
	if len(search.Terms(args)) == 0 {
		b.reply(chatID, "Usage: /search <query> (words of three letters or more)")
		return
	}
	results := b.search.Search(ctx, args)
	if len(results) == 0 {
		b.reply(chatID, fmt.Sprintf("Nothing matches %q.", args))
		return
	}
	b.reply(chatID, FormatArticleList(fmt.Sprintf("Results for %q", args), results, b.now()))
}

func (b *Bot) handleCategories(chatID int64) {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range model.Categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label(), cmdLatest+":"+string(c)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	b.replyWithKeyboard(chatID, FormatCategories(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64, args string) {
	parsed, err := ParseSubscribeArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if parsed.Query != "" && len(search.Terms(parsed.Query)) == 0 {
		b.reply(chatID, "Query words must be at least three letters long.")
		return
	}

	sub := &model.Subscription{
		ChatID:    chatID,
		Category:  parsed.Category,
		Query:     parsed.Query,
		CreatedAt: b.now(),
	}
	err = b.store.CreateSubscription(ctx, sub)
	if errors.Is(err, storage.ErrExists) {
		b.reply(chatID, "You already have this subscription. See /subscriptions.")
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save subscription: %v", err))
		return
	}

	text := fmt.Sprintf("Subscribed #%d to %s", sub.ID, sub.Category.Label())
	if sub.Query != "" {
		text += fmt.Sprintf(" matching %q", sub.Query)
	}
	b.reply(chatID, text+". New headlines will be pushed here.")
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /unsubscribe <id>")
		return
	}

	sub, err := b.store.GetSubscription(ctx, id)
	if err != nil || sub.ChatID != chatID {
		b.reply(chatID, fmt.Sprintf("Subscription #%d not found.", id))
		return
	}

	if err := b.store.DeleteSubscription(ctx, id); err != nil {
		b.reply(chatID, fmt.Sprintf("Error removing subscription: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Subscription #%d to %s removed.", id, sub.Category.Label()))
}

func (b *Bot) handleSubscriptions(ctx context.Context, chatID int64) {
	subs, err := b.store.ListSubscriptions(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(subs) == 0 {
		b.reply(chatID, FormatSubscriptionList(subs))
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Unsubscribe #%d", s.ID),
				fmt.Sprintf("%s:%d", cmdUnsubscribe, s.ID),
			),
		))
	}
	b.replyWithKeyboard(chatID, FormatSubscriptionList(subs), tgbotapi.NewInlineKeyboardMarkup(rows...))
}
