// Package scheduler pushes fresh headlines to subscribed chats on a cron
// schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"headlines/internal/bot"
	"headlines/internal/model"
	"headlines/internal/search"
	"headlines/internal/storage"
)

const (
	// DefaultSchedule runs a push every five minutes.
	DefaultSchedule = "@every 5m"

	maxPerPush = 5
	// Delivery markers outlive the recency cutoff so a story is never
	// pushed twice while it can still appear in a feed.
	defaultRetention = 7 * 24 * time.Hour
)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string)
}

// Source returns the current headlines of a category.
type Source interface {
	ByCategory(ctx context.Context, cat model.Category) []model.Article
}

// Scheduler periodically pushes new headlines to every subscription.
type Scheduler struct {
	store     storage.Storage
	source    Source
	sender    Sender
	log       *slog.Logger
	spec      string
	retention time.Duration
	pause     time.Duration
	now       func() time.Time
}

// New creates a Scheduler running on DefaultSchedule.
func New(store storage.Storage, source Source, sender Sender, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:     store,
		source:    source,
		sender:    sender,
		log:       log,
		spec:      DefaultSchedule,
		retention: defaultRetention,
		pause:     50 * time.Millisecond,
		now:       time.Now,
	}
}

// SetSchedule overrides the cron spec, e.g. "*/10 * * * *" or "@every 1m".
func (s *Scheduler) SetSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	s.spec = spec
	return nil
}

// SetClock overrides the time source (useful for testing).
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Run pushes once, then on every tick of the schedule, blocking until ctx
// is cancelled. A run still in progress delays the next one.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := c.AddFunc(s.spec, func() { s.PushAll(ctx) }); err != nil {
		return fmt.Errorf("add cron entry: %w", err)
	}

	s.log.Info("push scheduled", "schedule", s.spec)
	s.PushAll(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// PushAll delivers new headlines to every subscription and forgets
// deliveries older than the retention window.
func (s *Scheduler) PushAll(ctx context.Context) {
	subs, err := s.store.ListAllSubscriptions(ctx)
	if err != nil {
		s.log.Error("list subscriptions", "error", err)
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		s.push(ctx, sub)
	}

	pruned, err := s.store.PruneDelivered(ctx, s.now().Add(-s.retention))
	if err != nil {
		s.log.Error("prune delivered", "error", err)
		return
	}
	if pruned > 0 {
		s.log.Debug("pruned delivered articles", "count", pruned)
	}
}

func (s *Scheduler) push(ctx context.Context, sub model.Subscription) {
	s.log.Debug("checking subscription", "subscription_id", sub.ID, "category", sub.Category)

	articles := Matching(s.source.ByCategory(ctx, sub.Category), sub.Query)

	var fresh []model.Article
	for _, a := range articles {
		// Stories published before the subscription existed are backlog.
		if a.PublishedAt.Before(sub.CreatedAt) {
			continue
		}
		delivered, err := s.store.IsDelivered(ctx, sub.ChatID, a.ID)
		if err != nil {
			s.log.Error("check delivered", "chat_id", sub.ChatID, "article_id", a.ID, "error", err)
			continue
		}
		if delivered {
			continue
		}
		fresh = append(fresh, a)
		if len(fresh) == maxPerPush {
			break
		}
	}

	// Newest first in, oldest first out, so the chat reads in order.
	for i := len(fresh) - 1; i >= 0; i-- {
		a := fresh[i]
		s.sender.SendMessage(sub.ChatID, bot.FormatPush(sub, a))
		if err := s.store.MarkDelivered(ctx, sub.ChatID, a.ID, s.now()); err != nil {
			s.log.Error("mark delivered", "chat_id", sub.ChatID, "article_id", a.ID, "error", err)
		}

		// Rate limit: ~20 messages/sec max for Telegram
		if s.pause > 0 {
			time.Sleep(s.pause)
		}
	}

	if len(fresh) > 0 {
		s.log.Info("pushed headlines", "subscription_id", sub.ID, "chat_id", sub.ChatID, "count", len(fresh))
	}

	now := s.now().UTC()
	sub.LastPushAt = &now
	if err := s.store.UpdateSubscription(ctx, &sub); err != nil {
		s.log.Error("update last push", "subscription_id", sub.ID, "error", err)
	}
}

// Matching keeps the articles relevant to query, preserving order. An
// empty query keeps everything.
func Matching(articles []model.Article, query string) []model.Article {
	terms := search.Terms(query)
	if len(terms) == 0 {
		return articles
	}
	var out []model.Article
	for _, a := range articles {
		if search.Score(a, terms) > 0 {
			out = append(out, a)
		}
	}
	return out
}
